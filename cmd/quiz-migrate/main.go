// Command quiz-migrate applies the quiz schema migrations to the database
// named by AVATAR_DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nuurhaqimah/avatar-backend/internal/dotenv"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/quiz"
)

func runMain(ctx context.Context, stderr io.Writer, migrate func(context.Context, string) error) int {
	if stderr == nil {
		stderr = os.Stderr
	}

	if err := dotenv.Load(".env.local", ".env"); err != nil {
		fmt.Fprintf(stderr, "quiz-migrate: %v\n", err)
		return 1
	}

	databaseURL := strings.TrimSpace(os.Getenv("AVATAR_DATABASE_URL"))
	if databaseURL == "" {
		fmt.Fprintln(stderr, "quiz-migrate: AVATAR_DATABASE_URL must be set")
		return 1
	}

	if err := migrate(ctx, databaseURL); err != nil {
		fmt.Fprintf(stderr, "quiz-migrate: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, quiz.Migrate))
}
