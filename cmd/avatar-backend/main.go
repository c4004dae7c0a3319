package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nuurhaqimah/avatar-backend/internal/dotenv"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/config"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/quiz"
	gatewayserver "github.com/nuurhaqimah/avatar-backend/pkg/gateway/server"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/token"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/engine"
)

type backendDeps struct {
	loadConfig   func() (config.Config, error)
	newEngine    func(context.Context, config.Config) (engine.ConversationEngine, error)
	newQuizStore func(context.Context, string) (*quiz.Store, error)
	newServer    func(gatewayserver.Dependencies) *gatewayserver.Server
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultBackendDeps() backendDeps {
	return backendDeps{
		loadConfig:   config.LoadFromEnv,
		newEngine:    buildEngine,
		newQuizStore: quiz.NewStore,
		newServer:    gatewayserver.New,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// buildEngine selects Gemini when an API key is configured and otherwise the
// static fallback, so the session surface works without upstream credentials.
func buildEngine(ctx context.Context, cfg config.Config) (engine.ConversationEngine, error) {
	if cfg.GeminiAPIKey == "" {
		return fallbackEngine(), nil
	}
	return engine.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
}

func fallbackEngine() engine.ConversationEngine {
	return engine.Func(func(ctx context.Context, instructions string) (string, error) {
		return "Baik, sudah saya perbarui tampilannya.", nil
	})
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runBackend(ctx context.Context, logger *slog.Logger, deps backendDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.newEngine == nil {
		return errors.New("missing newEngine dependency")
	}
	if deps.newQuizStore == nil {
		return errors.New("missing newQuizStore dependency")
	}
	if deps.newServer == nil {
		return errors.New("missing newServer dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	issuer, err := token.NewIssuer(cfg.TokenSigningSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("build token issuer: %w", err)
	}

	eng, err := deps.newEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build conversation engine: %w", err)
	}

	var quizStore *quiz.Store
	if cfg.DatabaseURL != "" {
		quizStore, err = deps.newQuizStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open quiz store: %w", err)
		}
		defer quizStore.Close()
	}

	srvDeps := gatewayserver.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Issuer:    issuer,
		Engine:    eng,
		ServerURL: cfg.ServerURL,
	}
	if quizStore != nil {
		srvDeps.Quiz = quizStore
	}
	srv := deps.newServer(srvDeps)
	httpSrv := buildHTTPServer(cfg, srv.Handler())

	logger.Info("starting avatar backend",
		"addr", cfg.Addr,
		"quiz_enabled", quizStore != nil,
		"gemini_enabled", cfg.GeminiAPIKey != "")

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	srv.StartDraining()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !srv.Sessions().Wait(waitCtx) {
		srv.Sessions().CancelAll()
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("avatar backend stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps backendDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.Load(".env.local", ".env"); err != nil {
		fmt.Fprintf(stderr, "avatar-backend: %v\n", err)
		return 1
	}

	if err := runBackend(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "avatar-backend: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultBackendDeps()))
}
