package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/quiz"
)

// QuizProvider is the read surface of the quiz store.
type QuizProvider interface {
	QuestionSet(ctx context.Context, setID string, types []string) (quiz.Set, error)
	AvailableSets(ctx context.Context) ([]quiz.SetSummary, error)
}

// QuizStore is what the router needs from a fully wired quiz backend.
type QuizStore interface {
	QuizProvider
	Pinger
}

// QuizSetHandler serves GET /api/quiz/question-set/{id}.
type QuizSetHandler struct {
	Store  QuizProvider
	Logger *slog.Logger
}

func (h QuizSetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	setID := strings.TrimSpace(r.PathValue("id"))
	if setID == "" {
		writeJSONError(w, r, http.StatusBadRequest, "bad_request", "question set id is required")
		return
	}
	types := quiz.ParseTypesFilter(r.URL.Query().Get("question_types"))

	set, err := h.Store.QuestionSet(r.Context(), setID, types)
	switch {
	case errors.Is(err, quiz.ErrSetNotFound):
		writeJSONError(w, r, http.StatusNotFound, "not_found", "Question set not found")
		return
	case errors.Is(err, quiz.ErrNoQuestions):
		writeJSONError(w, r, http.StatusNotFound, "not_found", "No matching questions found in this question set")
		return
	case err != nil:
		if h.Logger != nil {
			h.Logger.Error("quiz set lookup failed", "set_id", setID, "error", err)
		}
		writeJSONError(w, r, http.StatusInternalServerError, "internal", "database error")
		return
	}

	writeJSON(w, http.StatusOK, set)
}

// QuizSetsHandler serves GET /api/quiz/question-sets.
type QuizSetsHandler struct {
	Store  QuizProvider
	Logger *slog.Logger
}

func (h QuizSetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	sets, err := h.Store.AvailableSets(r.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("quiz set listing failed", "error", err)
		}
		writeJSONError(w, r, http.StatusInternalServerError, "internal", "database error")
		return
	}
	if sets == nil {
		sets = []quiz.SetSummary{}
	}
	writeJSON(w, http.StatusOK, sets)
}
