package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/config"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/sessions"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Pinger reports whether the quiz database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ReadyHandler struct {
	Config   config.Config
	Sessions *sessions.Tracker
	Quiz     Pinger
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK             bool     `json:"ok"`
		ActiveSessions int      `json:"active_sessions"`
		QuizEnabled    bool     `json:"quiz_enabled"`
		Issues         []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 2)

	if h.Config.TokenSigningSecret == "" {
		issues = append(issues, "token signing secret is not configured")
	}
	if h.Config.RPCResponseTimeout >= h.Config.RPCPushTimeout {
		issues = append(issues, "rpc response timeout must be below the push timeout")
	}
	if h.Quiz != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Quiz.Ping(ctx); err != nil {
			issues = append(issues, "quiz database is unreachable")
		}
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, readyResp{
		OK:             ok,
		ActiveSessions: h.Sessions.Count(),
		QuizEnabled:    h.Quiz != nil,
		Issues:         issues,
	})
}
