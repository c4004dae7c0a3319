// Package server assembles the HTTP surface: health probes, the connection
// grant endpoint, the quiz API, and the session websocket.
package server

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/config"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/handlers"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/mw"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/token"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/catalog"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/engine"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/sessions"
)

type Dependencies struct {
	Config  config.Config
	Logger  *slog.Logger
	Issuer  *token.Issuer
	Engine  engine.ConversationEngine
	Catalog *catalog.Catalog
	// Quiz is nil when no database is configured; the quiz routes are left
	// unmounted in that case.
	Quiz handlers.QuizStore
	// ServerURL is the websocket URL advertised in connection details.
	ServerURL string
}

type Server struct {
	cfg      config.Config
	logger   *slog.Logger
	mux      *http.ServeMux
	sessions *sessions.Tracker
	draining atomic.Bool
}

func New(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   logger,
		mux:      http.NewServeMux(),
		sessions: sessions.NewTracker(),
	}
	s.routes(deps)
	return s
}

func (s *Server) routes(deps Dependencies) {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{
		Config:   s.cfg,
		Sessions: s.sessions,
		Quiz:     pinger(deps.Quiz),
	})

	s.mux.Handle("GET /api/connection-details", handlers.ConnectionDetailsHandler{
		Issuer:    deps.Issuer,
		ServerURL: deps.ServerURL,
		Logger:    s.logger,
	})

	s.mux.Handle("GET /api/session/ws", handlers.SessionHandler{
		Config:   s.cfg,
		Logger:   s.logger,
		Issuer:   deps.Issuer,
		Engine:   deps.Engine,
		Catalog:  deps.Catalog,
		Sessions: s.sessions,
		Draining: s.draining.Load,
	})

	if deps.Quiz != nil {
		s.mux.Handle("GET /api/quiz/question-set/{id}", handlers.QuizSetHandler{
			Store:  deps.Quiz,
			Logger: s.logger,
		})
		s.mux.Handle("GET /api/quiz/question-sets", handlers.QuizSetsHandler{
			Store:  deps.Quiz,
			Logger: s.logger,
		})
	}
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Sessions exposes the live session tracker for shutdown coordination.
func (s *Server) Sessions() *sessions.Tracker { return s.sessions }

// StartDraining flips new session upgrades to 503 and warns live clients.
func (s *Server) StartDraining() {
	s.draining.Store(true)
	s.sessions.WarnAll("draining", "server is shutting down")
}

func pinger(q handlers.QuizStore) handlers.Pinger {
	if q == nil {
		return nil
	}
	return q
}
