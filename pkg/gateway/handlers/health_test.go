package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/config"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/sessions"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func healthyConfig() config.Config {
	return config.Config{
		TokenSigningSecret: "test-secret",
		RPCPushTimeout:     4 * time.Second,
		RPCResponseTimeout: 3 * time.Second,
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestReadyHandler_OK(t *testing.T) {
	tracker := sessions.NewTracker()
	tracker.Register("r1", sessions.Handle{})

	h := ReadyHandler{Config: healthyConfig(), Sessions: tracker, Quiz: fakePinger{}}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK             bool `json:"ok"`
		ActiveSessions int  `json:"active_sessions"`
		QuizEnabled    bool `json:"quiz_enabled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.OK || resp.ActiveSessions != 1 || !resp.QuizEnabled {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestReadyHandler_ReportsIssues(t *testing.T) {
	cfg := healthyConfig()
	cfg.RPCResponseTimeout = cfg.RPCPushTimeout

	h := ReadyHandler{Config: cfg, Sessions: sessions.NewTracker(), Quiz: fakePinger{err: errors.New("down")}}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.OK || len(resp.Issues) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
}
