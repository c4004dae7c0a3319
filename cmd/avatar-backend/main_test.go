package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/config"
	gatewayserver "github.com/nuurhaqimah/avatar-backend/pkg/gateway/server"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/token"
)

func tokenIssuerForTest() (*token.Issuer, error) {
	return token.NewIssuer("test-secret", 15*time.Minute)
}

func testConfig() config.Config {
	return config.Config{
		Addr:                "127.0.0.1:0",
		ServerURL:           "ws://localhost:8080/api/session/ws",
		TokenSigningSecret:  "test-secret",
		TokenTTL:            15 * time.Minute,
		RPCPushTimeout:      4 * time.Second,
		RPCResponseTimeout:  3 * time.Second,
		AckReplyTimeout:     10 * time.Second,
		WSPingInterval:      20 * time.Second,
		WSWriteTimeout:      5 * time.Second,
		WSQueueSize:         32,
		CORSAllowedOrigins:  map[string]struct{}{},
		ReadHeaderTimeout:   2 * time.Second,
		ReadTimeout:         3 * time.Second,
		ShutdownGracePeriod: time.Second,
	}
}

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, backendDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		newEngine:    buildEngine,
		newQuizStore: defaultBackendDeps().newQuizStore,
		newServer: func(deps gatewayserver.Dependencies) *gatewayserver.Server {
			t.Fatalf("newServer should not be called when config load fails")
			return nil
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if got := stderr.String(); got == "" {
		t.Fatalf("expected stderr output for startup error")
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Addr = "127.0.0.1:9999"

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout=%v, want %v", srv.ReadTimeout, cfg.ReadTimeout)
	}
}

func TestBuildEngine_FallsBackWithoutAPIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	eng, err := buildEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildEngine error: %v", err)
	}

	reply, err := eng.GenerateReply(context.Background(), "say something short")
	if err != nil {
		t.Fatalf("GenerateReply error: %v", err)
	}
	if reply == "" {
		t.Fatalf("expected a non-empty fallback reply")
	}
}

func TestRunBackend_ShutsDownOnSignal(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sigReady := make(chan chan<- os.Signal, 1)

	deps := defaultBackendDeps()
	deps.loadConfig = func() (config.Config, error) { return testConfig(), nil }
	deps.signalNotify = func(c chan<- os.Signal, sig ...os.Signal) {
		sigReady <- c
	}
	deps.signalStop = func(c chan<- os.Signal) {}

	done := make(chan error, 1)
	go func() {
		done <- runBackend(context.Background(), logger, deps)
	}()

	select {
	case c := <-sigReady:
		c <- syscall.SIGTERM
	case <-time.After(5 * time.Second):
		t.Fatalf("signal channel was never registered")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runBackend returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("runBackend did not shut down after signal")
	}
}

func TestBackendHandlerStack_Smoke(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	issuer, err := tokenIssuerForTest()
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	srv := gatewayserver.New(gatewayserver.Dependencies{
		Config:    testConfig(),
		Logger:    logger,
		Issuer:    issuer,
		Engine:    fallbackEngine(),
		ServerURL: "ws://localhost:8080/api/session/ws",
	})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want %d", resp.StatusCode, http.StatusOK)
	}
}
