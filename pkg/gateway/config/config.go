package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// ServerURL is the websocket URL handed to frontends in connection
	// details.
	ServerURL string

	// DatabaseURL enables the quiz endpoints. Empty leaves them unmounted.
	DatabaseURL string

	// Connection token issuance (the /api/connection-details grant).
	TokenSigningSecret string
	TokenTTL           time.Duration

	// Reply generation for toggle acknowledgements. An empty API key selects
	// the static fallback engine.
	GeminiAPIKey string
	GeminiModel  string

	// RPCPushTimeout is the caller-side deadline on every outbound directive.
	// RPCResponseTimeout is the transport's own wait for the peer's response
	// and must stay strictly below RPCPushTimeout.
	RPCPushTimeout     time.Duration
	RPCResponseTimeout time.Duration

	// AckReplyTimeout bounds the spoken acknowledgement a toggle triggers.
	AckReplyTimeout time.Duration

	WSPingInterval time.Duration
	WSWriteTimeout time.Duration
	WSQueueSize    int

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("AVATAR_ADDR", ":8080"),
		ServerURL:           envOr("AVATAR_SERVER_URL", "ws://localhost:8080/api/session/ws"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("AVATAR_DATABASE_URL")),
		TokenSigningSecret:  strings.TrimSpace(os.Getenv("AVATAR_TOKEN_SECRET")),
		TokenTTL:            envDurationOr("AVATAR_TOKEN_TTL", 15*time.Minute),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("AVATAR_GEMINI_API_KEY")),
		GeminiModel:         envOr("AVATAR_GEMINI_MODEL", "gemini-2.0-flash"),
		RPCPushTimeout:      envDurationOr("AVATAR_RPC_PUSH_TIMEOUT", 4*time.Second),
		RPCResponseTimeout:  envDurationOr("AVATAR_RPC_RESPONSE_TIMEOUT", 3*time.Second),
		AckReplyTimeout:     envDurationOr("AVATAR_ACK_REPLY_TIMEOUT", 10*time.Second),
		WSPingInterval:      envDurationOr("AVATAR_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:      envDurationOr("AVATAR_WS_WRITE_TIMEOUT", 5*time.Second),
		WSQueueSize:         envIntOr("AVATAR_WS_QUEUE_SIZE", 32),
		CORSAllowedOrigins:  make(map[string]struct{}),
		ReadHeaderTimeout:   envDurationOr("AVATAR_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("AVATAR_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envDurationOr("AVATAR_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("AVATAR_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.TokenSigningSecret == "" {
		return Config{}, fmt.Errorf("AVATAR_TOKEN_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("AVATAR_TOKEN_TTL must be > 0")
	}
	if cfg.RPCPushTimeout <= 0 {
		return Config{}, fmt.Errorf("AVATAR_RPC_PUSH_TIMEOUT must be > 0")
	}
	if cfg.RPCResponseTimeout <= 0 {
		return Config{}, fmt.Errorf("AVATAR_RPC_RESPONSE_TIMEOUT must be > 0")
	}
	if cfg.RPCResponseTimeout >= cfg.RPCPushTimeout {
		return Config{}, fmt.Errorf("AVATAR_RPC_RESPONSE_TIMEOUT must be < AVATAR_RPC_PUSH_TIMEOUT")
	}
	if cfg.AckReplyTimeout <= 0 {
		return Config{}, fmt.Errorf("AVATAR_ACK_REPLY_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("AVATAR_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("AVATAR_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSQueueSize <= 0 {
		return Config{}, fmt.Errorf("AVATAR_WS_QUEUE_SIZE must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("AVATAR_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("AVATAR_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("AVATAR_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
