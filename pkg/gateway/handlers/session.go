package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/config"
	"github.com/nuurhaqimah/avatar-backend/pkg/gateway/token"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/catalog"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/engine"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/protocol"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/room/wsroom"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/session"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/sessions"
)

const sessionHandshakeTimeout = 5 * time.Second

// SessionHandler upgrades /api/session/ws connections, runs the hello
// handshake, and hands the socket to a tutoring session.
type SessionHandler struct {
	Config   config.Config
	Logger   *slog.Logger
	Issuer   *token.Issuer
	Engine   engine.ConversationEngine
	Catalog  *catalog.Catalog
	Sessions *sessions.Tracker

	// Draining reports whether the server is shutting down and should stop
	// accepting sessions.
	Draining func() bool
}

func (h SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if h.Draining != nil && h.Draining() {
		writeJSONError(w, r, http.StatusServiceUnavailable, "draining", "server is shutting down")
		return
	}
	if !h.originAllowed(r) {
		writeJSONError(w, r, http.StatusForbidden, "forbidden", "origin is not allowed")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(sessionHandshakeTimeout))
	messageType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		h.writeWSError(conn, "bad_request", "failed to read hello")
		return
	}
	if messageType != websocket.TextMessage {
		h.writeWSError(conn, "bad_request", "first frame must be hello")
		return
	}

	decoded, err := protocol.DecodeClientFrame(firstFrame)
	if err != nil {
		h.writeWSError(conn, "bad_request", "invalid hello frame")
		return
	}
	hello, ok := decoded.(protocol.ClientHello)
	if !ok {
		h.writeWSError(conn, "bad_request", "first frame must be hello")
		return
	}
	if strings.TrimSpace(hello.ProtocolVersion) != protocol.ProtocolVersion1 {
		h.writeWSError(conn, "unsupported_version", "unsupported protocol_version")
		return
	}

	identity, roomName, err := h.Issuer.Verify(hello.Token)
	if err != nil {
		h.writeWSError(conn, "unauthorized", "invalid connection token")
		return
	}
	if strings.TrimSpace(hello.Identity) != "" && hello.Identity != identity {
		h.writeWSError(conn, "unauthorized", "identity does not match the connection token")
		return
	}

	sessionID := "s_" + randHex(8)
	ack := protocol.ServerHelloAck{
		Type:            "hello_ack",
		ProtocolVersion: protocol.ProtocolVersion1,
		SessionID:       sessionID,
		Room:            roomName,
	}
	if err := conn.WriteJSON(ack); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	s, err := session.New(session.Dependencies{
		Conn:      conn,
		Engine:    h.Engine,
		Catalog:   h.Catalog,
		Logger:    h.Logger,
		SessionID: sessionID,
		RoomName:  roomName,
		Identity:  identity,
		Config: session.Config{
			PushTimeout:     h.Config.RPCPushTimeout,
			AckReplyTimeout: h.Config.AckReplyTimeout,
			Room: wsroom.Config{
				ResponseTimeout: h.Config.RPCResponseTimeout,
				WriteTimeout:    h.Config.WSWriteTimeout,
				PingInterval:    h.Config.WSPingInterval,
				QueueSize:       h.Config.WSQueueSize,
			},
		},
	})
	if err != nil {
		h.writeWSError(conn, "internal", "failed to initialize session")
		return
	}

	unregister := func() {}
	if h.Sessions != nil {
		unregister = h.Sessions.Register(roomName, sessions.Handle{
			Identity: identity,
			Cancel:   s.Close,
			Warn:     s.Warn,
		})
	}
	defer unregister()

	if err := s.Run(r.Context()); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("session ended with error",
				"session_id", sessionID, "room", roomName, "error", err)
		}
	}
}

func (h SessionHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func (h SessionHandler) writeWSError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(protocol.ServerError{Type: "error", Code: code, Message: message, Close: true})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(2*time.Second))
}

func randHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
