// Package session ties one frontend connection to its tutoring state. A
// Session owns the per-connection store, the websocket room, the outbound
// sync gateway, and the tool registry, and registers the inbound toggle
// handler before the room starts reading.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/catalog"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/engine"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/protocol"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/room/wsroom"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/state"
	tutorsync "github.com/nuurhaqimah/avatar-backend/pkg/tutor/sync"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/tools"
)

type Config struct {
	// PushTimeout is the caller-side deadline on every outbound directive.
	// It must stay above the room's internal response timeout.
	PushTimeout time.Duration
	// AckReplyTimeout bounds the spoken acknowledgement generated after a
	// frontend-initiated toggle.
	AckReplyTimeout time.Duration
	// Room configures the underlying websocket transport.
	Room wsroom.Config
}

type Dependencies struct {
	Conn      wsroom.Conn
	Engine    engine.ConversationEngine
	Catalog   *catalog.Catalog
	Logger    *slog.Logger
	SessionID string
	RoomName  string
	Identity  string
	Config    Config
}

type Session struct {
	logger    *slog.Logger
	sessionID string

	store    *state.Store
	room     *wsroom.Room
	gateway  *tutorsync.Gateway
	registry *tools.Registry
}

func New(deps Dependencies) (*Session, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("conversation engine is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config.PushTimeout <= 0 {
		deps.Config.PushTimeout = tutorsync.DefaultPushTimeout
	}

	logger := deps.Logger.With("session_id", deps.SessionID, "room", deps.RoomName)

	rm := wsroom.New(wsroom.Dependencies{
		Conn:     deps.Conn,
		Logger:   logger,
		Name:     deps.RoomName,
		Identity: deps.Identity,
		Config:   deps.Config.Room,
	})

	store := state.NewStore()
	gateway := tutorsync.New(rm, logger, deps.Config.PushTimeout)
	registry := tools.New(store, deps.Catalog, gateway)

	rm.RegisterRPCHandler(protocol.MethodToggleComponent, tutorsync.NewToggleHandler(tutorsync.InboundConfig{
		Store:        store,
		Engine:       deps.Engine,
		Speak:        rm.SendAssistantText,
		Logger:       logger,
		ReplyTimeout: deps.Config.AckReplyTimeout,
	}))

	return &Session{
		logger:    logger,
		sessionID: deps.SessionID,
		store:     store,
		room:      rm,
		gateway:   gateway,
		registry:  registry,
	}, nil
}

// Run pumps the websocket until the peer disconnects or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if ctx != nil {
		stop := context.AfterFunc(ctx, s.room.Close)
		defer stop()
	}
	err := s.room.Run()
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) ID() string { return s.sessionID }

// Tools exposes the session's tool registry to the conversation loop.
func (s *Session) Tools() *tools.Registry { return s.registry }

// ExecuteTool runs one tool call and returns the sentence to speak.
func (s *Session) ExecuteTool(ctx context.Context, name string, input map[string]any) (string, error) {
	out, err := s.registry.Execute(ctx, name, input)
	if err != nil {
		return "", err
	}
	s.logger.Info("tool executed", "tool", name)
	return out, nil
}

// Speak pushes an assistant utterance to the frontend.
func (s *Session) Speak(text string) error { return s.room.SendAssistantText(text) }

// Warn sends a non-fatal notice frame. Used by the tracker during drain.
func (s *Session) Warn(code, message string) error { return s.room.SendWarning(code, message) }

func (s *Session) Close() { s.room.Close() }

func (s *Session) Store() *state.Store { return s.store }
