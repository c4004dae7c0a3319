package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/engine"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/protocol"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/room"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/state"
)

const toggleAckInstructions = "Say to the user that they successfully toggle the component"

// InboundConfig wires the frontend-initiated toggle handler.
type InboundConfig struct {
	Store  *state.Store
	Engine engine.ConversationEngine
	// Speak delivers the generated acknowledgement utterance to the user.
	Speak  func(text string) error
	Logger *slog.Logger
	// ReplyTimeout bounds the acknowledgement generation, which runs
	// detached from the RPC reply.
	ReplyTimeout time.Duration
}

// NewToggleHandler returns the handler for agent.toggleComponent. The RPC
// reply is a best-effort ack: a toggle on an unknown component id is logged
// but still answered "success". Only an absent or unparseable payload earns
// an error-string reply, and nothing ever propagates past the RPC boundary.
func NewToggleHandler(cfg InboundConfig) room.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	replyTimeout := cfg.ReplyTimeout
	if replyTimeout <= 0 {
		replyTimeout = 10 * time.Second
	}

	return func(ctx context.Context, payload string) (string, error) {
		logger.Info("received toggle component payload", "payload", payload)

		req, err := protocol.DecodeToggleRequest(payload)
		if err != nil {
			logger.Error("error handling button click", "error", err)
			return fmt.Sprintf("error: %v", err), nil
		}

		component, found := cfg.Store.ToggleComponent(req.ID)
		if !found {
			logger.Error("component not found", "component_id", req.ID)
			return "success", nil
		}
		logger.Info("toggled component", "component_id", req.ID, "is_showed", component.IsShowed)

		// The acknowledgement utterance is independent of the RPC reply; it
		// runs on its own context and its failure changes nothing here.
		if cfg.Engine != nil {
			go func() {
				ackCtx, cancel := context.WithTimeout(context.Background(), replyTimeout)
				defer cancel()
				text, err := cfg.Engine.GenerateReply(ackCtx, toggleAckInstructions)
				if err != nil {
					logger.Error("acknowledgement generation failed", "component_id", req.ID, "error", err)
					return
				}
				if cfg.Speak == nil {
					return
				}
				if err := cfg.Speak(text); err != nil {
					logger.Error("acknowledgement delivery failed", "component_id", req.ID, "error", err)
				}
			}()
		}

		return "success", nil
	}
}
