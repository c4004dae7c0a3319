// Package sync translates session-state mutations into directives pushed to
// the remote participant and interprets the acknowledgements. Nothing in this
// package lets a transport failure escape to the conversation engine: every
// push resolves to a Result.
package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/catalog"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/protocol"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/room"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/state"
)

// Outcome classifies how a push ended. Every value is non-fatal; callers turn
// them into user-facing sentences.
type Outcome int

const (
	// OutcomeDelivered: the directive reached the frontend (and, for
	// illustration pushes, was acknowledged ok).
	OutcomeDelivered Outcome = iota
	// OutcomeNoRoom: no session/room context exists.
	OutcomeNoRoom
	// OutcomeNoParticipants: no remote participant is connected.
	OutcomeNoParticipants
	// OutcomeNoIdentity: a participant exists but could not be resolved.
	OutcomeNoIdentity
	// OutcomeTimeout: the caller-side deadline fired before the transport
	// returned. Distinct from OutcomeTransportFailed so callers can point at
	// frontend connectivity.
	OutcomeTimeout
	// OutcomeTransportFailed: the transport returned an error, including its
	// own internal timeout.
	OutcomeTransportFailed
	// OutcomeRemoteRejected: the frontend acknowledged with ok=false.
	OutcomeRemoteRejected
)

type Result struct {
	Outcome Outcome
	// RemoteError carries the frontend-supplied error string verbatim when
	// Outcome is OutcomeRemoteRejected.
	RemoteError string
}

func (r Result) Delivered() bool { return r.Outcome == OutcomeDelivered }

// DefaultPushTimeout is the caller-side deadline on every push. It must stay
// strictly above the transport's internal response deadline so that under
// normal conditions the transport times out first and this one only catches
// a misbehaving transport.
const DefaultPushTimeout = 4 * time.Second

type Gateway struct {
	room        room.Room
	logger      *slog.Logger
	pushTimeout time.Duration
}

// New builds a gateway for one session. A nil room is legal and makes every
// push resolve to OutcomeNoRoom.
func New(r room.Room, logger *slog.Logger, pushTimeout time.Duration) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if pushTimeout <= 0 {
		pushTimeout = DefaultPushTimeout
	}
	return &Gateway{room: r, logger: logger, pushTimeout: pushTimeout}
}

// PushComponentCreated tells the frontend to show a newly created component.
// Index is the component's 0-based display position at push time.
func (g *Gateway) PushComponentCreated(ctx context.Context, c state.Component, index int) Result {
	payload, err := json.Marshal(protocol.ComponentDirective{
		Action:  "show",
		ID:      c.ID,
		Content: c.Content,
		Index:   &index,
	})
	if err != nil {
		g.logger.Error("encode component directive", "component_id", c.ID, "error", err)
		return Result{Outcome: OutcomeTransportFailed}
	}
	g.logger.Info("sending component payload", "payload", string(payload))
	_, result := g.push(ctx, protocol.MethodComponent, string(payload))
	return result
}

// PushComponentToggled tells the frontend to flip a component's visibility.
func (g *Gateway) PushComponentToggled(ctx context.Context, c state.Component) Result {
	payload, err := json.Marshal(protocol.ComponentDirective{Action: "toggle", ID: c.ID})
	if err != nil {
		g.logger.Error("encode toggle directive", "component_id", c.ID, "error", err)
		return Result{Outcome: OutcomeTransportFailed}
	}
	g.logger.Info("sending toggle component payload", "payload", string(payload))
	_, result := g.push(ctx, protocol.MethodComponent, string(payload))
	return result
}

// ShowIllustration asks the frontend to display an asset and parses the
// structured acknowledgement.
func (g *Gateway) ShowIllustration(ctx context.Context, asset catalog.Asset) Result {
	payload, err := json.Marshal(protocol.IllustrationDirective{State: "show", ImageURL: asset.URL})
	if err != nil {
		g.logger.Error("encode illustration directive", "key", asset.Key, "error", err)
		return Result{Outcome: OutcomeTransportFailed}
	}
	g.logger.Info("sending show illustration payload", "payload", string(payload))
	reply, result := g.push(ctx, protocol.MethodShowIllustration, string(payload))
	if !result.Delivered() {
		return result
	}
	return g.parseIllustrationAck(reply)
}

// HideIllustration asks the frontend to clear the illustration display.
func (g *Gateway) HideIllustration(ctx context.Context) Result {
	payload, err := json.Marshal(protocol.IllustrationDirective{State: "hidden"})
	if err != nil {
		g.logger.Error("encode illustration directive", "error", err)
		return Result{Outcome: OutcomeTransportFailed}
	}
	g.logger.Info("sending hide illustration payload", "payload", string(payload))
	reply, result := g.push(ctx, protocol.MethodShowIllustration, string(payload))
	if !result.Delivered() {
		return result
	}
	return g.parseIllustrationAck(reply)
}

func (g *Gateway) parseIllustrationAck(reply string) Result {
	ack, err := protocol.DecodeIllustrationAck(reply)
	if err != nil {
		g.logger.Error("invalid illustration ack", "reply", reply, "error", err)
		return Result{Outcome: OutcomeTransportFailed}
	}
	if !ack.OK {
		remoteErr := ack.Error
		if remoteErr == "" {
			remoteErr = "Unknown error"
		}
		return Result{Outcome: OutcomeRemoteRejected, RemoteError: remoteErr}
	}
	return Result{Outcome: OutcomeDelivered}
}

// push checks the delivery preconditions in order and then performs the RPC
// under the caller-side deadline. The state mutation that motivated the push
// has already been committed; a failed push leaves local and frontend state
// divergent until the next successful one.
func (g *Gateway) push(ctx context.Context, method, payload string) (string, Result) {
	if g.room == nil {
		return "", Result{Outcome: OutcomeNoRoom}
	}
	peers := g.room.RemoteParticipants()
	if len(peers) == 0 {
		return "", Result{Outcome: OutcomeNoParticipants}
	}
	// Single-participant sessions: first peer wins, iteration order is the
	// only tie-break.
	destination := peers[0].Identity
	if destination == "" {
		return "", Result{Outcome: OutcomeNoIdentity}
	}

	rpcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type rpcReply struct {
		payload string
		err     error
	}
	done := make(chan rpcReply, 1)
	go func() {
		reply, err := g.room.PerformRPC(rpcCtx, destination, method, payload)
		done <- rpcReply{payload: reply, err: err}
	}()

	timer := time.NewTimer(g.pushTimeout)
	defer timer.Stop()

	select {
	case reply := <-done:
		if reply.err != nil {
			g.logger.Error("rpc push failed", "method", method, "error", reply.err)
			return "", Result{Outcome: OutcomeTransportFailed}
		}
		return reply.payload, Result{Outcome: OutcomeDelivered}
	case <-timer.C:
		g.logger.Error("rpc push timed out - frontend may not be connected", "method", method)
		return "", Result{Outcome: OutcomeTimeout}
	case <-ctx.Done():
		g.logger.Error("rpc push canceled", "method", method, "error", ctx.Err())
		return "", Result{Outcome: OutcomeTransportFailed}
	}
}
