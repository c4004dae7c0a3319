// Package room abstracts the call transport the tutoring core needs: a way
// to identify the remote participant in a session, a point-to-point
// request/response RPC primitive, and inbound RPC handler registration.
// Everything else about the transport is someone else's problem.
package room

import (
	"context"
	"errors"
)

var (
	// ErrNoParticipant is returned when the destination identity does not
	// match a connected participant.
	ErrNoParticipant = errors.New("room: no such participant")
	// ErrClosed is returned when the room's underlying connection is gone.
	ErrClosed = errors.New("room: closed")
)

// Participant is a connected remote peer.
type Participant struct {
	Identity string
}

// Handler receives an inbound RPC and returns the reply body. The returned
// string travels back as the RPC response payload verbatim.
type Handler func(ctx context.Context, payload string) (string, error)

// Room is one live session's view of the transport.
//
// PerformRPC blocks until the destination replies, the transport's own
// response deadline fires, or ctx is done. Implementations enforce their own
// internal deadline; callers that need a harder guarantee wrap the call with
// a longer one.
type Room interface {
	Name() string
	RemoteParticipants() []Participant
	PerformRPC(ctx context.Context, destination, method, payload string) (string, error)
	RegisterRPCHandler(method string, h Handler)
}
