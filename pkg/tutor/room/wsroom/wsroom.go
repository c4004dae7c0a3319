// Package wsroom implements room.Room over a single websocket connection to
// the frontend. One connection is one remote participant; RPC requests and
// responses are correlated by frame id.
package wsroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/protocol"
	"github.com/nuurhaqimah/avatar-backend/pkg/tutor/room"
)

// ErrResponseTimeout is the transport's own per-RPC deadline firing. Callers
// that wrap PerformRPC with a longer deadline will normally never see it.
var ErrResponseTimeout = errors.New("wsroom: rpc response timeout")

var errOutboundFull = errors.New("wsroom: outbound queue full")

const defaultOutboundQueueSize = 32

// Conn is the subset of *websocket.Conn the room uses. Tests substitute an
// in-memory implementation.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Config struct {
	// ResponseTimeout bounds how long PerformRPC waits for the peer's
	// rpc_response. Must stay below any caller-side deadline.
	ResponseTimeout time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	QueueSize       int
}

type Dependencies struct {
	Conn     Conn
	Logger   *slog.Logger
	Name     string
	Identity string
	Config   Config
}

type Room struct {
	conn     Conn
	logger   *slog.Logger
	name     string
	identity string
	cfg      Config

	ctx    context.Context
	cancel context.CancelFunc

	outbound chan []byte

	handlersMu sync.Mutex
	handlers   map[string]room.Handler

	waitersMu sync.Mutex
	waiters   map[string]chan protocol.RPCResponse

	requestCounter atomic.Int64
	connected      atomic.Bool
}

func New(deps Dependencies) *Room {
	cfg := deps.Config
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultOutboundQueueSize
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		conn:     deps.Conn,
		logger:   logger,
		name:     deps.Name,
		identity: deps.Identity,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		outbound: make(chan []byte, cfg.QueueSize),
		handlers: make(map[string]room.Handler),
		waiters:  make(map[string]chan protocol.RPCResponse),
	}
	r.connected.Store(true)
	return r
}

func (r *Room) Name() string { return r.name }

// RemoteParticipants reports the single connected peer, or nothing once the
// connection is gone.
func (r *Room) RemoteParticipants() []room.Participant {
	if r == nil || !r.connected.Load() {
		return nil
	}
	return []room.Participant{{Identity: r.identity}}
}

func (r *Room) RegisterRPCHandler(method string, h room.Handler) {
	if r == nil || h == nil {
		return
	}
	r.handlersMu.Lock()
	r.handlers[method] = h
	r.handlersMu.Unlock()
}

// PerformRPC sends one rpc_request to the peer and waits for the matching
// rpc_response. destination must be the connected participant's identity.
func (r *Room) PerformRPC(ctx context.Context, destination, method, payload string) (string, error) {
	if r == nil || !r.connected.Load() {
		return "", room.ErrClosed
	}
	if destination != r.identity {
		return "", fmt.Errorf("%w: %q", room.ErrNoParticipant, destination)
	}

	id := fmt.Sprintf("r_%d", r.requestCounter.Add(1))
	waiter := r.registerWaiter(id)
	defer r.unregisterWaiter(id)

	frame, err := json.Marshal(protocol.RPCRequest{
		Type:    "rpc_request",
		ID:      id,
		Method:  method,
		Payload: payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode rpc_request: %w", err)
	}
	if err := r.enqueue(frame); err != nil {
		return "", err
	}

	timer := time.NewTimer(r.cfg.ResponseTimeout)
	defer timer.Stop()

	select {
	case resp := <-waiter:
		if strings.TrimSpace(resp.Error) != "" {
			return "", fmt.Errorf("wsroom: rpc %s failed: %s", method, resp.Error)
		}
		return resp.Payload, nil
	case <-timer.C:
		return "", ErrResponseTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	case <-r.ctx.Done():
		return "", room.ErrClosed
	}
}

// SendAssistantText pushes a spoken-acknowledgement text frame to the client.
func (r *Room) SendAssistantText(text string) error {
	frame, err := json.Marshal(protocol.AssistantText{Type: "assistant_text", Text: text})
	if err != nil {
		return err
	}
	return r.enqueue(frame)
}

// SendWarning delivers a best-effort warning frame (used while draining).
func (r *Room) SendWarning(code, message string) error {
	frame, err := json.Marshal(protocol.ServerWarning{Type: "warning", Code: code, Message: message})
	if err != nil {
		return err
	}
	return r.enqueue(frame)
}

// Close tears the room down and unblocks every in-flight PerformRPC.
func (r *Room) Close() {
	if r == nil {
		return
	}
	r.connected.Store(false)
	r.cancel()
}

// Run drives the writer and reader until the connection ends. It returns the
// read error that ended the session, or nil on an orderly close.
func (r *Room) Run() error {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		r.writeLoop()
	}()

	err := r.readLoop()
	r.Close()
	<-writerDone
	return err
}

func (r *Room) enqueue(frame []byte) error {
	select {
	case <-r.ctx.Done():
		return room.ErrClosed
	default:
	}
	select {
	case r.outbound <- frame:
		return nil
	default:
		return errOutboundFull
	}
}

func (r *Room) writeLoop() {
	pingTicker := time.NewTicker(r.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			deadline := time.Now().Add(r.cfg.WriteTimeout)
			_ = r.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = r.conn.Close()
			return
		case <-pingTicker.C:
			deadline := time.Now().Add(r.cfg.WriteTimeout)
			if err := r.conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				r.Close()
				return
			}
		case frame := <-r.outbound:
			_ = r.conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout))
			if err := r.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				r.Close()
				return
			}
		}
	}
}

func (r *Room) readLoop() error {
	for {
		messageType, data, err := r.conn.ReadMessage()
		if err != nil {
			if r.ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}

		decoded, err := protocol.DecodeClientFrame(data)
		if err != nil {
			r.logger.Warn("dropping malformed frame", "room", r.name, "error", err)
			continue
		}

		switch msg := decoded.(type) {
		case protocol.RPCResponse:
			r.dispatchResponse(msg)
		case protocol.RPCRequest:
			go r.handleInbound(msg)
		default:
			r.logger.Warn("unexpected frame after handshake", "room", r.name, "frame", fmt.Sprintf("%T", decoded))
		}
	}
}

func (r *Room) registerWaiter(id string) chan protocol.RPCResponse {
	ch := make(chan protocol.RPCResponse, 1)
	r.waitersMu.Lock()
	r.waiters[id] = ch
	r.waitersMu.Unlock()
	return ch
}

func (r *Room) unregisterWaiter(id string) {
	r.waitersMu.Lock()
	delete(r.waiters, id)
	r.waitersMu.Unlock()
}

// dispatchResponse hands a response to its waiter. Late or unknown ids are
// dropped; at most one response is delivered per request.
func (r *Room) dispatchResponse(resp protocol.RPCResponse) {
	r.waitersMu.Lock()
	ch, ok := r.waiters[resp.ID]
	r.waitersMu.Unlock()
	if !ok {
		r.logger.Warn("rpc response without waiter", "room", r.name, "rpc_id", resp.ID)
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

func (r *Room) handleInbound(req protocol.RPCRequest) {
	r.handlersMu.Lock()
	h := r.handlers[req.Method]
	r.handlersMu.Unlock()

	resp := protocol.RPCResponse{Type: "rpc_response", ID: req.ID}
	if h == nil {
		resp.Error = fmt.Sprintf("unknown rpc method %q", req.Method)
	} else {
		reply, err := r.invoke(h, req.Payload)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Payload = reply
		}
	}

	frame, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("encode rpc_response", "room", r.name, "error", err)
		return
	}
	if err := r.enqueue(frame); err != nil {
		r.logger.Warn("dropping rpc_response", "room", r.name, "rpc_id", req.ID, "error", err)
	}
}

// invoke shields the read side from handler panics; the RPC boundary only
// ever sees a reply or an error string.
func (r *Room) invoke(h room.Handler, payload string) (reply string, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("rpc handler panic", "room", r.name, "panic", v)
			err = fmt.Errorf("handler panic: %v", v)
		}
	}()
	return h(r.ctx, payload)
}
