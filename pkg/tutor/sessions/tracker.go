// Package sessions tracks live tutoring sessions for coordinated shutdown.
// Each websocket session registers a handle on accept; shutdown warns every
// client, cancels the sessions, and waits for the handlers to drain.
package sessions

import (
	"context"
	"sync"
)

// Handle is what the tracker can do to one live session. Warn sends a
// non-fatal notice frame to the frontend; Cancel tears the session down.
type Handle struct {
	Identity string
	Cancel   func()
	Warn     func(code, message string) error
}

type Tracker struct {
	mu     sync.Mutex
	active map[string]*tracked
	wg     sync.WaitGroup
}

type tracked struct {
	handle Handle
	once   sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]*tracked)}
}

// Register adds the session for room. A session already registered under the
// same room is evicted first; each room has at most one frontend client.
// The returned func unregisters and is safe to call more than once.
func (t *Tracker) Register(room string, h Handle) (unregister func()) {
	if t == nil {
		return func() {}
	}

	entry := &tracked{handle: h}

	t.mu.Lock()
	if t.active == nil {
		t.active = make(map[string]*tracked)
	}
	prev := t.active[room]
	t.active[room] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if prev != nil {
		if prev.handle.Cancel != nil {
			prev.handle.Cancel()
		}
		t.unregister(room, prev)
	}

	return func() { t.unregister(room, entry) }
}

func (t *Tracker) unregister(room string, entry *tracked) {
	if t == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		t.mu.Lock()
		if t.active != nil && t.active[room] == entry {
			delete(t.active, room)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Rooms returns the names of rooms with a live session, in no fixed order.
func (t *Tracker) Rooms() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rooms := make([]string, 0, len(t.active))
	for room := range t.active {
		rooms = append(rooms, room)
	}
	return rooms
}

// WarnAll notifies every live session. Warn failures are ignored; a client
// that cannot receive the notice is about to be cancelled anyway.
func (t *Tracker) WarnAll(code, message string) (sent int) {
	if t == nil {
		return 0
	}

	var warns []func(code, message string) error
	t.mu.Lock()
	for _, entry := range t.active {
		if entry == nil || entry.handle.Warn == nil {
			continue
		}
		warns = append(warns, entry.handle.Warn)
	}
	t.mu.Unlock()

	for _, warn := range warns {
		_ = warn(code, message)
		sent++
	}
	return sent
}

func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, entry := range t.active {
		if entry == nil || entry.handle.Cancel == nil {
			continue
		}
		cancels = append(cancels, entry.handle.Cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every registered session has unregistered, or until ctx
// expires. Returns false on expiry.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
