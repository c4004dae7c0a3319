// Package state holds the mutable per-session facts and UI components for one
// live tutoring session. A Store is exclusively owned by its session; the
// mutex exists because inbound RPC callbacks may toggle a component while a
// tool call is in flight on another goroutine.
package state

import (
	"sync"

	"github.com/google/uuid"
)

// UserProfile is a value, not an entity: every read mints a fresh ID, so IDs
// are never stable across calls and must not be compared.
type UserProfile struct {
	ID   string
	Name string
	Age  int
}

// Component is a displayable content block tracked by the backend. ID and
// Content are immutable after creation; IsShowed flips only via Toggle.
type Component struct {
	ID       string
	Content  string
	IsShowed bool
}

type Store struct {
	mu         sync.Mutex
	name       string
	age        int
	hasAge     bool
	components []Component
}

func NewStore() *Store {
	return &Store{}
}

// SetUserInfo overwrites the profile unconditionally. Age is not range
// checked; extraction is trusted to the conversation engine.
func (s *Store) SetUserInfo(name string, age int) UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.age = age
	s.hasAge = true
	return UserProfile{ID: uuid.NewString(), Name: name, Age: age}
}

// UserInfo returns the profile only when both name and age have been set.
// Partial profiles are treated as unknown.
func (s *Store) UserInfo() (UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name == "" || !s.hasAge {
		return UserProfile{}, false
	}
	return UserProfile{ID: uuid.NewString(), Name: s.name, Age: s.age}, true
}

// AddComponent appends a new hidden component and returns it together with
// its 0-based position in display order.
func (s *Store) AddComponent(content string) (Component, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Component{ID: uuid.NewString(), Content: content}
	s.components = append(s.components, c)
	return c, len(s.components) - 1
}

func (s *Store) Component(id string) (Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// ToggleComponent flips IsShowed and returns the post-toggle component.
// An unknown id is a not-found signal, never an error.
func (s *Store) ToggleComponent(id string) (Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.components {
		if s.components[i].ID == id {
			s.components[i].IsShowed = !s.components[i].IsShowed
			return s.components[i], true
		}
	}
	return Component{}, false
}

func (s *Store) ComponentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.components)
}
