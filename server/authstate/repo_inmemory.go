package authstate

import (
	"errors"
	"sync"
	"time"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]*State
	ttl    time.Duration
}

// NewInMemoryRepo creates an in-memory auth state repository. States older
// than ttl are rejected and removed on consumption.
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*State),
		ttl:    ttl,
	}
}

// Put stores a state for one login attempt
func (r *InMemoryRepo) Put(state *State) error {
	if state == nil || state.Value == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *state
	r.states[state.Value] = &cp
	return nil
}

// Consume removes the state and returns it if still live
func (r *InMemoryRepo) Consume(value string) (*State, error) {
	if value == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.states[value]
	if !exists {
		return nil, ErrNotFound
	}
	delete(r.states, value)

	if r.ttl > 0 && time.Since(state.CreatedAt) > r.ttl {
		return nil, ErrExpired
	}

	cp := *state
	return &cp, nil
}
