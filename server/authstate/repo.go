// Package authstate tracks the anti-forgery state value for in-flight login
// attempts. A value is consumed on first lookup, match or not, so a stale
// state can never be replayed against a second callback.
package authstate

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("state not found")
	ErrExpired  = errors.New("state expired")
)

type State struct {
	Value       string
	RedirectURI string
	CreatedAt   time.Time
}

type Repo interface {
	Put(state *State) error
	// Consume removes and returns the state. The removal happens whether or
	// not the state is still valid.
	Consume(value string) (*State, error)
}
