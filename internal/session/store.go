// Package session holds the credentials for the signed-in user. The store is
// the only state shared across concurrent requests; everything else in the
// client is a single round trip with the server as source of truth.
package session

import (
	"strings"
	"sync"
)

type Session struct {
	AccessToken  string
	RefreshToken string
	Role         string
	SessionID    string
}

// Store is a mutex-guarded session holder with role-change subscriptions.
// A zero store is empty and usable.
type Store struct {
	mu        sync.Mutex
	current   Session
	observers []func(role string)
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the whole session, as happens on login. The session id is
// derived from the token when the server encodes it there (mock-token:UUID)
// and no explicit id was supplied.
func (s *Store) Set(sess Session) {
	if sess.SessionID == "" {
		sess.SessionID = sessionIDFromToken(sess.AccessToken)
	}

	s.mu.Lock()
	s.current = sess
	obs := s.snapshot()
	role := sess.Role
	s.mu.Unlock()

	for _, fn := range obs {
		fn(role)
	}
}

// SetTokens swaps the credentials after a refresh without touching role or
// session id. An empty rotated refresh token keeps the existing one.
func (s *Store) SetTokens(access, refresh string) {
	s.mu.Lock()
	s.current.AccessToken = access
	if refresh != "" {
		s.current.RefreshToken = refresh
	}
	s.mu.Unlock()
}

func (s *Store) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.AccessToken
}

func (s *Store) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Role
}

// Clear wipes the session. Clearing an already empty store is a no-op and
// does not notify observers again, so a failed refresh racing a logout
// produces a single logout signal.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.current == (Session{}) {
		s.mu.Unlock()
		return
	}
	s.current = Session{}
	obs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range obs {
		fn("")
	}
}

// Subscribe registers an observer called with the new role on every login,
// role switch and logout. Observers run outside the store lock.
func (s *Store) Subscribe(fn func(role string)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// SwitchRole changes the active role without touching credentials. Used by
// admins viewing the user-facing pages.
func (s *Store) SwitchRole(role string) {
	s.mu.Lock()
	s.current.Role = role
	obs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range obs {
		fn(role)
	}
}

func (s *Store) snapshot() []func(role string) {
	obs := make([]func(string), len(s.observers))
	copy(obs, s.observers)
	return obs
}

func sessionIDFromToken(token string) string {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}
