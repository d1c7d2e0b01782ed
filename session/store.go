package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken is returned by Store.Token when no session is active.
var ErrNoToken = errors.New("session: no token")

// Store holds the current session token.
type Store interface {
	// Token returns the current token or ErrNoToken.
	Token(ctx context.Context) (string, error)
	// SetToken replaces the current token.
	SetToken(ctx context.Context, token string) error
	// Clear removes the current token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore is a Store backed by process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates a MemoryStore holding token (may be empty).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Token implements Store.
func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// SetToken implements Store.
func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
