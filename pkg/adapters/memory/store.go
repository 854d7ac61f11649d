package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Store keeps credentials in a process-local map. It is the default backend
// for one-shot CLI runs and tests; nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Credentials
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]domain.Credentials)}
}

func (s *Store) Save(_ context.Context, sessionID string, creds domain.Credentials) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sessionID] = creds
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(_ context.Context, sessionID string) (domain.Credentials, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return domain.Credentials{}, err
	}
	s.mu.RLock()
	creds, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.Credentials{}, domain.ErrSessionNotFound
	}
	return creds, nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the session ids in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.sessions)), nil
}
