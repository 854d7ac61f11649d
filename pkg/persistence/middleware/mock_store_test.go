package middleware_test

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/parkdash/pkg/adapters/memory"
	"github.com/aretw0/parkdash/pkg/domain"
)

// countingStore is a memory store that records how many writes reached it.
type countingStore struct {
	*memory.Store
	saves atomic.Int32
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.NewStore()}
}

func (s *countingStore) Save(ctx context.Context, sessionID string, creds domain.Credentials) error {
	s.saves.Add(1)
	return s.Store.Save(ctx, sessionID, creds)
}
