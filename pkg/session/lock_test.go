package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/parkdash/pkg/adapters/memory"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockCount(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func TestManager_LocksReleasedAfterUse(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(memory.NewStore())

	for i := range 500 {
		sid := fmt.Sprintf("kiosk-%d", i)
		require.NoError(t, mgr.Save(ctx, sid, domain.Credentials{AccessToken: "a"}))
		_, err := mgr.Load(ctx, sid)
		require.NoError(t, err)
		require.NoError(t, mgr.Clear(ctx, sid))
	}

	assert.Zero(t, lockCount(mgr))
}

func TestManager_SharedSessionConcurrentUse(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mgr := NewManager(store)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				_ = mgr.Save(ctx, "ops", domain.Credentials{AccessToken: fmt.Sprintf("%d-%d", i, j)})
				_, _ = mgr.Load(ctx, "ops")
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, lockCount(mgr))
	creds, err := store.Load(ctx, "ops")
	require.NoError(t, err)
	assert.True(t, creds.Authenticated())
}

func TestManager_InvalidSessionIDReleasesLock(t *testing.T) {
	mgr := NewManager(memory.NewStore())

	err := mgr.Save(context.Background(), "../etc", domain.Credentials{AccessToken: "a"})
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
	assert.Zero(t, lockCount(mgr))
}
