package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises token refreshes of one session across every
// parkdash process that shares the credential store.
//
// Lock waits until key is free or ctx is done. A holder that never unlocks
// loses the lock after ttl.
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
