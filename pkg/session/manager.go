package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Refresher exchanges a refresh token for a new token pair.
type Refresher func(ctx context.Context, refreshToken string) (domain.TokenPair, error)

// UnauthorizedHandler runs after a session's credentials have been cleared
// because the API rejected them. It is the "back to login" boundary.
type UnauthorizedHandler func(ctx context.Context, sessionID string, cause *domain.RequestError)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates credential access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.CredentialStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker         ports.DistributedLocker // Optional distributed locker
	lockTTL        time.Duration
	logger         *slog.Logger
	refresher      Refresher
	onUnauthorized UnauthorizedHandler
	refreshes      singleflight.Group
	now            func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRefresher lets the guard try one token refresh before clearing a session.
func WithRefresher(r Refresher) Option {
	return func(m *Manager) {
		m.refresher = r
	}
}

// WithUnauthorizedHandler sets the handler run after credentials are cleared.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(m *Manager) {
		m.onUnauthorized = h
	}
}

// NewManager creates a new Session Manager with the given credential store.
func NewManager(store ports.CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetRefresher replaces the refresher after construction. The refresher usually
// calls the store, which in turn needs the manager's guard.
func (m *Manager) SetRefresher(r Refresher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresher = r
}

func (m *Manager) getRefresher() Refresher {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresher
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves the credentials of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (domain.Credentials, error) {
	var creds domain.Credentials
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		creds, err = m.store.Load(ctx, sessionID)
		return err
	})
	return creds, err
}

// Save persists the credentials of a session.
func (m *Manager) Save(ctx context.Context, sessionID string, creds domain.Credentials) error {
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = m.now()
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, creds)
	})
}

// Clear removes the access token, refresh token and role of a session together.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying credential store.
func (m *Manager) Store() ports.CredentialStore {
	return m.store
}

// Token returns the bearer token of a session.
// Returns domain.ErrMissingToken when the session has no credentials.
func (m *Manager) Token(ctx context.Context, sessionID string) (string, error) {
	creds, err := m.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "", domain.ErrMissingToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}
	if !creds.Authenticated() {
		return "", domain.ErrMissingToken
	}
	return creds.AccessToken, nil
}

// Refresh exchanges the session's refresh token for new credentials.
// Concurrent calls for the same session share one refresh.
func (m *Manager) Refresh(ctx context.Context, sessionID string) (domain.Credentials, error) {
	refresher := m.getRefresher()
	if refresher == nil {
		return domain.Credentials{}, errors.New("no refresher configured")
	}

	v, err, shared := m.refreshes.Do(sessionID, func() (any, error) {
		var creds domain.Credentials
		err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
			current, err := m.store.Load(ctx, sessionID)
			if err != nil {
				return err
			}
			if current.RefreshToken == "" {
				return domain.ErrMissingToken
			}

			pair, err := refresher(ctx, current.RefreshToken)
			if err != nil {
				return fmt.Errorf("refresh rejected: %w", err)
			}

			creds = domain.CredentialsFromTokens(pair, m.now())
			if creds.RefreshToken == "" {
				creds.RefreshToken = current.RefreshToken
			}
			if creds.Role == "" {
				creds.Role = current.Role
			}
			return m.store.Save(ctx, sessionID, creds)
		})
		return creds, err
	})
	if err != nil {
		return domain.Credentials{}, err
	}
	m.logger.DebugContext(ctx, "session refreshed", "session_id", sessionID, "shared", shared)
	return v.(domain.Credentials), nil
}

// Guard returns the auth guard bound to a session.
func (m *Manager) Guard(sessionID string) *Guard {
	return &Guard{manager: m, sessionID: sessionID}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
