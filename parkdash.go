package parkdash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/adapters/memory"
	"github.com/aretw0/parkdash/pkg/adapters/rest"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/notify"
	"github.com/aretw0/parkdash/pkg/observability"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/aretw0/parkdash/pkg/session"
	"github.com/aretw0/parkdash/pkg/store"
)

// DefaultSession is the session used when none is configured.
const DefaultSession = "default"

// Client wires the REST executor, the session manager and the store for one
// session. It is the high-level entry point of the library.
type Client struct {
	Store    *store.Store
	Sessions *session.Manager

	sessionID string
	executor  ports.Executor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

type options struct {
	sessionID      string
	credentials    ports.CredentialStore
	locker         ports.DistributedLocker
	lockTTL        time.Duration
	notifier       ports.Notifier
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	policy         store.SettlePolicy
	metrics        *observability.Metrics
	executor       ports.Executor
	restOpts       []rest.Option
	onUnauthorized session.UnauthorizedHandler
}

// Option defines a functional option for configuring the Client.
type Option func(*options)

// WithSession selects the session whose credentials guard every operation.
func WithSession(id string) Option {
	return func(o *options) {
		if id != "" {
			o.sessionID = id
		}
	}
}

// WithCredentialStore sets where credentials persist. Default: in memory.
func WithCredentialStore(s ports.CredentialStore) Option {
	return func(o *options) { o.credentials = s }
}

// WithLocker serialises refreshes across processes sharing the credential store.
func WithLocker(l ports.DistributedLocker) Option {
	return func(o *options) { o.locker = l }
}

// WithLockTTL bounds how long a refresh may hold the distributed lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) { o.lockTTL = ttl }
}

// WithNotifier sets where failure toasts go. Default: the logger.
func WithNotifier(n ports.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) { o.hooks = hooks }
}

// WithSettlePolicy sets how overlapping dispatches resolve.
func WithSettlePolicy(p store.SettlePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithMetrics records store metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithExecutor replaces the REST client, e.g. with a fake in tests.
func WithExecutor(e ports.Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithRESTOptions passes options to the REST client.
func WithRESTOptions(opts ...rest.Option) Option {
	return func(o *options) { o.restOpts = append(o.restOpts, opts...) }
}

// WithUnauthorizedHandler runs after a rejected session has been cleared.
func WithUnauthorizedHandler(h session.UnauthorizedHandler) Option {
	return func(o *options) { o.onUnauthorized = h }
}

// New initializes a Client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	o := options{
		sessionID: DefaultSession,
		policy:    store.LastDispatchedWins,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.credentials == nil {
		o.credentials = memory.NewStore()
	}

	executor := o.executor
	if executor == nil {
		restOpts := append([]rest.Option{rest.WithLogger(o.logger)}, o.restOpts...)
		rc, err := rest.New(baseURL, restOpts...)
		if err != nil {
			return nil, err
		}
		executor = rc
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notify.Logger(o.logger)
	}

	logger := o.logger.With("session_id", o.sessionID)

	mgrOpts := []session.Option{
		session.WithLogger(logger),
		session.WithUnauthorizedHandler(o.onUnauthorized),
	}
	if o.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(o.locker))
	}
	if o.lockTTL > 0 {
		mgrOpts = append(mgrOpts, session.WithLockTTL(o.lockTTL))
	}
	mgr := session.NewManager(o.credentials, mgrOpts...)

	hooks := []domain.LifecycleHooks{observability.LogHooks(logger), o.hooks}
	if o.metrics != nil {
		hooks = append(hooks, o.metrics.Hooks())
	}

	st := store.New(executor,
		store.WithGuard(mgr.Guard(o.sessionID)),
		store.WithNotifier(notifier),
		store.WithLogger(logger),
		store.WithLifecycleHooks(domain.ComposeHooks(hooks...)),
		store.WithSettlePolicy(o.policy),
	)
	mgr.SetRefresher(func(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
		return st.Auth.WebRefresh.Run(ctx, domain.Args{Token: refreshToken})
	})

	return &Client{
		Store:     st,
		Sessions:  mgr,
		sessionID: o.sessionID,
		executor:  executor,
		logger:    logger,
		metrics:   o.metrics,
	}, nil
}

// SessionID returns the session guarding the store.
func (c *Client) SessionID() string { return c.sessionID }

// Metrics returns the metrics passed with WithMetrics, or nil.
func (c *Client) Metrics() *observability.Metrics { return c.metrics }

// Login authenticates and persists the issued tokens for the client's session.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Credentials, error) {
	if username == "" || password == "" {
		return domain.Credentials{}, errors.New("username and password are required")
	}
	pair, err := c.Store.Auth.Login.Run(ctx, domain.Args{
		Body: domain.LoginRequest{Username: username, Password: password},
	})
	if err != nil {
		return domain.Credentials{}, err
	}
	if pair.AccessToken == "" {
		return domain.Credentials{}, fmt.Errorf("login response carried no access token: %w", domain.ErrRequestFailed)
	}

	creds := domain.CredentialsFromTokens(pair, time.Now())
	if err := c.Sessions.Save(ctx, c.sessionID, creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to persist credentials: %w", err)
	}
	c.logger.InfoContext(ctx, "logged in", "role", creds.Role)
	return creds, nil
}

// Logout forgets the session's credentials and resets the auth slice.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Sessions.Clear(ctx, c.sessionID); err != nil {
		return err
	}
	return c.Store.Auth.Reset(ctx, store.ResetAll)
}

// Refresh exchanges the stored refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) (domain.Credentials, error) {
	return c.Sessions.Refresh(ctx, c.sessionID)
}

// Close waits for in-flight operations and releases the store.
func (c *Client) Close(ctx context.Context) error {
	return c.Store.Close(ctx)
}
