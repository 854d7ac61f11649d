package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/parkdash"
	"github.com/aretw0/parkdash/internal/config"
	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/adapters/rest"
	"github.com/aretw0/parkdash/pkg/notify"
	"github.com/aretw0/parkdash/pkg/observability"
	"github.com/aretw0/parkdash/pkg/ports"
)

// toastHistory is how many toasts the gateway keeps for GET /toasts.
const toastHistory = 50

// App is what every command needs, built once from the merged configuration.
type App struct {
	Config      config.Config
	Logger      *slog.Logger
	Client      *parkdash.Client
	Credentials *Credentials
	Metrics     *observability.Metrics
	Toasts      *notify.Recorder
}

type appOptions struct {
	stderr   io.Writer
	executor ports.Executor
	quiet    bool
}

// AppOption configures NewApp.
type AppOption func(*appOptions)

// WithStderr sets where logs and toasts are written. Default: os.Stderr.
func WithStderr(w io.Writer) AppOption {
	return func(o *appOptions) { o.stderr = w }
}

// WithExecutor replaces the REST client.
func WithExecutor(e ports.Executor) AppOption {
	return func(o *appOptions) { o.executor = e }
}

// WithQuietToasts keeps toasts out of stderr. They are still recorded and logged.
func WithQuietToasts() AppOption {
	return func(o *appOptions) { o.quiet = true }
}

// NewApp opens the credential store and creates the client for cfg.Session.
func NewApp(cfg config.Config, opts ...AppOption) (*App, error) {
	o := appOptions{stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat, o.stderr)
	if err != nil {
		return nil, err
	}

	creds, err := OpenCredentials(cfg.Store)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	toasts := notify.NewRecorder(toastHistory)
	notifiers := []ports.Notifier{toasts, notify.Logger(logger)}
	if !o.quiet {
		notifiers = append(notifiers, notify.NewWriter(o.stderr))
	}

	clientOpts := []parkdash.Option{
		parkdash.WithSession(cfg.Session),
		parkdash.WithCredentialStore(creds.Store),
		parkdash.WithLogger(logger),
		parkdash.WithNotifier(notify.Multi(notifiers...)),
		parkdash.WithSettlePolicy(cfg.Policy()),
		parkdash.WithMetrics(metrics),
		parkdash.WithRESTOptions(
			rest.WithTimeout(cfg.Timeout),
			rest.WithUserAgent("parkdash/"+strings.TrimSpace(parkdash.Version)),
		),
	}
	if creds.Locker != nil {
		clientOpts = append(clientOpts,
			parkdash.WithLocker(creds.Locker),
			parkdash.WithLockTTL(cfg.Store.Redis.LockTTL),
		)
	}
	if o.executor != nil {
		clientOpts = append(clientOpts, parkdash.WithExecutor(o.executor))
	}

	client, err := parkdash.New(cfg.BaseURL, clientOpts...)
	if err != nil {
		_ = creds.Close()
		return nil, fmt.Errorf("error initializing client: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Client:      client,
		Credentials: creds,
		Metrics:     metrics,
		Toasts:      toasts,
	}, nil
}

// Close waits for in-flight operations and releases the credential store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Client.Close(ctx), a.Credentials.Close())
}

// NewLogger creates the application logger. Format is "text" or "json".
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return logging.NewJSONWithWriter(w, lvl), nil
	}
	return logging.NewWithWriter(w, lvl), nil
}
