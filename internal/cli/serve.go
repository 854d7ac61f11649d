package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parkdash"
	httpAdapter "github.com/aretw0/parkdash/pkg/adapters/http"
	"github.com/aretw0/parkdash/pkg/adapters/mcp"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/robfig/cron/v3"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct{ logger *slog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}

// NewRefresher schedules a dashboard load of tags on schedule. Runs never overlap:
// a tick that fires while the previous load is still running is skipped.
func NewRefresher(ctx context.Context, d ports.Dispatcher, schedule string, tags []string, logger *slog.Logger) (*cron.Cron, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err := c.AddFunc(schedule, func() {
		if err := LoadDashboard(ctx, d, tags); err != nil {
			logger.Warn("Dashboard refresh failed", "err", err)
			return
		}
		logger.Debug("Dashboard refreshed", "operations", len(tags))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return c, nil
}

// Serve runs the HTTP gateway on addr until ctx is done. When the
// configuration has a refresh schedule, the dashboard operations reload on it.
func Serve(ctx context.Context, app *App, addr string) error {
	cfg := app.Config.Serve
	if addr == "" {
		addr = cfg.Addr
	}

	handler := httpAdapter.NewHandler(app.Client.Store,
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithMetrics(app.Metrics.Handler()),
		httpAdapter.WithToasts(app.Toasts),
		httpAdapter.WithVersion(strings.TrimSpace(parkdash.Version)),
	)

	if cfg.Refresh != "" && len(cfg.Operations) > 0 {
		refresher, err := NewRefresher(ctx, app.Client.Store, cfg.Refresh, cfg.Operations, app.Logger)
		if err != nil {
			return err
		}
		refresher.Start()
		defer func() { <-refresher.Stop().Done() }()
		app.Logger.Info("Dashboard refresh scheduled", "schedule", cfg.Refresh, "operations", cfg.Operations)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting parkdash gateway", "address", addr, "base_url", app.Config.BaseURL)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("Start shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		app.Logger.Info("parkdash gateway stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server over stdio or SSE until ctx is done.
func ServeMCP(ctx context.Context, app *App, transport, addr string) error {
	srv := mcp.NewServer(app.Client.Store, parkdash.Version, mcp.WithLogger(app.Logger))

	switch transport {
	case "stdio":
		app.Logger.Info("Starting parkdash MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		app.Logger.Info("Starting parkdash MCP server (SSE)", "address", addr)
		return srv.ServeSSE(ctx, addr, "http://"+addr)
	default:
		return fmt.Errorf("unknown transport %q (stdio, sse)", transport)
	}
}
