package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parkdash/internal/config"
	"github.com/aretw0/parkdash/internal/testutils"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		BaseURL:      baseURL,
		Session:      "test",
		Timeout:      5 * time.Second,
		LogLevel:     "debug",
		LogFormat:    "text",
		SettlePolicy: "last-dispatched",
		Store:        config.StoreConfig{Backend: config.BackendMemory},
	}
}

func newTestApp(t *testing.T, backend *testutils.Backend, opts ...AppOption) (*App, *bytes.Buffer) {
	t.Helper()
	var stderr bytes.Buffer
	app, err := NewApp(testConfig(backend.URL), append([]AppOption{WithStderr(&stderr)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app, &stderr
}

func loginBackend(t *testing.T) *testutils.Backend {
	t.Helper()
	backend := testutils.NewBackend(t)
	backend.Handle(http.MethodPost, "/auth/login", testutils.JSON(http.StatusOK, map[string]any{
		"accessToken":  "at-1",
		"refreshToken": "rt-1",
		"role":         "operator",
	}))
	return backend
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig("http://localhost:3000")
	cfg.LogLevel = "loud"
	_, err := NewApp(cfg)
	assert.Error(t, err)

	cfg = testConfig("http://localhost:3000")
	cfg.Store.Backend = "tape"
	_, err = NewApp(cfg)
	assert.Error(t, err)
}

func TestLogin_Prompts(t *testing.T) {
	backend := loginBackend(t)
	app, _ := newTestApp(t, backend)

	var out bytes.Buffer
	prompt := NewPrompt(strings.NewReader("admin\nhunter2\n"), &out)

	creds, err := Login(context.Background(), app, prompt, "", "")
	require.NoError(t, err)
	assert.Equal(t, "operator", creds.Role)
	assert.Contains(t, out.String(), "Username: ")
	assert.Contains(t, out.String(), "Password: ")
	assert.JSONEq(t, `{"username":"admin","password":"hunter2"}`, string(backend.Last(t).Body))

	stored, err := app.Credentials.Store.Load(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "at-1", stored.AccessToken)
}

func TestLogin_FlagsSkipPrompt(t *testing.T) {
	app, _ := newTestApp(t, loginBackend(t))

	var out bytes.Buffer
	_, err := Login(context.Background(), app, NewPrompt(strings.NewReader(""), &out), "admin", "pw")
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestLogin_EmptyInput(t *testing.T) {
	app, _ := newTestApp(t, loginBackend(t))

	_, err := Login(context.Background(), app, NewPrompt(strings.NewReader(""), &bytes.Buffer{}), "", "")
	assert.Error(t, err)
}

func TestLoadDashboard(t *testing.T) {
	backend := loginBackend(t)
	backend.Handle(http.MethodGet, "/dashboard/arrival", testutils.RequireBearer("at-1",
		testutils.JSON(http.StatusOK, `{"data":[{"id":1}],"total":1}`)))
	backend.Handle(http.MethodGet, "/dashboard/weekly/report", testutils.RequireBearer("at-1",
		testutils.JSON(http.StatusOK, `{"labels":["Mon"],"series":[4]}`)))
	backend.Handle(http.MethodGet, "/gate", testutils.Envelope(http.StatusInternalServerError, "gate offline"))

	app, stderr := newTestApp(t, backend)
	ctx := context.Background()
	_, err := app.Client.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	tags := []string{"arrival/getArrivals", "parking/getParkings", "log-gate/getLogGate"}
	err = LoadDashboard(ctx, app.Client.Store, tags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log-gate/getLogGate")
	assert.NotContains(t, err.Error(), "arrival")

	statuses := SliceStatuses(app.Client.Store, append(tags, "arrival/getArrivalById"))
	require.Len(t, statuses, 3)
	assert.Equal(t, "arrival", statuses[0].Name)
	assert.False(t, statuses[0].Error)
	assert.True(t, statuses[2].Error)
	assert.Equal(t, "gate offline", statuses[2].Message)

	assert.Equal(t, 1, app.Client.Store.Arrivals.State().Data.Arrivals.Total)
	assert.Contains(t, stderr.String(), "gate offline", "failures toast to stderr")
	assert.Len(t, app.Toasts.Toasts(), 1)
}

func TestLoadDashboard_QuietToasts(t *testing.T) {
	backend := testutils.NewBackend(t)
	backend.Handle(http.MethodGet, "/gate", testutils.Envelope(http.StatusInternalServerError, "gate offline"))

	app, stderr := newTestApp(t, backend, WithQuietToasts())
	require.NoError(t, app.Credentials.Store.Save(context.Background(), "test", domain.Credentials{AccessToken: "at"}))

	assert.Error(t, LoadDashboard(context.Background(), app.Client.Store, []string{"log-gate/getLogGate"}))
	assert.NotContains(t, stderr.String(), "[error] gate offline")
	assert.Len(t, app.Toasts.Toasts(), 1)
}

func TestNewRefresher(t *testing.T) {
	backend := testutils.NewBackend(t)
	backend.Handle(http.MethodGet, "/gate", testutils.JSON(http.StatusOK, `{"data":[],"total":0}`))

	app, _ := newTestApp(t, backend)
	ctx := context.Background()
	require.NoError(t, app.Credentials.Store.Save(ctx, "test", domain.Credentials{AccessToken: "at"}))

	_, err := NewRefresher(ctx, app.Client.Store, "every tuesday", nil, app.Logger)
	assert.Error(t, err)

	c, err := NewRefresher(ctx, app.Client.Store, "@every 1s", []string{"log-gate/getLogGate"}, app.Logger)
	require.NoError(t, err)
	c.Start()
	defer func() { <-c.Stop().Done() }()

	assert.Eventually(t, func() bool { return len(backend.Requests()) > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, "/gate", backend.Last(t).Path)
}

func TestPrompt_Line(t *testing.T) {
	p := NewPrompt(strings.NewReader("  ad\x1bmin \n"+strings.Repeat("x", 5000)+"\n"), &bytes.Buffer{})

	line, err := p.Line("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "admin", line)

	_, err = p.Line("Username: ")
	assert.Error(t, err)
}
