package observability_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	pending := &domain.Event{Type: domain.EventPending, Slice: "arrival", Operation: "getArrivals", Generation: 1}
	hooks.OnDispatch(ctx, pending)
	hooks.OnDispatch(ctx, &domain.Event{Type: domain.EventPending, Slice: "arrival", Operation: "getArrivals", Generation: 2})

	hooks.OnDiscard(ctx, &domain.Event{Type: domain.EventFulfilled, Slice: "arrival", Operation: "getArrivals", Generation: 1})
	hooks.OnSettle(ctx, &domain.Event{
		Type:      domain.EventRejected,
		Slice:     "arrival",
		Operation: "getArrivals",
		Err:       &domain.RequestError{Kind: domain.KindNotFound, StatusCode: 404, Message: "rfid not found"},
	}, 20*time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "parkdash_operations_dispatched_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP parkdash_operations_settled_total Total number of operations applied to their slice, by outcome.
# TYPE parkdash_operations_settled_total counter
parkdash_operations_settled_total{kind="not_found",operation="getArrivals",slice="arrival",status="rejected"} 1
# HELP parkdash_operations_discarded_total Total number of stale settlements dropped by the settle policy.
# TYPE parkdash_operations_discarded_total counter
parkdash_operations_discarded_total{operation="getArrivals",slice="arrival"} 1
# HELP parkdash_operations_inflight Operations dispatched and not yet settled.
# TYPE parkdash_operations_inflight gauge
parkdash_operations_inflight{slice="arrival"} 0
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"parkdash_operations_settled_total",
		"parkdash_operations_discarded_total",
		"parkdash_operations_inflight",
	))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics(observability.WithNamespace("test"))
	m.Hooks().OnDispatch(context.Background(), &domain.Event{Slice: "user", Operation: "getUsers"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `test_operations_dispatched_total{operation="getUsers",slice="user"} 1`)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.OnSettle(ctx, &domain.Event{Type: domain.EventFulfilled, Slice: "user", Operation: "getUsers", Generation: 3}, time.Millisecond)
	hooks.OnSettle(ctx, &domain.Event{
		Type: domain.EventRejected, Slice: "user", Operation: "getUser",
		Err: &domain.RequestError{Kind: domain.KindGeneric, StatusCode: 500, Message: "boom"},
	}, time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "operation fulfilled")
	assert.Contains(t, out, "generation=3")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "err=boom")
}
