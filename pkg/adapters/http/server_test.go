package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/notify"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/aretw0/parkdash/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers calls by operation tag and records them.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []domain.Call
	replies map[string]func(domain.Call) (*domain.Reply, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: map[string]func(domain.Call) (*domain.Reply, error){}}
}

func (f *fakeAPI) on(tag string, fn func(domain.Call) (*domain.Reply, error)) {
	f.replies[tag] = fn
}

func (f *fakeAPI) Execute(_ context.Context, call domain.Call) (*domain.Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	fn := f.replies[call.Operation]
	f.mu.Unlock()
	if fn == nil {
		return &domain.Reply{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}
	return fn(call)
}

func (f *fakeAPI) last() domain.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func ok(body string) func(domain.Call) (*domain.Reply, error) {
	return func(domain.Call) (*domain.Reply, error) {
		return &domain.Reply{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(body)}, nil
	}
}

func newGateway(t *testing.T, api ports.Executor, opts ...Option) (*store.Store, http.Handler) {
	t.Helper()
	st := store.New(api)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st, NewHandler(st, append([]Option{WithHeartbeat(0)}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestGetHealth(t *testing.T) {
	_, h := newGateway(t, newFakeAPI())
	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestDispatchOperation_BearerPassThrough(t *testing.T) {
	api := newFakeAPI()
	api.on("arrival/getArrivals", ok(`{"data":[{"id":1,"fullName":"Ada"}],"total":1}`))
	st, h := newGateway(t, api)

	w := do(t, h, http.MethodPost, "/operations/arrival/getArrivals",
		`{"query":{"page":2,"limit":5}}`, "Authorization", "Bearer tok")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	call := api.last()
	assert.Equal(t, "tok", call.Args.Token)
	require.NotNil(t, call.Args.Query)
	assert.Equal(t, 2, call.Args.Query.Page)

	out := decode(t, w)
	assert.Equal(t, "arrival/getArrivals", out["operation"])
	assert.Equal(t, float64(1), out["payload"].(map[string]any)["total"])
	assert.Len(t, st.Arrivals.State().Data.Arrivals.Data, 1)
}

func TestDispatchOperation_ErrorMapping(t *testing.T) {
	api := newFakeAPI()
	api.on("parking/getParkingById", func(c domain.Call) (*domain.Reply, error) {
		return nil, &domain.RequestError{Kind: domain.KindNotFound, StatusCode: 404, Message: c.Endpoint.NotFound}
	})
	api.on("user/getUsers", func(domain.Call) (*domain.Reply, error) {
		return nil, &domain.RequestError{Kind: domain.KindUnauthorized, StatusCode: 401, Message: "Unauthorized"}
	})
	api.on("rfid/getRfids", func(domain.Call) (*domain.Reply, error) {
		return nil, &domain.RequestError{Kind: domain.KindGeneric, StatusCode: 500, Message: "database down"}
	})
	_, h := newGateway(t, api)
	auth := []string{"Authorization", "Bearer tok"}

	w := do(t, h, http.MethodPost, "/operations/parking/getParkingById", `{"id":"9"}`, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "rfid not found", decode(t, w)["message"])

	w = do(t, h, http.MethodPost, "/operations/user/getUsers", "", auth...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/operations/rfid/getRfids", "", auth...)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "database down", decode(t, w)["message"])

	w = do(t, h, http.MethodPost, "/operations/rfid/nope", "", auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/operations/rfid/getRfids", "{not json", auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchOperation_MissingToken(t *testing.T) {
	_, h := newGateway(t, newFakeAPI())
	w := do(t, h, http.MethodPost, "/operations/user/getUsers", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(domain.KindUnauthorized), decode(t, w)["kind"])
}

func TestDispatchOperation_FileDownload(t *testing.T) {
	api := newFakeAPI()
	api.on("vehicle-type/exportVehicleType", func(domain.Call) (*domain.Reply, error) {
		return &domain.Reply{StatusCode: http.StatusOK, ContentType: domain.SpreadsheetMIME, Body: []byte("PK\x03\x04")}, nil
	})
	_, h := newGateway(t, api)

	w := do(t, h, http.MethodPost, "/operations/vehicle-type/exportVehicleType", "", "Authorization", "Bearer tok")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SpreadsheetMIME, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Vehicle Type -")
	assert.Equal(t, "PK\x03\x04", w.Body.String())
}

func TestGetSlice_Redacted(t *testing.T) {
	api := newFakeAPI()
	api.on("auth/login", ok(`{"accessToken":"at-secret","refreshToken":"rt-secret","role":"admin"}`))
	st, h := newGateway(t, api)

	_, err := st.Auth.Login.Run(context.Background(), domain.Args{Body: domain.LoginRequest{Username: "a", Password: "b"}})
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/slices/auth", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "at-secret")
	assert.NotContains(t, w.Body.String(), "rt-secret")

	w = do(t, h, http.MethodGet, "/slices", "")
	require.Equal(t, http.StatusOK, w.Code)
	all := decode(t, w)
	assert.Len(t, all, len(st.Slices()))
	assert.NotContains(t, w.Body.String(), "at-secret")

	w = do(t, h, http.MethodGet, "/slices/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetSlice(t *testing.T) {
	api := newFakeAPI()
	api.on("arrival/getArrivals", ok(`{"data":[{"id":1}],"total":1}`))
	st, h := newGateway(t, api)

	_, err := st.Arrivals.GetArrivals.Run(context.Background(), domain.Args{Token: "tok"})
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/slices/arrival/reset/resetArrivals", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, st.Arrivals.State().Data.Arrivals.Data)

	w = do(t, h, http.MethodPost, "/slices/arrival/reset/resetNothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOptionalRoutes(t *testing.T) {
	toasts := notify.NewRecorder(10)
	toasts.Notify(context.Background(), domain.Toast{Level: domain.ToastError, Message: "boom"})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) })

	_, h := newGateway(t, newFakeAPI(), WithToasts(toasts), WithMetrics(metrics))

	w := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, "# metrics", w.Body.String())

	w = do(t, h, http.MethodGet, "/toasts", "")
	assert.Contains(t, w.Body.String(), "boom")

	_, bare := newGateway(t, newFakeAPI())
	assert.Equal(t, http.StatusNotFound, do(t, bare, http.MethodGet, "/metrics", "").Code)
}

func TestParseWatch(t *testing.T) {
	f, err := parseWatch("")
	require.NoError(t, err)
	assert.Equal(t, watchFilter{status: true, data: true}, f)

	f, err = parseWatch("status")
	require.NoError(t, err)
	assert.Equal(t, watchFilter{status: true}, f)

	_, err = parseWatch("history")
	assert.Error(t, err)
}

// readEvents collects SSE events ("event" line + "data" line) from the stream.
func readEvents(t *testing.T, resp *http.Response, out chan<- [2]string) {
	t.Helper()
	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			out <- [2]string{event, strings.TrimPrefix(line, "data: ")}
		}
	}
	close(out)
}

func TestSubscribeEvents_StatusDiffs(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	api.on("arrival/getArrivals", func(domain.Call) (*domain.Reply, error) {
		<-release
		return &domain.Reply{StatusCode: http.StatusOK, Body: []byte(`{"data":[{"id":1}],"total":1}`)}, nil
	})
	st, h := newGateway(t, api)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?watch=status&slice=arrival", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan [2]string, 16)
	go readEvents(t, resp, events)

	next := func() [2]string {
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for SSE event")
			return [2]string{}
		}
	}

	assert.Equal(t, [2]string{"ping", "connected"}, next())

	// a change on another slice is filtered out
	require.NoError(t, st.Users.Reset(context.Background(), store.ResetAll))

	task := st.Arrivals.GetArrivals.Dispatch(context.Background(), domain.Args{Token: "tok"})

	pending := next()
	assert.Equal(t, "pending", pending[0])
	var msg streamMessage
	require.NoError(t, json.Unmarshal([]byte(pending[1]), &msg))
	assert.Equal(t, "arrival", msg.Diff.Slice)
	assert.Equal(t, true, msg.Diff.Fields["pending"])
	assert.NotContains(t, msg.Diff.Fields, "arrivals")

	close(release)
	_, err = task.Wait(context.Background())
	require.NoError(t, err)

	fulfilled := next()
	assert.Equal(t, "fulfilled", fulfilled[0])
	msg = streamMessage{}
	require.NoError(t, json.Unmarshal([]byte(fulfilled[1]), &msg))
	assert.Equal(t, false, msg.Diff.Fields["pending"])
	assert.NotContains(t, msg.Diff.Fields, "arrivals", "data keys are filtered by watch=status")
}

func TestSubscribeEvents_BadParams(t *testing.T) {
	_, h := newGateway(t, newFakeAPI())
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/events?watch=nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/events?slice=nope", "").Code)
}
