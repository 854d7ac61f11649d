package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// RecordedRequest is a request received by the fake backend.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Backend is a fake administrative API served by httptest.
// Routes are registered with Handle before the client under test calls them.
type Backend struct {
	*httptest.Server
	router chi.Router

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewBackend starts a fake API and stops it when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{router: chi.NewRouter()}
	b.router.Use(b.record)
	b.Server = httptest.NewServer(b.router)
	t.Cleanup(b.Server.Close)
	return b
}

// Handle registers a handler for a chi route pattern, e.g. "/dashboard/arrival/{id}".
func (b *Backend) Handle(method, pattern string, h http.HandlerFunc) {
	b.router.Method(method, pattern, h)
}

// Requests returns every request received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Last returns the most recent request. It fails the test when there is none.
func (b *Backend) Last(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := b.Requests()
	if len(reqs) == 0 {
		t.Fatal("backend received no request")
	}
	return reqs[len(reqs)-1]
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// JSON responds with status and body encoded as JSON. A string body is written raw.
func JSON(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if s, ok := body.(string); ok {
			_, _ = io.WriteString(w, s)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Envelope responds with an API error body carrying messages.
func Envelope(status int, messages ...string) http.HandlerFunc {
	return JSON(status, map[string]any{
		"statusCode": status,
		"message":    messages,
		"error":      http.StatusText(status),
	})
}

// RequireBearer rejects requests without the given bearer token with a 401 envelope.
func RequireBearer(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			Envelope(http.StatusUnauthorized, "Unauthorized")(w, r)
			return
		}
		next(w, r)
	}
}
