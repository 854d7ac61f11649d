package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/notify"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/aretw0/parkdash/pkg/redact"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBody bounds operation request bodies (imports carry base64 files).
const maxRequestBody = 16 << 20

// Server exposes a Dispatcher as a local JSON and server-sent events gateway.
type Server struct {
	dispatcher ports.Dispatcher
	redactor   *redact.Redactor
	metrics    http.Handler
	toasts     *notify.Recorder
	logger     *slog.Logger
	version    string
	heartbeat  time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithToasts serves the recorded toasts on GET /toasts.
func WithToasts(r *notify.Recorder) Option {
	return func(s *Server) { s.toasts = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRedactor replaces the default redactor.
func WithRedactor(r *redact.Redactor) Option {
	return func(s *Server) {
		if r != nil {
			s.redactor = r
		}
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithHeartbeat sets the interval of SSE keep-alive comments. Zero disables them.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) { s.heartbeat = d }
}

// NewHandler creates the gateway handler for d.
func NewHandler(d ports.Dispatcher, opts ...Option) http.Handler {
	s := &Server{
		dispatcher: d,
		redactor:   redact.Default(),
		logger:     logging.NewNop(),
		version:    "dev",
		heartbeat:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/operations", s.ListOperations)
	r.Post("/operations/{slice}/{operation}", s.DispatchOperation)
	r.Get("/slices", s.ListSlices)
	r.Get("/slices/{name}", s.GetSlice)
	r.Post("/slices/{name}/reset/{action}", s.ResetSlice)
	r.Get("/events", s.SubscribeEvents)
	if s.toasts != nil {
		r.Get("/toasts", s.ListToasts)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorBody mirrors the API error envelope.
type errorBody struct {
	StatusCode int              `json:"statusCode"`
	Message    string           `json:"message"`
	Kind       domain.ErrorKind `json:"kind,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, kind domain.ErrorKind) {
	s.writeJSON(w, status, errorBody{StatusCode: status, Message: msg, Kind: kind})
}

// writeDomainError maps store errors onto gateway status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var rerr *domain.RequestError
	switch {
	case errors.Is(err, domain.ErrUnknownOperation),
		errors.Is(err, domain.ErrUnknownSlice),
		errors.Is(err, domain.ErrUnknownReset):
		s.writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &rerr):
		status := http.StatusBadGateway
		switch rerr.Kind {
		case domain.KindNotFound:
			status = http.StatusNotFound
		case domain.KindUnauthorized:
			status = http.StatusUnauthorized
		}
		s.writeError(w, status, rerr.Message, rerr.Kind)
	default:
		s.logger.Error("gateway request failed", "err", err)
		s.writeError(w, http.StatusServiceUnavailable, err.Error(), "")
	}
}

func (s *Server) redacted(v any) (any, error) {
	return s.redactor.Value(v)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        "parkdash-gateway",
		"version":    s.version,
		"slices":     len(s.dispatcher.Slices()),
		"operations": len(s.dispatcher.Operations()),
	})
}

// ListOperations handles GET /operations.
func (s *Server) ListOperations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dispatcher.Operations())
}

// ListSlices handles GET /slices: every slice state, redacted.
func (s *Server) ListSlices(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]any)
	for _, name := range s.dispatcher.Slices() {
		snap, err := s.dispatcher.Snapshot(name)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		v, err := s.redacted(snap)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		out[name] = v
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetSlice handles GET /slices/{name}.
func (s *Server) GetSlice(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dispatcher.Snapshot(chi.URLParam(r, "name"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	v, err := s.redacted(snap)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// ResetSlice handles POST /slices/{name}/reset/{action}.
func (s *Server) ResetSlice(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.Reset(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "action")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DispatchOperation handles POST /operations/{slice}/{operation}.
// The body is a domain.Args ({"id", "query", "body"}); an Authorization bearer
// token is passed through, otherwise the session guard supplies one.
func (s *Server) DispatchOperation(w http.ResponseWriter, r *http.Request) {
	tag := domain.OperationTag(chi.URLParam(r, "slice"), chi.URLParam(r, "operation"))

	var args domain.Args
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		s.logger.Warn("dispatch: invalid request body", "operation", tag, "err", err)
		return
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		args.Token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}

	payload, err := s.dispatcher.Dispatch(r.Context(), tag, args)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if file, ok := payload.(domain.File); ok {
		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(file.Name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(file.Data)
		return
	}

	v, err := s.redacted(payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"operation": tag, "payload": v})
}

// ListToasts handles GET /toasts.
func (s *Server) ListToasts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.toasts.Toasts())
}
