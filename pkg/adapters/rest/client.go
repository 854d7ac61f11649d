package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTracerName = "parkdash/rest"
	defaultTimeout    = 30 * time.Second
	maxBodySize       = 32 << 20

	// RequestIDHeader carries a fresh uuid on every call.
	RequestIDHeader = "X-Request-ID"
)

// Client executes operations against the administrative API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(c *Client) {
		c.tracer = otel.Tracer(name)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
		tracer:     otel.Tracer(defaultTracerName),
		userAgent:  "parkdash",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Execute performs the HTTP call of an operation.
func (c *Client) Execute(ctx context.Context, call domain.Call) (*domain.Reply, error) {
	ctx, span := c.tracer.Start(ctx, call.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("parkdash.operation", call.Operation),
			attribute.String("http.method", call.Endpoint.Method),
			attribute.String("http.route", call.Endpoint.Path),
		),
	)
	defer span.End()

	req, err := c.newRequest(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &domain.RequestError{Kind: domain.KindGeneric, Message: domain.GenericMessage, Operation: call.Operation, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.WarnContext(ctx, "request failed", "operation", call.Operation, "err", err)
		return nil, &domain.RequestError{Kind: domain.KindGeneric, Message: domain.GenericMessage, Operation: call.Operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.DebugContext(ctx, "request completed",
		"operation", call.Operation,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", req.Header.Get(RequestIDHeader),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, &domain.RequestError{Kind: domain.KindGeneric, StatusCode: resp.StatusCode, Message: domain.GenericMessage, Operation: call.Operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := failure(call, resp.StatusCode, body)
		span.SetStatus(codes.Error, rerr.Message)
		return nil, rerr
	}

	return &domain.Reply{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filename(resp.Header.Get("Content-Disposition")),
		Body:        body,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, call domain.Call) (*http.Request, error) {
	ep := call.Endpoint
	if ep.Method == "" || ep.Path == "" {
		return nil, fmt.Errorf("operation %s has no endpoint", call.Operation)
	}

	target := c.baseURL.JoinPath(strings.Split(ep.Path, "/")...)
	if ep.WithID {
		if call.Args.ID == "" {
			return nil, fmt.Errorf("operation %s requires an id", call.Operation)
		}
		target = target.JoinPath(call.Args.ID)
	}
	query, err := EncodeQuery(call.Args.Query)
	if err != nil {
		return nil, err
	}
	target.RawQuery = query

	var body io.Reader
	if call.Args.Body != nil {
		b, err := json.Marshal(call.Args.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.Binary {
		req.Header.Set("Accept", domain.SpreadsheetMIME+", application/octet-stream, application/json")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if call.Args.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Args.Token)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// failure classifies a non-2xx response.
// A 404 always records the operation's not-found message and keeps the envelope
// message as Detail for the toast; every other status
// records the envelope message, or the generic one when the body does not match.
func failure(call domain.Call, status int, body []byte) *domain.RequestError {
	rerr := &domain.RequestError{
		Kind:       domain.KindGeneric,
		StatusCode: status,
		Message:    domain.GenericMessage,
		Operation:  call.Operation,
	}
	msg, ok := Message(body)
	if ok {
		rerr.Message = msg
	}

	switch status {
	case http.StatusNotFound:
		rerr.Kind = domain.KindNotFound
		if call.Endpoint.NotFound != "" {
			if ok {
				rerr.Detail = msg
			}
			rerr.Message = call.Endpoint.NotFound
		}
	case http.StatusUnauthorized:
		rerr.Kind = domain.KindUnauthorized
	}
	if !ok {
		rerr.Err = errors.New("error body does not match envelope " + EnvelopeVersion)
	}
	return rerr
}

func filename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

var _ ports.Executor = (*Client)(nil)
