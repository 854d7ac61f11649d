package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/aretw0/parkdash/pkg/redact"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ResourceScheme prefixes slice resources: parkdash://slices/<name>.
const ResourceScheme = "parkdash://slices/"

// DispatchResponse is the structured result of the dispatch tool.
type DispatchResponse struct {
	Operation string `json:"operation" jsonschema_description:"The dispatched operation tag"`
	Payload   any    `json:"payload" jsonschema_description:"The operation result, with secrets masked"`
	State     any    `json:"state" jsonschema_description:"The slice state after the operation settled"`
}

// Server exposes a Dispatcher as an MCP server.
type Server struct {
	dispatcher ports.Dispatcher
	redactor   *redact.Redactor
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. Stdout carries the protocol, so it must not write there.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(d ports.Dispatcher, version string, opts ...Option) *Server {
	s := &Server{
		dispatcher: d,
		redactor:   redact.Default(),
		logger:     logging.NewNop(),
		mcpServer:  server.NewMCPServer("parkdash-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_operations",
		mcp.WithDescription("List every operation that can be dispatched, with its slice and HTTP endpoint."),
	), s.handleListOperations)

	s.mcpServer.AddTool(mcp.NewTool("get_slice",
		mcp.WithDescription("Read the current state of a slice. Tokens and passwords are masked."),
		mcp.WithString("slice", mcp.Required(), mcp.Description("Slice name, e.g. arrival")),
	), s.handleGetSlice)

	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatch an operation and wait for it to settle. The session credentials authenticate the call."),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation tag <slice>/<operation>, e.g. arrival/getArrivals")),
		mcp.WithString("id", mcp.Description("Resource id for by-id, update and delete operations")),
		mcp.WithString("query", mcp.Description(`JSON object: {"page":1,"limit":10,"search":"...","sort":{"field":"name","order":"ASC"}}`)),
		mcp.WithString("body", mcp.Description("JSON request body for create, update and import operations")),
		mcp.WithOutputSchema[DispatchResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Apply a reset action to a slice. Every slice understands \"reset\"."),
		mcp.WithString("slice", mcp.Required(), mcp.Description("Slice name")),
		mcp.WithString("action", mcp.Description("Reset action, default \"reset\"")),
	), s.handleReset)
}

func (s *Server) jsonResult(v any) (*mcp.CallToolResult, error) {
	masked, err := s.redactor.Value(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(masked)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListOperations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.jsonResult(s.dispatcher.Operations())
}

func (s *Server) handleGetSlice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("slice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.dispatcher.Snapshot(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(snap)
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, params map[string]any) (DispatchResponse, error) {
	tag, _ := params["operation"].(string)
	if tag == "" {
		return DispatchResponse{}, errors.New("operation is required")
	}

	args := domain.Args{}
	args.ID, _ = params["id"].(string)
	if raw, _ := params["query"].(string); raw != "" {
		var q domain.Query
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return DispatchResponse{}, fmt.Errorf("invalid query: %w", err)
		}
		args.Query = &q
	}
	if raw, _ := params["body"].(string); raw != "" {
		if !json.Valid([]byte(raw)) {
			return DispatchResponse{}, errors.New("invalid body: not JSON")
		}
		args.Body = json.RawMessage(raw)
	}

	payload, err := s.dispatcher.Dispatch(ctx, tag, args)
	if err != nil {
		s.logger.WarnContext(ctx, "MCP dispatch failed", "operation", tag, "err", err)
		return DispatchResponse{}, fmt.Errorf("dispatch %s failed: %w", tag, err)
	}

	if file, ok := payload.(domain.File); ok {
		payload = map[string]any{"name": file.Name, "content_type": file.ContentType, "size": len(file.Data)}
	}
	resp := DispatchResponse{Operation: tag}
	if resp.Payload, err = s.redactor.Value(payload); err != nil {
		return DispatchResponse{}, err
	}
	if slice, _, ok := strings.Cut(tag, "/"); ok {
		if snap, err := s.dispatcher.Snapshot(slice); err == nil {
			resp.State, _ = s.redactor.Value(snap)
		}
	}
	return resp, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("slice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action := request.GetString("action", "reset")
	if err := s.dispatcher.Reset(ctx, name, action); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.dispatcher.Snapshot(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(snap)
}

func (s *Server) registerResources() {
	for _, name := range s.dispatcher.Slices() {
		uri := ResourceScheme + name
		s.mcpServer.AddResource(mcp.NewResource(uri, "Slice "+name,
			mcp.WithMIMEType("application/json"),
		), s.readSlice)
	}
}

func (s *Server) readSlice(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	text, err := s.sliceJSON(strings.TrimPrefix(uri, ResourceScheme))
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func (s *Server) sliceJSON(name string) (string, error) {
	snap, err := s.dispatcher.Snapshot(name)
	if err != nil {
		return "", err
	}
	masked, err := s.redactor.Value(snap)
	if err != nil {
		return "", err
	}
	jsonBytes, err := json.Marshal(masked)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}
