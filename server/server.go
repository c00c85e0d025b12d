package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/petal-labs/dumpling-mcp/tool"
)

const (
	// DefaultName is the implementation name announced to MCP clients.
	DefaultName = "dumpling-mcp"

	defaultMaxBody = 4 << 20
)

// ServerConfig configures a Server instance.
type ServerConfig struct {
	Dispatcher *tool.Dispatcher
	Name       string
	Version    string
	// MaxBody caps HTTP request bodies in HTTP mode.
	MaxBody int64
	Logger  logr.Logger
}

// Server publishes the dispatcher's tools over MCP.
type Server struct {
	dispatcher *tool.Dispatcher
	mcp        *mcp.Server
	maxBody    int64
	logger     logr.Logger
}

// NewServer creates a Server and registers every tool known to the
// dispatcher's registry.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dispatcher == nil || cfg.Dispatcher.Registry() == nil {
		return nil, errors.New("server: dispatcher with registry is required")
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultName
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = "dev"
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	s := &Server{
		dispatcher: cfg.Dispatcher,
		mcp:        mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		maxBody:    maxBody,
		logger:     logger,
	}
	for _, def := range cfg.Dispatcher.Registry().Definitions() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Schema.JSONSchema(),
		}, s.toolHandler(def.Name))
	}
	return s, nil
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// ServeStdio serves one MCP session over stdin/stdout until the client
// disconnects or ctx is canceled.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", "tools", s.dispatcher.Registry().Len())
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("server: stdio session: %w", err)
}

// Handler returns the HTTP handler for streamable HTTP mode.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.maxBodyMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))
	return r
}

// ListenAndServe serves Handler on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over HTTP", "addr", addr, "tools", s.dispatcher.Registry().Len())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	}
}

// toolHandler adapts one dispatcher tool to the MCP call contract. Tool
// failures are reported as error results so the client sees them as a
// failed call rather than a protocol fault.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		args, err := DecodeArguments(raw)
		if err != nil {
			return errorResult(err), nil
		}
		result, err := s.dispatcher.Invoke(ctx, name, args)
		if err != nil {
			return errorResult(err), nil
		}
		return callToolResult(result), nil
	}
}

// DecodeArguments parses raw call arguments. Empty input and null decode to
// an empty set; anything other than a JSON object is INVALID_ARGUMENTS.
func DecodeArguments(raw json.RawMessage) (tool.Arguments, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return tool.Arguments{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, tool.NewError(tool.ToolErrorCodeInvalidArguments, "arguments are not valid JSON", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, tool.Errorf(tool.ToolErrorCodeInvalidArguments, "arguments must be a JSON object")
	}
	return tool.Arguments(obj), nil
}

func callToolResult(result tool.Result) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(result.Content))
	for _, item := range result.Content {
		content = append(content, &mcp.TextContent{Text: item.Text})
	}
	return &mcp.CallToolResult{Content: content}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tools":  s.dispatcher.Registry().Len(),
	})
}

// --- Middleware ---

func (s *Server) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.V(1).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
