package server

import (
	"context"
	"net/http"
	"time"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/workflow"
)

const (
	maxQuestionLen = 2000
	maxRetriesCap  = 5
)

// Server exposes the workflow engine over HTTP.
type Server struct {
	engine *workflow.Engine
	logger log.Logger
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server around engine listening on addr.
func New(engine *workflow.Engine, addr string, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for tests and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /api/chat/history", s.handleHistory)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// ListenAndServe blocks serving HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
