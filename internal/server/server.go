package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/config"
	"github.com/gettakaro/MCP/internal/mcp"
)

// Server manages the HTTP server and routes.
type Server struct {
	dispatcher *mcp.Dispatcher
	cfg        *config.ServerConfig
	router     *http.ServeMux
	server     *http.Server
	logger     *common.Logger
}

// New creates an HTTP server fronting the given dispatcher.
func New(dispatcher *mcp.Dispatcher, cfg *config.ServerConfig, logger *common.Logger) *Server {
	s := &Server{
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // tool calls proxy to the remote API and can take a while
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Str("url", fmt.Sprintf("http://%s/mcp", s.server.Addr)).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
