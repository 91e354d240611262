package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/duyhunghd6/repo-analyzer/internal/orchestrator"
)

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins    []string // "*" allows every origin
	AllowLocalSources bool     // accept server-side paths in POST /repositories
	Version           string
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine  *orchestrator.Engine
	origins map[string]bool
	anyOrig bool
	local   bool
	version string
	handler http.Handler
}

// New builds the routes and middleware around engine.
func New(engine *orchestrator.Engine, opts Options) *Server {
	s := &Server{
		engine:  engine,
		origins: make(map[string]bool, len(opts.AllowedOrigins)),
		local:   opts.AllowLocalSources,
		version: opts.Version,
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			s.anyOrig = true
		}
		s.origins[o] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /repositories", s.handleCreate)
	mux.HandleFunc("GET /repositories", s.handleList)
	mux.HandleFunc("GET /repositories/{id}", s.handleGet)
	mux.HandleFunc("POST /repositories/{id}/reprocess", s.handleReprocess)
	mux.HandleFunc("GET /repositories/{id}/search", s.handleSearch)
	mux.HandleFunc("POST /repositories/{id}/ask", s.handleAsk)
	mux.HandleFunc("POST /query", s.handleQuery)

	s.handler = requestID(s.cors(mux))
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests a few seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
