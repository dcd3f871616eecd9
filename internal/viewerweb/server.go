// Package viewerweb is the embedded HTTP server the desktop viewer points
// its webview at, grounded on internal/server/server.go's "internal
// net/http server + html/template" shape, generalised to render a
// vrp.PlannerResult instead of participants/drivers.
package viewerweb

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"visitrouter/internal/vrp"
)

// ResultProvider returns the most recently solved PlannerResult.
type ResultProvider func() vrp.PlannerResult

// Server wraps the HTTP server rendering the planner's latest result.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
}

// Config holds server configuration.
type Config struct {
	Addr string // e.g. "127.0.0.1:0" for a random available port
}

// New creates and initializes a new server (does not start it).
func New(cfg Config, result ResultProvider) (*Server, error) {
	tmpl, err := template.New("result").Funcs(templateFuncs()).Parse(resultTemplate)
	if err != nil {
		return nil, fmt.Errorf("viewerweb: parse template: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, result()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{httpServer: httpServer, addr: cfg.Addr}, nil
}

// Start starts the server and returns the actual listen address.
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("viewerweb: listen: %w", err)
	}
	s.listener = listener
	actualAddr := listener.Addr().String()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logServerError(err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
