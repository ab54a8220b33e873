package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the Prometheus scrape endpoint on its own port.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a metrics server listening on the given port.
func NewServer(port int, path string, logger *slog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start starts the metrics server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting metrics server", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
