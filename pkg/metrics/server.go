package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics on a port separate from the API.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer builds a scrape server for g. A nil g uses the default gatherer.
func NewServer(port int, g prometheus.Gatherer) *Server {
	var scrape http.Handler
	if g == nil {
		scrape = Handler()
	} else {
		scrape = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", scrape)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Anagram Service Metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: slog.Default().With("component", "metrics-server"),
	}
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
