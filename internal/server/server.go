// Package server exposes one engine over HTTP: free-text search, structured
// filtering, field suggestions, cache control and the engine's metrics ring.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/filter"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/middleware"
)

// Deps are the collaborators a Server reads from. Records must be the slice
// the engine's index was built from.
type Deps struct {
	Engine   *engine.Engine
	Records  []record.Record
	Fields   []string
	Filter   filter.Options
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Health   *health.Checker
}

type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	logger *slog.Logger
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.NewChecker()
	}
	eng := deps.Engine
	deps.Health.Register("index", func(context.Context) error { return eng.Ready() })
	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: slog.Default().With("component", "search-server"),
	}
}

// Routes returns the API with request ids, panic recovery, the request
// timeout and per-route instrumentation applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, middleware.Metrics(s.deps.Metrics, name)(h))
	}
	route("GET /api/v1/search", "search", http.HandlerFunc(s.search))
	route("POST /api/v1/filter", "filter", http.HandlerFunc(s.filter))
	route("GET /api/v1/suggest", "suggest", http.HandlerFunc(s.suggest))
	route("GET /api/v1/cache/stats", "cache_stats", http.HandlerFunc(s.cacheStats))
	route("POST /api/v1/cache/clear", "cache_clear", http.HandlerFunc(s.cacheClear))
	route("GET /api/v1/performance", "performance", http.HandlerFunc(s.performance))
	route("GET /api/v1/stats", "stats", analytics.NewHandler(s.deps.Engine.Collector()))
	mux.Handle("GET /healthz", s.deps.Health.Handler())
	mux.Handle("GET /metrics", metrics.Handler(s.deps.Gatherer))

	var chain http.Handler = mux
	chain = middleware.Timeout(s.cfg.RequestTimeout)(chain)
	chain = middleware.Recover(chain)
	chain = middleware.RequestID(chain)
	return chain
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("search server listening", "addr", srv.Addr, "records", len(s.deps.Records))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("search server: %w", err)
	case <-ctx.Done():
	}
	s.logger.Info("shutting down search server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down search server: %w", err)
	}
	return nil
}
