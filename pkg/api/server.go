// Package api serves the movie catalog over a small JSON REST API.
//
// Every route under /api/v1 reads or mutates a store.Storage; /metrics exposes
// Prometheus metrics and is left unauthenticated for scraping.
package api

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ssargent/reelshelf/pkg/query"
	"github.com/ssargent/reelshelf/pkg/store"
)

const shutdownTimeout = 5 * time.Second

// Server handles catalog requests
type Server struct {
	store    store.Storage
	engine   *query.SimpleQueryEngine
	fetcher  MovieFetcher
	config   ServerConfig
	metrics  *Metrics
	gatherer prometheus.Gatherer
	logger   logrus.FieldLogger
	backend  string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option customizes a Server
type Option func(*Server)

// WithFetcher enables metadata lookups for POST /movies with "fetch": true
func WithFetcher(f MovieFetcher) Option {
	return func(s *Server) {
		s.fetcher = f
	}
}

// WithLogger sets the request and error logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorded by the server
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithGatherer sets the registry served on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithBackend names the storage backend in health responses
func WithBackend(name string) Option {
	return func(s *Server) {
		s.backend = name
	}
}

// WithRand replaces the source used by GET /random
func WithRand(rnd *rand.Rand) Option {
	return func(s *Server) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

// NewServer creates a new API server
func NewServer(st store.Storage, config ServerConfig, metrics *Metrics, opts ...Option) *Server {
	s := &Server{
		store:    st,
		engine:   query.NewSimpleQueryEngine(st),
		config:   config,
		metrics:  metrics,
		gatherer: prometheus.DefaultGatherer,
		logger:   logrus.StandardLogger(),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route configured
func (s *Server) Router() http.Handler {
	metrics := s.metrics
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Catalog
		r.Get("/movies", metrics.InstrumentHandler("GET", "/api/v1/movies", s.handleListMovies))
		r.Post("/movies", metrics.InstrumentHandler("POST", "/api/v1/movies", s.handleAddMovie))
		r.Get("/movies/{title}", metrics.InstrumentHandler("GET", "/api/v1/movies/{title}", s.handleGetMovie))
		r.Put("/movies/{title}", metrics.InstrumentHandler("PUT", "/api/v1/movies/{title}", s.handleUpdateMovie))
		r.Delete("/movies/{title}", metrics.InstrumentHandler("DELETE", "/api/v1/movies/{title}", s.handleDeleteMovie))

		// Derived views
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
		r.Get("/search", metrics.InstrumentHandler("GET", "/api/v1/search", s.handleSearch))
		r.Get("/random", metrics.InstrumentHandler("GET", "/api/v1/random", s.handleRandom))
	})

	return r
}

// StartServer serves the catalog API until ctx is canceled, then shuts down gracefully
func StartServer(ctx context.Context, st store.Storage, config ServerConfig, opts ...Option) error {
	s := NewServer(st, config, nil, opts...)
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.DefaultRegisterer)
	}
	return s.ListenAndServe(ctx)
}

// ListenAndServe binds the configured address and blocks until ctx is done or the
// listener fails
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", srv.Addr).Info("starting catalog API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down catalog API")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
