// Package server exposes a loaded index over HTTP.
//
//	GET  /healthz                 liveness
//	GET  /v1/index                index metadata
//	GET  /v1/sites/{id}           one site
//	GET  /v1/sites?start=&count=  a window of sites in id order
//	POST /v1/offtargets           {"ids":[...]} or {"start":n,"count":n}, JSON Lines response
//	GET  /metrics                 Prometheus metrics
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/api"
	"github.com/coronin/Crisprs/config"
	"github.com/coronin/Crisprs/internal/cache"
)

// Options configures a Server.
type Options struct {
	Config config.ServerConfig
	Logger *slog.Logger
	// Gatherer backs /metrics. Nil selects prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server serves one DB.
type Server struct {
	db      *crisprs.DB
	cfg     config.ServerConfig
	log     *slog.Logger
	router  *chi.Mux
	limiter *rate.Limiter
	// results caches encoded off-target lines by query id; nil when disabled.
	results *cache.Sharded
}

// New returns a Server for db.
func New(db *crisprs.DB, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		db:     db,
		cfg:    opts.Config,
		log:    opts.Logger,
		router: chi.NewRouter(),
	}
	if opts.Config.CacheBytes > 0 {
		s.results = cache.NewSharded(opts.Config.CacheBytes)
	}
	if opts.Config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimit), max(opts.Config.RateBurst, 1))
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	s.registerRoutes(opts.Gatherer)
	return s
}

func (s *Server) registerRoutes(g prometheus.Gatherer) {
	s.router.Get(api.PathHealth, s.health)
	s.router.Handle(api.PathMetrics, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	s.router.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get(api.PathIndex, s.index)
		r.Get(api.PathSites, s.sites)
		r.Get(api.PathSites+"/{id}", s.site)
		r.Post(api.PathOffTargets, s.offTargets)
	})
}

// CacheStats returns the result cache hit and miss counts.
func (s *Server) CacheStats() (hits, misses int64) {
	if s.results == nil {
		return 0, 0
	}
	return s.results.Stats()
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on the configured address until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr, "index", s.db.Location())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
