// Package api exposes the scoring engine and the record store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/common/ratelimit"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/records"
	"credit-risk-workers/internal/scoring"
)

// Scorer is the part of the scoring engine the API serves.
type Scorer interface {
	Score(strategy string, attrs models.ApplicantAttributes) (scoring.Result, error)
	Strategies() []scoring.StrategyID
}

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Config struct {
	DefaultStrategy string
	Collection      string
	RequestTimeout  time.Duration
	Version         string
}

type Server struct {
	config  Config
	scorer  Scorer
	store   records.Store
	limiter *ratelimit.Limiter
	obs     *observability.Observability
	logger  logger.Logger
	checks  []ReadinessCheck
	now     func() time.Time
}

// NewServer builds the API. store and limiter may be nil: without a store
// persistence requests fail with 207 and listing returns 503, without a
// limiter no rate limit applies.
func NewServer(
	cfg Config,
	scorer Scorer,
	store records.Store,
	limiter *ratelimit.Limiter,
	obs *observability.Observability,
	log logger.Logger,
	checks ...ReadinessCheck,
) *Server {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = records.DefaultCollection
	}
	return &Server{
		config:  cfg,
		scorer:  scorer,
		store:   store,
		limiter: limiter,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
		checks:  checks,
		now:     time.Now,
	}
}

// Routes returns the router with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))

		r.Get("/strategies", s.handleStrategies)
		r.With(s.rateLimit("score")).Post("/applicants/score", s.handleScore)
		r.With(s.rateLimit("list")).Get("/applicants", s.handleList)
	})

	return r
}

func (s *Server) rateLimit(route string) func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.limiter.Middleware(route)
}

// instrument counts requests by route pattern and status code.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		s.logger.Debug("request served", map[string]interface{}{
			"method":      r.Method,
			"route":       route,
			"status":      status,
			"duration_ms": time.Since(started).Milliseconds(),
			"requestId":   middleware.GetReqID(r.Context()),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
