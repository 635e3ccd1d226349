// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"credit-risk-workers/internal/api"
	"credit-risk-workers/internal/common/camunda"
	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/common/ratelimit"
	"credit-risk-workers/internal/records"
	"credit-risk-workers/internal/scoring"
	"credit-risk-workers/pkg/artifacts"
)

const shutdownTimeout = 15 * time.Second

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("recordsBackend", cfg.Records.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		zapLog.Fatal("worker manager stopped with error", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	obs, err := observability.New(cfg.Observability, nil)
	if err != nil {
		return fmt.Errorf("observability init: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Scoring engine ---
	arts, err := artifacts.Load(cfg.Scoring.ManifestPath)
	if err != nil {
		return fmt.Errorf("load model manifest %q: %w", cfg.Scoring.ManifestPath, err)
	}
	engine, err := scoring.NewEngine(arts, log, scoring.WithDivergenceHook(func(d scoring.Divergence) {
		metrics.SchemaDivergences.WithLabelValues(string(d.Kind), d.Name).Inc()
	}))
	if err != nil {
		return fmt.Errorf("scoring engine: %w", err)
	}
	log.Info("scoring engine ready", map[string]interface{}{
		"strategies": engine.Strategies(),
		"features":   len(engine.Schema()),
	})

	// --- Record store with retry ---
	var store records.Store
	err = retryWithBackoff(ctx, func() error {
		var err error
		store, err = records.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, log, "record store connection")
	if err != nil {
		return err
	}
	defer store.Close()

	checks := []api.ReadinessCheck{{Name: "records", Check: store.Ping}}

	g, gctx := errgroup.WithContext(ctx)

	// --- Zeebe client and workers ---
	if cfg.Camunda.Enabled {
		var client *camunda.Client
		err = retryWithBackoff(ctx, func() error {
			var err error
			client, err = camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda), log)
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer client.Close()
		checks = append(checks, api.ReadinessCheck{Name: "zeebe", Check: client.HealthCheck})

		workers, err := startWorkers(ctx, client, cfg, engine, store, obs, log)
		if err != nil {
			return err
		}

		g.Go(func() error {
			<-gctx.Done()
			for _, w := range workers {
				w.Stop()
			}
			log.Info("all workers stopped", map[string]interface{}{"count": len(workers)})
			return nil
		})
	} else {
		log.Warn("camunda disabled, no workers started", nil)
	}

	// --- HTTP API ---
	if cfg.HTTP.Enabled {
		limiter := newLimiter(cfg, log)

		srv := &http.Server{
			Addr: cfg.HTTP.Address,
			Handler: api.NewServer(api.Config{
				DefaultStrategy: cfg.Scoring.DefaultStrategy,
				Collection:      cfg.Records.Collection,
				RequestTimeout:  config.GetDuration(cfg.HTTP.RequestTimeout),
				Version:         cfg.App.Version,
			}, engine, store, limiter, obs, log, checks...).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serve(g, gctx, srv, "api", log)
	} else if cfg.Observability.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              cfg.Observability.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		serve(g, gctx, srv, "metrics", log)
	}

	return g.Wait()
}

func serve(g *errgroup.Group, ctx context.Context, srv *http.Server, name string, log logger.Logger) {
	g.Go(func() error {
		log.Info("http server listening", map[string]interface{}{"server": name, "address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// newLimiter prefers a shared Redis bucket and falls back to in-process
// limiting when no Redis address is configured.
func newLimiter(cfg *config.Config, log logger.Logger) *ratelimit.Limiter {
	if !cfg.HTTP.RateLimit.Enabled {
		return nil
	}
	var client *redis.Client
	if cfg.Database.Redis.Address != "" {
		client = database.NewRedis(cfg.Database.Redis).Client
	}
	return ratelimit.New(client, cfg.HTTP.RateLimit, log)
}
