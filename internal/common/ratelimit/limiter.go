// Package ratelimit limits requests per client key, backed by Redis with an
// in-memory token bucket used when Redis is absent or failing.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/logger"
)

// maxFallbackKeys bounds the in-memory limiter table.
const maxFallbackKeys = 10000

// Result is the outcome of one check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAfter time.Duration
}

type Limiter struct {
	redisLimiter *redis_rate.Limiter
	limit        redis_rate.Limit
	logger       logger.Logger

	mu       sync.Mutex
	fallback map[string]*rate.Limiter
}

// New builds a limiter allowing cfg.RequestsPerMinute per key with the given
// burst. A nil client runs on the in-memory limiter only.
func New(client *redis.Client, cfg config.RateLimitConfig, log logger.Logger) *Limiter {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}

	l := &Limiter{
		limit: redis_rate.Limit{
			Rate:   cfg.RequestsPerMinute,
			Burst:  burst,
			Period: time.Minute,
		},
		logger:   log.WithFields(map[string]interface{}{"component": "ratelimit"}),
		fallback: make(map[string]*rate.Limiter),
	}
	if client != nil {
		l.redisLimiter = redis_rate.NewLimiter(client)
	} else {
		l.logger.Warn("redis unavailable, using in-memory rate limiting only", nil)
	}
	return l
}

// Allow consumes one request for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.limit.Rate <= 0 {
		return Result{Allowed: true}, nil
	}

	if l.redisLimiter != nil {
		res, err := l.allowRedis(ctx, key)
		if err == nil {
			return res, nil
		}
		l.logger.Warn("redis rate limit check failed, using fallback", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
	return l.allowFallback(key), nil
}

func (l *Limiter) allowRedis(ctx context.Context, key string) (Result, error) {
	res, err := l.redisLimiter.Allow(ctx, "ratelimit:"+key, l.limit)
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	return Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
		ResetAfter: res.ResetAfter,
	}, nil
}

func (l *Limiter) allowFallback(key string) Result {
	l.mu.Lock()
	limiter, ok := l.fallback[key]
	if !ok {
		if len(l.fallback) >= maxFallbackKeys {
			l.fallback = make(map[string]*rate.Limiter)
		}
		perSecond := rate.Limit(float64(l.limit.Rate) / l.limit.Period.Seconds())
		limiter = rate.NewLimiter(perSecond, l.limit.Burst)
		l.fallback[key] = limiter
	}
	l.mu.Unlock()

	now := time.Now()
	res := Result{Limit: l.limit.Rate}

	reservation := limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = delay
		res.ResetAfter = delay
		return res
	}

	res.Allowed = true
	if remaining := int(limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}
