package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles the anonymous verify endpoint per client IP with a
// redis fixed window. It fails open on redis outage: a throttling hiccup must
// not lock residents out of their building.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.Context(), "rl:verify:"+clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests", CodeRateLimit)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("rate limit check failed", "error", fmt.Errorf("incr: %w", err))
		return true
	}
	if count == 1 {
		if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
			slog.Warn("rate limit expire failed", "error", err)
			return true
		}
	}
	return count <= int64(rl.limit)
}
