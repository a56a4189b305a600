package persistence

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RedisLoginLimiter tracks failed login attempts per email in a fixed
// window. Redis outages fail open: throttling is a hardening layer, not a
// correctness requirement.
type RedisLoginLimiter struct {
	redis  *Redis
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewRedisLoginLimiter builds a limiter. A limit of zero disables it.
func NewRedisLoginLimiter(redis *Redis, limit int, window time.Duration, logger *zap.Logger) *RedisLoginLimiter {
	return &RedisLoginLimiter{redis: redis, limit: limit, window: window, logger: logger}
}

// Allow reports whether the email is under the failed-attempt limit.
func (l *RedisLoginLimiter) Allow(ctx context.Context, email string) bool {
	if l == nil || l.limit <= 0 || l.redis == nil || l.redis.Client == nil {
		return true
	}
	count, err := l.redis.Client.Get(ctx, l.key(email)).Int64()
	if err != nil {
		return true
	}
	return count < int64(l.limit)
}

// RecordFailure increments the failure counter and refreshes the window.
func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil || l.limit <= 0 || l.redis == nil || l.redis.Client == nil {
		return
	}
	key := l.key(email)
	if err := l.redis.Client.Incr(ctx, key).Err(); err != nil {
		l.logger.Warn("login limiter incr failed", zap.Error(err))
		return
	}
	if err := l.redis.Client.Expire(ctx, key, l.window).Err(); err != nil {
		l.logger.Warn("login limiter expire failed", zap.Error(err))
	}
}

func (l *RedisLoginLimiter) key(email string) string {
	return "login_failures:" + strings.ToLower(strings.TrimSpace(email))
}
