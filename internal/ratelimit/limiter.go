// Package ratelimit throttles failed logins with Redis fixed-window counters.
//
// Keys:
//   - login:email:<email> counts failures per account
//   - login:ip:<ip> counts failures per client address
//
// Redis failures never block a login; they are logged and the attempt is allowed.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// Config holds limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

var _ model.LoginLimiter = (*Limiter)(nil)

// Limiter enforces per-email and per-IP failed login budgets.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
	logger *logger.Logger
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config, logger *logger.Logger) *Limiter {
	return &Limiter{redis: redisClient, config: cfg, logger: logger}
}

// Check returns model.ErrRateLimited when either counter has used up its budget.
func (l *Limiter) Check(ctx context.Context, email, clientIP string) error {
	for _, key := range l.keys(email, clientIP) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				l.logger.LogWarn("Login limiter: failed to read counter", err, "key", key)
			}
			continue
		}

		if count >= int64(l.config.MaxAttempts) {
			return oops.Code("AUTH_RATE_LIMITED").
				With("key", key).
				With("attempts", count).
				Wrap(model.ErrRateLimited)
		}
	}

	return nil
}

// Fail records a failed login attempt.
func (l *Limiter) Fail(ctx context.Context, email, clientIP string) {
	for _, key := range l.keys(email, clientIP) {
		if _, err := l.incrementWithTTL(ctx, key); err != nil {
			l.logger.LogWarn("Login limiter: failed to record attempt", err, "key", key)
		}
	}
}

// Reset clears the counters after a successful login.
func (l *Limiter) Reset(ctx context.Context, email, clientIP string) {
	if err := l.redis.Del(ctx, l.keys(email, clientIP)...).Err(); err != nil {
		l.logger.LogWarn("Login limiter: failed to reset counters", err)
	}
}

// Attempts returns the failure count recorded for email.
func (l *Limiter) Attempts(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, emailKey(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read attempts: %w", err)
	}
	return count, nil
}

func (l *Limiter) keys(email, clientIP string) []string {
	keys := []string{emailKey(email)}
	if clientIP != "" {
		keys = append(keys, "login:ip:"+clientIP)
	}
	return keys
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	// the window starts with the first failure
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return 0, fmt.Errorf("failed to set counter ttl: %w", err)
		}
	}

	return count, nil
}

func emailKey(email string) string {
	return "login:email:" + strings.ToLower(strings.TrimSpace(email))
}

// Noop is a LoginLimiter that never throttles. It is used when Redis is not configured.
type Noop struct{}

var _ model.LoginLimiter = Noop{}

func (Noop) Check(context.Context, string, string) error { return nil }
func (Noop) Fail(context.Context, string, string)        {}
func (Noop) Reset(context.Context, string, string)       {}
