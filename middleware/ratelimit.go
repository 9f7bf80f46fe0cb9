package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/tbcare/config"
	"github.com/ariebrainware/tbcare/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 120
	defaultRateWindow = time.Minute
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter counts requests per caller in fixed redis windows. Callers are
// identified by user id once authenticated, by IP otherwise.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		caller := callerKey(c)
		key := fmt.Sprintf("ratelimit:%s", caller)

		allowed, err := checkRateLimit(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// Redis trouble must not take the API down with it.
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        c.ClientIP(),
				RequestID: GetRequestID(c),
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			actor, _ := GetActor(c)
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventRateLimitExceeded,
				UserID:    actor.UserID,
				Role:      string(actor.Role),
				IP:        c.ClientIP(),
				RequestID: GetRequestID(c),
				Resource:  c.Request.URL.Path,
				Message:   "Rate limit exceeded",
			})
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: errors.New("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if actor, ok := GetActor(c); ok {
		return fmt.Sprintf("user:%d", actor.UserID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// checkRateLimit checks if a request is within rate limits
// Returns true if allowed, false if rate limit exceeded
func checkRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return true, nil
	}

	pipe := rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incr.Val() <= int64(limit), nil
}

// ResetRateLimit clears the counter of one caller key ("user:<id>" or "ip:<addr>").
func ResetRateLimit(ctx context.Context, caller string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return fmt.Errorf("redis not available")
	}
	return rdb.Del(ctx, fmt.Sprintf("ratelimit:%s", caller)).Err()
}
