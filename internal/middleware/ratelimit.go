package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig controls the per-user fixed-window limiter applied to
// alert posting. A retransmitting client re-POSTs its alert every few
// seconds; the limiter keeps that well-behaved while stopping a stuck
// loop from flooding the street with notifications.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
	Prefix  string        // redis key namespace
}

// DefaultAlertRateLimit allows the 5s retransmission cadence with
// headroom.
func DefaultAlertRateLimit() RateLimitConfig {
	return RateLimitConfig{Enabled: true, Limit: 30, Window: time.Minute, Prefix: "rl:alerts"}
}

// RateLimit returns an Echo middleware implementing a fixed-window
// counter in Redis, keyed by authenticated user and route. When Redis
// is unavailable the middleware lets requests through; availability of
// the panic button wins over strict limiting.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			window := time.Now().Unix() / int64(cfg.Window/time.Second)
			key := fmt.Sprintf("%s:%s:%s:%d", cfg.Prefix, UserID(c), c.Path(), window)

			ctx := c.Request().Context()
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				c.Logger().Warnf("ratelimit: redis error for key=%s: %v", key, err)
				return next(c)
			}
			if n == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}
			if n > int64(cfg.Limit) {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(cfg.Window/time.Second)))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
