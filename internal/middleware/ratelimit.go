package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/seriesdash/seriesdash/internal/cache"
	"github.com/seriesdash/seriesdash/internal/models"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	Rate    float64       // requests per second
	Burst   int           // bucket size
	Clients int           // tracked clients before LRU eviction
	Idle    time.Duration // forget clients idle this long
	KeyFunc func(*fiber.Ctx) string
}

// RateLimit returns a token bucket limiter keyed by client IP. A
// non-positive rate disables limiting.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	if cfg.Rate <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Clients < 1 {
		cfg.Clients = 10000
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}

	// Size is validated above, so construction cannot fail.
	limiters, _ := cache.NewLRUWithTTL[string, *rate.Limiter](cfg.Clients, cfg.Idle)

	return func(c *fiber.Ctx) error {
		key := cfg.KeyFunc(c)
		limiter, ok := limiters.Get(key)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)
		}
		// refresh the idle deadline
		limiters.Set(key, limiter)

		if !limiter.Allow() {
			retry := time.Duration(float64(time.Second) / cfg.Rate)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry.Seconds()+0.999)))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "RATE_LIMITED",
					Message: "Too many requests",
					Path:    c.Path(),
				},
			})
		}
		return c.Next()
	}
}
