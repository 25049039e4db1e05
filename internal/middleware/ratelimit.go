package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"
	"github.com/sefazor/designstudio-backend/internal/config"
	"github.com/sefazor/designstudio-backend/internal/models"
)

// Hourly request limits.
const (
	LimitGlobal     = 100
	LimitSignup     = 10
	LimitLogin      = 20
	LimitImage      = 30
	LimitBackground = 50
	LimitVideo      = 10
)

// RateLimiter builds limiters sharing one storage. A nil storage keeps
// counters in process memory.
type RateLimiter struct {
	storage fiber.Storage
	window  time.Duration
}

func NewRateLimiter(storage fiber.Storage) *RateLimiter {
	return &RateLimiter{storage: storage, window: time.Hour}
}

// NewRedisStorage returns limiter storage backed by Redis, or nil when Redis
// is not configured.
func NewRedisStorage(cfg config.RedisConfig) fiber.Storage {
	if !cfg.Enabled() {
		return nil
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cfg.Database,
		Reset:    false,
	})
}

// Limit allows max requests per window for each caller. name separates the
// counters of different routes.
func (r *RateLimiter) Limit(name string, max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   r.window,
		Storage:      r.storage,
		KeyGenerator: keyFor(name),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse("Rate limit exceeded. Please try again later."))
		},
	})
}

// keyFor prefers the authenticated email over the client address.
func keyFor(name string) func(*fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		if email, ok := c.Locals("userEmail").(string); ok && email != "" {
			return name + ":" + email
		}
		return name + ":" + c.IP()
	}
}
