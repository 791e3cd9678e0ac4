// Package middleware carries the HTTP middleware of the control server.
package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimits bounds how fast one client may hit the /v1/world endpoints
// (creation, event injection, stream, stats, dist). World creation is expensive (an all-pairs
// rebuild per call), so the defaults are deliberately tight.
type RateLimits struct {
	PerSecond int
	PerHour   int
}

// DefaultRateLimits returns the limits applied when none are configured.
func DefaultRateLimits() RateLimits {
	return RateLimits{PerSecond: 5, PerHour: 500}
}

// RateLimitMiddleware implements fixed-window rate limiting per client IP,
// counted in Redis so limits hold across server replicas.
func RateLimitMiddleware(rdb *redis.Client, limits RateLimits) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		now := time.Now()
		ip := c.IP()

		keySecond := fmt.Sprintf("rl:%s:second:%d", ip, now.Unix())
		keyHour := fmt.Sprintf("rl:%s:hour:%s", ip, now.Format("2006-01-02T15"))

		if limits.PerSecond > 0 {
			countSecond, err := rdb.Incr(ctx, keySecond).Result()
			if err == nil {
				rdb.Expire(ctx, keySecond, 2*time.Second)

				if countSecond > int64(limits.PerSecond) {
					c.Set("X-RateLimit-Limit-Second", strconv.Itoa(limits.PerSecond))
					c.Set("X-RateLimit-Remaining-Second", "0")
					c.Set("Retry-After", "1")

					return c.Status(429).JSON(fiber.Map{
						"error":       "rate_limit_exceeded",
						"message":     "Too many requests per second",
						"limit_type":  "per_second",
						"limit":       limits.PerSecond,
						"retry_after": 1,
					})
				}
			}
		}

		if limits.PerHour > 0 {
			countHour, err := rdb.Incr(ctx, keyHour).Result()
			if err == nil {
				rdb.Expire(ctx, keyHour, 61*time.Minute)

				if countHour > int64(limits.PerHour) {
					nextHour := now.Truncate(time.Hour).Add(time.Hour)
					retryAfter := int64(nextHour.Sub(now).Seconds())

					c.Set("X-RateLimit-Limit-Hour", strconv.Itoa(limits.PerHour))
					c.Set("X-RateLimit-Remaining-Hour", "0")
					c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

					return c.Status(429).JSON(fiber.Map{
						"error":       "rate_limit_exceeded",
						"message":     "Too many requests per hour",
						"limit_type":  "per_hour",
						"limit":       limits.PerHour,
						"retry_after": retryAfter,
					})
				}
			}
		}

		return c.Next()
	}
}
