package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// ipRateLimiter gestisce un token bucket per indirizzo IP
type ipRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

func newIPRateLimiter(requestsPerMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerMinute) / 60.0, // Converti a rate per secondo
		burst:    requestsPerMinute,
	}
}

func (rl *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[ip] = limiter
	}
	return limiter
}

// cleanup rimuove i limiters con il bucket pieno (non usati di recente)
func (rl *ipRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, ip)
		}
	}
}

// RateLimit limita le richieste per IP; requestsPerMinute <= 0 disabilita il limite.
// Il cleanup dei limiters si ferma alla chiusura di stop.
func RateLimit(requestsPerMinute int, stop <-chan struct{}) fiber.Handler {
	if requestsPerMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	rl := newIPRateLimiter(requestsPerMinute)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()

	return func(c *fiber.Ctx) error {
		if !rl.getLimiter(c.IP()).Allow() {
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
				"kind":  "request",
			})
		}
		return c.Next()
	}
}
