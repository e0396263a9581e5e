package middleware

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/swifty-companion/student-api/pkg/circuitbreaker"
)

// WithCircuitBreaker wraps a handler with one breaker per route. Upstream
// failures (5xx) trip it; client errors and 404s do not.
func WithCircuitBreaker(newBreaker func(name string) circuitbreaker.Breaker) func(fiber.Handler) fiber.Handler {
	var mu sync.RWMutex
	breakers := make(map[string]circuitbreaker.Breaker)

	getBreaker := func(name string) circuitbreaker.Breaker {
		mu.RLock()
		b := breakers[name]
		mu.RUnlock()
		if b != nil {
			return b
		}

		mu.Lock()
		defer mu.Unlock()
		if b = breakers[name]; b != nil {
			return b
		}

		b = newBreaker(name)
		breakers[name] = b
		return b
	}

	return func(next fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			breaker := getBreaker(breakerName(c))

			if err := breaker.Allow(c.UserContext()); err != nil {
				code := "BREAKER_ERROR"
				if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
					code = "CIRCUIT_OPEN"
				}
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "service temporarily unavailable",
					"code":  code,
				})
			}

			err := next(c)

			if statusOf(c, err) >= fiber.StatusInternalServerError {
				breaker.OnFailure(c.UserContext())
			} else {
				breaker.OnSuccess(c.UserContext())
			}

			return err
		}
	}
}

func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

func breakerName(c *fiber.Ctx) string {
	var path string
	r := c.Route()
	if r != nil && r.Path != "" {
		path = r.Path
	} else {
		path = c.Path()
	}

	return c.Method() + " " + path
}
