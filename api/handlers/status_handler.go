package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a backing dependency.
type Pinger func(ctx context.Context) error

// GetStatus returns a 2** status when the service and its token store are
// reachable. A nil pinger means there is nothing to check.
func GetStatus(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping == nil {
			return c.SendStatus(fiber.StatusOK)
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "token store unreachable")
		}
		return c.SendStatus(fiber.StatusOK)
	}
}
