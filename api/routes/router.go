package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/swifty-companion/student-api/api/handlers"
	"github.com/swifty-companion/student-api/api/middleware"
	"github.com/swifty-companion/student-api/pkg/circuitbreaker"
)

// Deps is what the student routes are built from. A nil NewBreaker leaves the
// routes unguarded.
type Deps struct {
	Students   handlers.StudentService
	NewBreaker func(name string) circuitbreaker.Breaker
	Logger     *slog.Logger
}

func RegisterRoutes(app fiber.Router, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Backend running!")
	})

	guard := func(h fiber.Handler) fiber.Handler { return h }
	if deps.NewBreaker != nil {
		guard = middleware.WithCircuitBreaker(deps.NewBreaker)
	}

	api := app.Group("/api")

	api.Get("/students/:login", guard(handlers.StudentHandler(deps.Students, logger)))
	api.Get("/students/:login/profile", guard(handlers.ProfileHandler(deps.Students, logger)))
	api.Get("/users/:id/projects", guard(handlers.ProjectsHandler(deps.Students, logger)))
	api.Get("/users/:id/skills", guard(handlers.SkillsHandler(deps.Students, logger)))
}
