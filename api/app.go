package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	slogfiber "github.com/samber/slog-fiber"
	"go.opentelemetry.io/otel/codes"

	"github.com/swifty-companion/student-api/api/handlers"
	"github.com/swifty-companion/student-api/api/middleware"
	"github.com/swifty-companion/student-api/api/routes"
	"github.com/swifty-companion/student-api/pkg/circuitbreaker"
	"github.com/swifty-companion/student-api/pkg/core"
)

func errorHandler(logger *slog.Logger, otel core.OtelService) fiber.ErrorHandler {
	handleFiberError := func(ctx *fiber.Ctx, err *fiber.Error) error {
		if err.Code >= fiber.StatusInternalServerError {
			span := otel.SpanFromContext(ctx.UserContext())
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Message)
		}

		logger.Error(
			"Fiber Error",
			"Code",
			err.Code,
			"Message",
			err.Message,
		)

		return ctx.
			Status(err.Code).
			JSON(fiber.Map{"error": err.Message})
	}

	return func(ctx *fiber.Ctx, err error) error {
		var e *fiber.Error
		if !errors.As(err, &e) {
			e = fiber.ErrInternalServerError
		}
		return handleFiberError(ctx, e)
	}
}

func stackTraceHandler(logger *slog.Logger) func(*fiber.Ctx, any) {
	return func(c *fiber.Ctx, e any) {
		stack := debug.Stack()
		logger.ErrorContext(
			c.UserContext(),
			"panic!",
			"stack",
			stack,
			"err",
			e,
		)
	}
}

type Config struct {
	Otel   core.OtelService
	Logger *slog.Logger
	core.Config

	Students handlers.StudentService
	// Optional: nil disables the circuit breaker.
	NewBreaker func(name string) circuitbreaker.Breaker
	// Optional: nil makes /status always healthy.
	Ping handlers.Pinger
}

func New(ctx context.Context, cfg *Config) (*fiber.App, error) {
	fiberConfig := fiber.Config{
		ErrorHandler: errorHandler(cfg.Logger, cfg.Otel),
	}

	app := fiber.New(fiberConfig)

	app.Use(recover.New(recover.Config{
		Next:              nil,
		EnableStackTrace:  true,
		StackTraceHandler: stackTraceHandler(cfg.Logger),
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "*",
		AllowMethods: "GET",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(slogfiber.NewWithConfig(
		cfg.Logger,
		slogfiber.Config{
			WithRequestID: true,
			WithSpanID:    true,
			WithTraceID:   true,
		},
	))

	routes.StatusRouter(app, cfg.Ping)

	if !cfg.SkipAuth {
		verifier, err := middleware.NewJWTVerifier(ctx, cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize jwt middleware: %w", err)
		}
		app.Use(verifier.FiberMiddleware())
	}

	routes.RegisterRoutes(app, routes.Deps{
		Students:   cfg.Students,
		NewBreaker: cfg.NewBreaker,
		Logger:     cfg.Logger,
	})

	return app, nil
}
