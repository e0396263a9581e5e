package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"

	"github.com/swifty-companion/student-api/api"
	"github.com/swifty-companion/student-api/pkg/bootstrap"
	"github.com/swifty-companion/student-api/pkg/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := core.LoadEnv(); err != nil {
		slog.Warn("failed to load env files", "err", err)
	}

	cfg, err := core.NewConfigFromEnv()
	if err != nil {
		slog.Error("invalid environment", "err", err)
		os.Exit(1)
	}

	if err := run(ctx, &cfg); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *core.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	otelService, err := core.NewOtelService(ctx, cfg)
	if err != nil {
		return err
	}

	logger := core.NewLoggerWithOtel(*cfg, otelService)
	defer otelService.Shutdown(context.Background(), logger)

	_, span := otel.Tracer("swifty-companion").Start(ctx, "startup")
	span.AddEvent("Starting up")
	span.End()

	rt, err := bootstrap.New(cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rt.Close(shutdownCtx); err != nil {
			logger.Error("runtime shutdown failed", "err", err)
		}
	}()

	app, err := buildApp(ctx, cfg, otelService, logger, rt)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	return runServer(ctx, app, fmt.Sprintf(":%d", cfg.Port))
}

func buildApp(ctx context.Context, cfg *core.Config, otelService core.OtelService, logger *slog.Logger, rt *bootstrap.Runtime) (*fiber.App, error) {
	return api.New(ctx, &api.Config{
		Otel:       otelService,
		Logger:     logger,
		Config:     *cfg,
		Students:   rt.Scheduler,
		NewBreaker: rt.NewBreaker(),
		Ping:       rt.Ping,
	})
}

func runServer(ctx context.Context, app *fiber.App, addr string) error {
	srvErr := make(chan error, 1)

	go func() {
		srvErr <- app.Listen(addr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
