package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/swifty-companion/student-api/pkg/core"
	"github.com/swifty-companion/student-api/pkg/intra"
	"github.com/swifty-companion/student-api/pkg/scheduler"
)

// Long enough for a few retries and a multi-page fetch behind a busy queue.
const fetchTimeout = 60 * time.Second

// StudentService is the request scheduler as seen by the handlers.
type StudentService interface {
	FetchStudent(ctx context.Context, login string) *scheduler.Future[intra.Student]
	FetchProjects(ctx context.Context, userID string) *scheduler.Future[[]intra.ProjectUser]
	FetchSkills(ctx context.Context, userID string) *scheduler.Future[scheduler.Skills]
	FetchProfile(ctx context.Context, login string) (scheduler.Profile, error)
}

func StudentHandler(svc StudentService, logger *slog.Logger) fiber.Handler {
	logger = handlerLogger(logger, "StudentHandler")

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), fetchTimeout)
		defer cancel()

		login := c.Params("login")
		student, err := svc.FetchStudent(ctx, login).Wait(ctx)
		if err != nil {
			return fetchError(logger, err, slog.String("login", login))
		}

		return c.Status(fiber.StatusOK).JSON(student)
	}
}

func ProfileHandler(svc StudentService, logger *slog.Logger) fiber.Handler {
	logger = handlerLogger(logger, "ProfileHandler")

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), fetchTimeout)
		defer cancel()

		login := c.Params("login")
		profile, err := svc.FetchProfile(ctx, login)
		if err != nil {
			return fetchError(logger, err, slog.String("login", login))
		}

		return c.Status(fiber.StatusOK).JSON(profile)
	}
}

func ProjectsHandler(svc StudentService, logger *slog.Logger) fiber.Handler {
	logger = handlerLogger(logger, "ProjectsHandler")

	return func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), fetchTimeout)
		defer cancel()

		projects, err := svc.FetchProjects(ctx, userID).Wait(ctx)
		if err != nil {
			return fetchError(logger, err, slog.String("user_id", userID))
		}

		return c.Status(fiber.StatusOK).JSON(projects)
	}
}

func SkillsHandler(svc StudentService, logger *slog.Logger) fiber.Handler {
	logger = handlerLogger(logger, "SkillsHandler")

	return func(c *fiber.Ctx) error {
		userID, err := userIDParam(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), fetchTimeout)
		defer cancel()

		skills, err := svc.FetchSkills(ctx, userID).Wait(ctx)
		if err != nil {
			return fetchError(logger, err, slog.String("user_id", userID))
		}

		return c.Status(fiber.StatusOK).JSON(skills)
	}
}

func handlerLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("handler", name))
}

func userIDParam(c *fiber.Ctx) (string, error) {
	raw := c.Params("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return "", fiber.NewError(fiber.StatusBadRequest, "user id must be a positive integer")
	}
	return strconv.Itoa(id), nil
}

// fetchError tells "no such student" apart from "try again later".
func fetchError(logger *slog.Logger, err error, attrs ...any) error {
	log := logger.With(attrs...)

	switch {
	case core.IsNotFound(err):
		log.Info("student not found", slog.Any("err", err))
		return fiber.NewError(fiber.StatusNotFound, "student not found")

	case errors.Is(err, scheduler.ErrRetriesExhausted), core.IsNetworkError(err):
		log.Error("school API request failed", slog.Any("err", err))
		return fiber.NewError(fiber.StatusBadGateway, "school API unavailable, please retry")

	case errors.Is(err, scheduler.ErrClosed):
		log.Warn("request refused during shutdown")
		return fiber.NewError(fiber.StatusServiceUnavailable, "shutting down")

	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out waiting for the queue", slog.Any("err", err))
		return fiber.NewError(fiber.StatusGatewayTimeout, "school API request timed out")

	default:
		log.Error("unexpected fetch failure", slog.Any("err", err))
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
