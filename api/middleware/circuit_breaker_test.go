package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swifty-companion/student-api/pkg/circuitbreaker"
)

type fakeBreaker struct {
	mu        sync.Mutex
	allowErr  error
	successes int
	failures  int
}

func (f *fakeBreaker) Allow(context.Context) error { return f.allowErr }

func (f *fakeBreaker) OnSuccess(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes++
}

func (f *fakeBreaker) OnFailure(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
}

func newBreakerApp(b *fakeBreaker, names *[]string, h fiber.Handler) *fiber.App {
	withCB := WithCircuitBreaker(func(name string) circuitbreaker.Breaker {
		*names = append(*names, name)
		return b
	})

	app := fiber.New()
	app.Get("/users/:id/projects", withCB(h))
	return app
}

func get(t *testing.T, app *fiber.App, path string) int {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, http.NoBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestWithCircuitBreaker_OneBreakerPerRoute(t *testing.T) {
	b := &fakeBreaker{}
	var names []string
	app := newBreakerApp(b, &names, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	get(t, app, "/users/1/projects")
	get(t, app, "/users/2/projects")

	assert.Equal(t, []string{"GET /users/:id/projects"}, names)
	assert.Equal(t, 2, b.successes)
}

func TestWithCircuitBreaker_OpenShortCircuits(t *testing.T) {
	b := &fakeBreaker{allowErr: circuitbreaker.ErrCircuitOpen}
	var names []string
	called := false
	app := newBreakerApp(b, &names, func(c *fiber.Ctx) error {
		called = true
		return nil
	})

	assert.Equal(t, fiber.StatusServiceUnavailable, get(t, app, "/users/1/projects"))
	assert.False(t, called)
}

func TestWithCircuitBreaker_RecordsOutcome(t *testing.T) {
	tests := []struct {
		name         string
		handler      fiber.Handler
		wantFailures int
	}{
		{"ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }, 0},
		{"not found", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "nope") }, 0},
		{"bad gateway", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "down") }, 1},
		{"plain error", func(*fiber.Ctx) error { return errors.New("boom") }, 1},
		{"5xx status", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusServiceUnavailable) }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBreaker{}
			var names []string
			app := newBreakerApp(b, &names, tt.handler)

			get(t, app, "/users/1/projects")

			assert.Equal(t, tt.wantFailures, b.failures)
			assert.Equal(t, 1-tt.wantFailures, b.successes)
		})
	}
}
