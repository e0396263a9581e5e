package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name string
		ping Pinger
		want int
	}{
		{"no dependency", nil, fiber.StatusOK},
		{"healthy", func(context.Context) error { return nil }, fiber.StatusOK},
		{"unreachable", func(context.Context) error { return errors.New("dial tcp: refused") }, fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/status", GetStatus(tt.ping))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/status", http.NoBody))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
