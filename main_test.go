package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swifty-companion/student-api/pkg/bootstrap"
	"github.com/swifty-companion/student-api/pkg/core"
)

type routeTest struct {
	description  string
	route        string
	expectedCode int
	expectedBody string
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	cfg := core.NewConfig(core.WithSkipAuth(), core.WithOtelDisable())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	otelService, err := core.NewOtelService(ctx, &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { otelService.Shutdown(ctx, logger) })

	rt, err := bootstrap.New(&cfg, bootstrap.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = rt.Close(closeCtx)
	})

	app, err := buildApp(ctx, &cfg, otelService, logger, rt)
	require.NoError(t, err)

	tests := []routeTest{
		{
			description:  "index route",
			route:        "/",
			expectedCode: http.StatusOK,
			expectedBody: "Backend running!",
		},
		{
			description:  "status route",
			route:        "/status",
			expectedCode: http.StatusOK,
		},
		{
			description:  "invalid user id",
			route:        "/api/users/abc/projects",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"user id must be a positive integer"}`,
		},
		{
			description:  "non existing route",
			route:        "/i-dont-exist",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"Cannot GET /i-dont-exist"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tt.route, nil)
			require.NoError(t, err)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			bodyBytes, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			body := strings.TrimSpace(string(bodyBytes))

			require.Equalf(t, tt.expectedCode, resp.StatusCode, "body=%q", body)

			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, body)
			}
		})
	}
}
