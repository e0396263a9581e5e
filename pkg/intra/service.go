// Package intra is the HTTP client for the school's public REST API.
package intra

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/swifty-companion/student-api/pkg/core"
	"github.com/swifty-companion/student-api/pkg/oauthLocal"
)

// HTTPTransport is satisfied by *http.Client.
type HTTPTransport interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource hands out the bearer token attached to every resource call.
type TokenSource interface {
	GetValidToken(ctx context.Context) (oauthLocal.AccessToken, error)
}

type Options struct {
	// Override for testing the HTTP client
	HTTPClient HTTPTransport
	// Structured logger using slog package
	Logger *slog.Logger
	// Context timeout applied to each call without a deadline
	Timeout time.Duration
}

// Client performs single, unpaced calls. Pacing and pagination are the
// caller's job.
type Client struct {
	cfg    *core.IntraConfig
	tokens TokenSource
	client HTTPTransport
	logger *slog.Logger
	opts   Options
}

func New(cfg *core.IntraConfig, tokens TokenSource, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "intra"),
		slog.String("base_url", cfg.BaseURL),
	)

	client := opts.HTTPClient
	if client == nil {
		client = oauthLocal.NewHTTPClient(cfg.HTTPTimeout)
	}

	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: client,
		logger: logger,
		opts:   opts,
	}
}

const defaultPageSize = 100

func (c *Client) PageSize() int {
	if c.cfg.PageSize <= 0 {
		return defaultPageSize
	}
	return c.cfg.PageSize
}
