package intra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swifty-companion/student-api/pkg/core"
)

// HeaderRateRemaining carries the calls left in the current one-second window.
const HeaderRateRemaining = "X-Secondly-RateLimit-Remaining"

const (
	usersPath         = "/v2/users"
	projectsUsersPath = "/v2/projects_users"
	cursusUsersPath   = "/v2/cursus_users"
)

// GetStudent looks a student up by login. Anything but exactly one match is
// reported as core.ErrNotFound.
func (c *Client) GetStudent(ctx context.Context, login string) (Student, error) {
	q := url.Values{}
	q.Set("filter[login]", login)

	var rows []Student
	if _, err := c.get(ctx, usersPath, q, &rows); err != nil {
		return Student{}, err
	}

	if len(rows) != 1 {
		c.logger.Debug("intra login lookup unmatched",
			slog.String("login", login),
			slog.Int("rows", len(rows)),
		)
		return Student{}, fmt.Errorf("no single user with login %q: %w", login, core.ErrNotFound)
	}

	return rows[0], nil
}

// GetProjectsPage returns one page of a student's project registrations.
func (c *Client) GetProjectsPage(ctx context.Context, userID string, page int) (Page[ProjectUser], error) {
	return getPage[ProjectUser](ctx, c, projectsUsersPath, userID, page)
}

// GetCursusPage returns one page of a student's cursus enrollments.
func (c *Client) GetCursusPage(ctx context.Context, userID string, page int) (Page[CursusUser], error) {
	return getPage[CursusUser](ctx, c, cursusUsersPath, userID, page)
}

func getPage[T any](ctx context.Context, c *Client, path, userID string, page int) (Page[T], error) {
	q := url.Values{}
	q.Set("filter[user_id]", userID)
	q.Set("page[number]", strconv.Itoa(page))
	q.Set("page[size]", strconv.Itoa(c.PageSize()))

	var items []T
	rl, err := c.get(ctx, path, q, &items)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{Number: page, Items: items, RateLimit: rl}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (RateLimit, error) {
	if c.opts.Timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
			defer cancel()
		}
	}

	op := http.MethodGet + " " + path
	log := c.logger.With(slog.String("op", op))

	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return RateLimit{}, fmt.Errorf("access token for %s: %w", op, err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error("intra create request failed", slog.Any("error", err))
		return RateLimit{}, fmt.Errorf("create %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token.Header())

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		log.Error("intra request failed",
			slog.Any("error", err),
			slog.Duration("latency", latency),
		)
		return RateLimit{}, &core.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return RateLimit{}, &core.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	rl := parseRateLimit(resp.Header)

	log.Info("intra response received",
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", latency),
		slog.Int("bytes", len(respBytes)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(respBytes)
		if len(snippet) > 800 {
			snippet = snippet[:800] + "..."
		}

		log.Error("intra non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("www_authenticate", resp.Header.Get("WWW-Authenticate")),
			slog.String("body_snippet", snippet),
		)

		return rl, &core.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %q", resp.Status),
		}
	}

	if err := json.Unmarshal(respBytes, out); err != nil {
		log.Error("intra decode failed", slog.Any("error", err))
		return rl, fmt.Errorf("decode %s response: %w", op, err)
	}

	return rl, nil
}

func parseRateLimit(h http.Header) RateLimit {
	raw := h.Get(HeaderRateRemaining)
	if raw == "" {
		return RateLimit{}
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return RateLimit{}
	}
	return RateLimit{Remaining: n, Known: true}
}
