package oauthLocal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Options struct {
	Logger *slog.Logger
	// Clock override, time.Now when nil.
	Now func() time.Time
}

// Manager hands out a currently valid bearer token, refreshing and persisting
// it when the stored one is missing or expired.
type Manager struct {
	fetcher TokenFetcher
	store   Store
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

func NewManager(fetcher TokenFetcher, store Store, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		fetcher: fetcher,
		store:   store,
		logger:  logger.With(slog.String("component", "token_manager")),
		now:     now,
	}
}

// GetValidToken returns the persisted token when it is still valid. Otherwise
// it fetches a new one and saves it before returning it. A failed fetch leaves
// the store untouched.
func (m *Manager) GetValidToken(ctx context.Context) (AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	current, err := m.store.Load(ctx)
	switch {
	case err == nil && current.ValidAt(now):
		return *current, nil
	case err != nil && !errors.Is(err, ErrNoToken):
		// unreadable state is treated like a missing token
		m.logger.Warn("persisted token unreadable, refreshing", slog.Any("error", err))
	case err == nil:
		m.logger.Debug("persisted token expired or incomplete, refreshing",
			slog.Int64("issued_at", current.IssuedAt),
			slog.Int64("expires_in", current.ExpiresIn),
		)
	}

	start := time.Now()
	fresh, err := m.fetcher.Fetch(ctx)
	latency := time.Since(start)
	if err != nil {
		m.logger.Error("token refresh failed",
			slog.Any("error", err),
			slog.Duration("latency", latency),
		)
		return AccessToken{}, err
	}

	if err := m.store.Save(ctx, *fresh); err != nil {
		m.logger.Error("token persist failed", slog.Any("error", err))
		return AccessToken{}, fmt.Errorf("persist access token: %w", err)
	}

	m.logger.Info("token refreshed",
		slog.Time("expires_at", fresh.ExpiresAt()),
		slog.String("scope", fresh.Scope),
		slog.Duration("latency", latency),
	)

	return *fresh, nil
}
