// Package bootstrap assembles the token manager, the intra client and the
// request scheduler from a core.Config. The HTTP server and the CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/swifty-companion/student-api/pkg/circuitbreaker"
	"github.com/swifty-companion/student-api/pkg/core"
	"github.com/swifty-companion/student-api/pkg/intra"
	"github.com/swifty-companion/student-api/pkg/oauthLocal"
	"github.com/swifty-companion/student-api/pkg/redis"
	"github.com/swifty-companion/student-api/pkg/scheduler"
	"github.com/swifty-companion/student-api/pkg/sqlite"
)

type Options struct {
	Logger *slog.Logger
}

// Runtime owns everything built from the config and releases it on Close.
type Runtime struct {
	Scheduler *scheduler.Scheduler
	Tokens    *oauthLocal.Manager
	// Non-nil only with the redis token store.
	Redis *goredis.Client

	logger  *slog.Logger
	closers []func() error
}

func New(cfg *core.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt := &Runtime{logger: logger}

	store, err := rt.openStore(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := oauthLocal.NewClientCredentialsFetcher(&cfg.Intra, nil)
	rt.Tokens = oauthLocal.NewManager(fetcher, store, oauthLocal.Options{Logger: logger})

	client := intra.New(&cfg.Intra, rt.Tokens, intra.Options{Logger: logger})

	rt.Scheduler = scheduler.New(client, &cfg.Intra, scheduler.Options{Logger: logger})

	logger.Info("runtime ready",
		slog.String("token_store", cfg.TokenStore.Backend),
		slog.String("intra_base_url", cfg.Intra.BaseURL),
		slog.Duration("pacing_interval", cfg.Intra.PacingInterval),
		slog.Int("max_attempts", cfg.Intra.MaxAttempts),
	)

	return rt, nil
}

func (rt *Runtime) openStore(cfg *core.Config) (oauthLocal.Store, error) {
	switch cfg.TokenStore.Backend {
	case core.TokenStoreMemory, "":
		return oauthLocal.NewMemoryStore(), nil

	case core.TokenStoreRedis:
		rdb := redis.NewClient(cfg.Redis, rt.logger)
		rt.Redis = rdb
		rt.closers = append(rt.closers, rdb.Close)
		return redis.NewTokenStore(rdb), nil

	case core.TokenStoreSQLite:
		db, err := sqlite.Open(cfg.TokenStore.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		return db.TokenStore(), nil

	default:
		return nil, fmt.Errorf("unknown token store backend %q", cfg.TokenStore.Backend)
	}
}

// Ping checks the token store when it lives outside the process.
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.Redis == nil {
		return nil
	}
	return redis.Ping(ctx, rt.Redis)
}

// NewBreaker returns a redis breaker factory, or nil without redis.
func (rt *Runtime) NewBreaker() func(name string) circuitbreaker.Breaker {
	if rt.Redis == nil {
		return nil
	}
	return func(name string) circuitbreaker.Breaker {
		return circuitbreaker.NewRedisBreaker(rt.Redis, name, circuitbreaker.DefaultOptions(), rt.logger)
	}
}

// Close drains the scheduler, then closes the stores.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs error
	if rt.Scheduler != nil {
		errs = errors.Join(errs, rt.Scheduler.Close(ctx))
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = errors.Join(errs, rt.closers[i]())
	}
	return errs
}
