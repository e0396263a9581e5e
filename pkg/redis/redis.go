package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/swifty-companion/student-api/pkg/core"
)

const (
	defaultDialTimeout  = 2 * time.Second
	defaultReadTimeout  = 2 * time.Second
	defaultWriteTimeout = 2 * time.Second
	defaultPoolTimeout  = 2 * time.Second

	// a single scheduler worker plus the breaker, so the pool stays small
	defaultPoolSize     = 4
	defaultMinIdleConns = 1
)

// NewClient builds an instrumented go-redis client. Instrumentation failures
// are logged and do not prevent the client from being returned.
func NewClient(c core.RedisConfig, logger *slog.Logger) *redis.Client {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "redis"),
		slog.String("addr", c.Addr),
		slog.Int("db", c.DB),
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		PoolTimeout:  defaultPoolTimeout,
		PoolSize:     defaultPoolSize,
		MinIdleConns: defaultMinIdleConns,
	})

	logger.Info("initializing redis client")

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Warn("Otel Tracing Instrumentation Failed", "err", err)
	}

	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		logger.Warn("Otel Metrics instrumentation Failed", "err", err)
	}
	return rdb
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
