package circuitbreaker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/swifty-companion/student-api/pkg/circuitbreaker"

// RedisBreaker keeps its state in three keys:
//
//	open    present while the breaker is open, expires after OpenCoolDown
//	tripped outlives open; open gone but tripped present means half-open
//	lease   held by the one caller probing while half-open
type RedisBreaker struct {
	// Redis client used to read and update the circuit state.
	rdb *redis.Client
	// Name of the breaker, part of every key.
	name   string
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

var _ Breaker = (*RedisBreaker)(nil)

func NewRedisBreaker(rdb *redis.Client, name string, opts Options, logger *slog.Logger) *RedisBreaker {
	if opts.FailureThreshold <= 0 {
		opts = DefaultOptions()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RedisBreaker{
		rdb:  rdb,
		name: name,
		opts: opts,
		logger: logger.With(
			slog.String("component", "circuit_breaker"),
			slog.String("breaker", name),
		),
		tracer: otel.Tracer(instrumentationName),
	}
}

type breakerKeys struct {
	open, fails, tripped, lease string
}

func (b *RedisBreaker) keys() breakerKeys {
	prefix := b.opts.Prefix + b.name + ":"
	return breakerKeys{
		open:    prefix + "open",
		fails:   prefix + "fails",
		tripped: prefix + "tripped",
		lease:   prefix + "lease",
	}
}

func (b *RedisBreaker) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, "circuit_breaker."+op,
		trace.WithAttributes(attribute.String("circuit_breaker.id", b.name)),
	)
}

// State reads the current state.
func (b *RedisBreaker) State(ctx context.Context) (State, error) {
	k := b.keys()

	n, err := b.rdb.Exists(ctx, k.open).Result()
	if err != nil {
		return Closed, fmt.Errorf("read breaker %s: %w", b.name, err)
	}
	if n == 1 {
		return Open, nil
	}

	n, err = b.rdb.Exists(ctx, k.tripped).Result()
	if err != nil {
		return Closed, fmt.Errorf("read breaker %s: %w", b.name, err)
	}
	if n == 1 {
		return HalfOpen, nil
	}
	return Closed, nil
}

// Allow returns nil if the call may proceed, or ErrCircuitOpen if it must be
// blocked. While half-open only the lease holder gets through.
func (b *RedisBreaker) Allow(ctx context.Context) error {
	ctx, span := b.startSpan(ctx, "Allow")
	defer span.End()

	state, err := b.State(ctx)
	if err != nil {
		span.RecordError(err)
		b.logger.WarnContext(ctx, "breaker state unknown", slog.Any("error", err), slog.Bool("fail_open", b.opts.FailOpen))
		if b.opts.FailOpen {
			return nil
		}
		return ErrCircuitOpen
	}

	span.SetAttributes(attribute.String("circuit_breaker.state", state.String()))

	switch state {
	case Open:
		return ErrCircuitOpen
	case HalfOpen:
		won, err := b.rdb.SetNX(ctx, b.keys().lease, "1", b.opts.HalfOpenLease).Result()
		if err != nil {
			span.RecordError(err)
			if b.opts.FailOpen {
				return nil
			}
			return ErrCircuitOpen
		}
		if !won {
			return ErrCircuitOpen
		}
		b.logger.InfoContext(ctx, "half-open probe allowed")
		return nil
	default:
		return nil
	}
}

// OnSuccess closes the breaker.
func (b *RedisBreaker) OnSuccess(ctx context.Context) {
	ctx, span := b.startSpan(ctx, "OnSuccess")
	defer span.End()

	k := b.keys()
	cleared, err := b.rdb.Del(ctx, k.fails, k.tripped, k.lease).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to close circuit breaker")
		b.logger.ErrorContext(ctx, "failed to close circuit breaker", slog.Any("error", err))
		return
	}
	if cleared > 0 {
		b.logger.DebugContext(ctx, "circuit breaker reset")
	}
}

// OnFailure counts a failure inside FailWindow and opens the breaker at the
// threshold. A failed half-open probe reopens it immediately.
func (b *RedisBreaker) OnFailure(ctx context.Context) {
	ctx, span := b.startSpan(ctx, "OnFailure")
	defer span.End()

	k := b.keys()

	probing, err := b.rdb.Exists(ctx, k.lease).Result()
	if err == nil && probing == 1 {
		b.open(ctx, span, "half-open probe failed")
		return
	}

	fails, err := b.rdb.Incr(ctx, k.fails).Result()
	if err != nil {
		span.RecordError(err)
		return
	}

	ttl, err := b.rdb.PTTL(ctx, k.fails).Result()
	if err == nil && ttl < 0 {
		_ = b.rdb.PExpire(ctx, k.fails, b.opts.FailWindow).Err()
	}

	if int(fails) >= b.opts.FailureThreshold {
		b.open(ctx, span, "failure threshold reached")
	}
}

func (b *RedisBreaker) open(ctx context.Context, span trace.Span, reason string) {
	k := b.keys()

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k.open, "1", b.opts.OpenCoolDown)
		pipe.Set(ctx, k.tripped, "1", b.opts.OpenCoolDown+b.opts.FailWindow+b.opts.HalfOpenLease)
		pipe.Del(ctx, k.fails, k.lease)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open circuit breaker")
		b.logger.ErrorContext(ctx, "failed to open circuit breaker", slog.Any("error", err))
		return
	}

	b.logger.WarnContext(ctx, "circuit breaker opened",
		slog.String("reason", reason),
		slog.Duration("cooldown", b.opts.OpenCoolDown),
	)
}
