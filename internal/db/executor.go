package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"blog-posts/internal/apperr"
	"blog-posts/internal/telemetry"
)

// Executor runs units of work against connections checked out of a Pool.
// It is built once at startup and shared read-only by every request.
type Executor struct {
	pool    Pool
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// NewExecutor returns an Executor over pool. metrics may be nil.
func NewExecutor(pool Pool, logger *slog.Logger, metrics *telemetry.Metrics) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		pool:    pool,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("blog-posts/internal/db"),
	}
}

// Do checks a connection out of the executor's pool, gives work exclusive
// use of it and then returns it to the pool. Pool and driver failures are
// logged with their cause and come back as apperr.Internal; an *apperr.Error
// returned by work is passed through unchanged.
func Do[R any](ctx context.Context, ex *Executor, op string, work func(ctx context.Context, conn Conn) (R, error)) (R, error) {
	var zero R
	start := time.Now()

	ctx, span := ex.tracer.Start(ctx, "db."+op, trace.WithAttributes(attribute.String("db.operation", op)))
	defer span.End()

	conn, err := ex.pool.Acquire(ctx)
	if err != nil {
		ex.logger.ErrorContext(ctx, "failed to get a db connection from the pool", "op", op, "err", err)
		ex.finish(span, op, "acquire_error", start, err)
		return zero, apperr.Internal(err)
	}
	defer conn.Release()

	res, err := work(ctx, conn)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			ex.finish(span, op, ae.Kind.String(), start, nil)
			return zero, ae
		}
		ex.logger.ErrorContext(ctx, "error querying database", "op", op, "err", err)
		ex.finish(span, op, "error", start, err)
		return zero, apperr.Internal(err)
	}

	ex.finish(span, op, "ok", start, nil)
	return res, nil
}

func (ex *Executor) finish(span trace.Span, op, outcome string, start time.Time, err error) {
	ex.metrics.ObserveQuery(op, outcome, time.Since(start))
	span.SetAttributes(attribute.String("db.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
}
