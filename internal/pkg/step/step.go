// Package step runs named units of work inside a flow as trace spans.
package step

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/futig/joke-flows"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Run executes fn as a child span called name. Errors are recorded on the span
// and returned unchanged.
func Run[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	ctxzap.Debug(ctx, "step started", zap.String("step", name))

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ctxzap.Debug(ctx, "step failed", zap.String("step", name), zap.Error(err))
		return out, err
	}

	span.SetStatus(codes.Ok, "")
	ctxzap.Debug(ctx, "step finished", zap.String("step", name))
	return out, nil
}

// Do is Run for steps without a result
func Do(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	_, err := Run(ctx, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, attrs...)
	return err
}
