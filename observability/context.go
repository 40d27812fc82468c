package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one traced fixture load or unload.
type Operation struct {
	Fixture   string
	Table     string
	StartTime time.Time
	span      trace.Span
}

// StartOperation starts a span named spanName tagged with the fixture and table.
func StartOperation(ctx context.Context, spanName, fixture, table string) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName, trace.WithAttributes(
		attribute.String(AttrFixture, fixture),
		attribute.String(AttrTable, table),
	))
	return ctx, &Operation{
		Fixture:   fixture,
		Table:     table,
		StartTime: time.Now(),
		span:      span,
	}
}

// SetRows records how many rows the operation touched.
func (op *Operation) SetRows(rows int) {
	op.span.SetAttributes(attribute.Int(AttrRows, rows))
}

// SetFailures records how many rows the operation failed to handle.
func (op *Operation) SetFailures(failures int) {
	op.span.SetAttributes(attribute.Int(AttrFailures, failures))
}

// End ends the span, recording err when non-nil, and returns the elapsed time.
func (op *Operation) End(err error) time.Duration {
	duration := time.Since(op.StartTime)
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	}
	op.span.SetAttributes(attribute.Int64(AttrDurationMs, duration.Milliseconds()))
	op.span.End()
	return duration
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
