package sqlite

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/otel"
)

// startSpan starts a span tagged with db.system=sqlite. A nil tracer yields a no-op span.
func (s *Store) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{
		trace.WithAttributes(semconv.DBSystemSqlite, otel.AttrStoreBackend.String(BackendName)),
	}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}
