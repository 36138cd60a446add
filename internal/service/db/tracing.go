package database

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/otel"
)

const (
	// ServiceTracerName is the name used for the PostgreSQL store tracer
	ServiceTracerName = "github.com/stacklok/launch-registry-server/service/db"
)

// startSpan starts a new span for database operations.
// If the tracer is nil, it returns a no-op span.
// All database spans carry db.system per OTEL semantic conventions.
func (s *Store) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{
		trace.WithAttributes(semconv.DBSystemPostgreSQL, otel.AttrStoreBackend.String(BackendName)),
	}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}
