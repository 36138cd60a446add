// Package otel provides OpenTelemetry span helpers shared by the store, sources and sync packages.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Attribute keys shared across spans
const (
	AttrLaunchID     = attribute.Key("launch.id")
	AttrLaunchCount  = attribute.Key("launch.count")
	AttrStoreBackend = attribute.Key("store.backend")
	AttrSourceType   = attribute.Key("source.type")
	AttrSyncRunID    = attribute.Key("sync.run_id")
	AttrPage         = attribute.Key("pagination.page")
	AttrPageSize     = attribute.Key("pagination.limit")
	AttrResultCount  = attribute.Key("result.count")
)

// StartSpan starts a span when tracer is non-nil. Otherwise it returns ctx
// unchanged with a non-recording span that is safe to End.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. The status
// description stays generic so queries and DSNs never land in span status.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
