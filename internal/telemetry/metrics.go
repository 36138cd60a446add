// Package telemetry provides OpenTelemetry instrumentation for the launch registry server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// StoreMetricsMeterName is the name used for the launch store metrics meter
	StoreMetricsMeterName = "github.com/stacklok/launch-registry-server/store"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/launch-registry-server/sync"

	// ResilienceMetricsMeterName is the name used for the resilience pipeline meter
	ResilienceMetricsMeterName = "github.com/stacklok/launch-registry-server/resilience"
)

// StoreMetrics holds the OpenTelemetry instruments for the launch store
type StoreMetrics struct {
	launchesTotal metric.Int64Gauge
}

// NewStoreMetrics creates a new StoreMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewStoreMetrics(provider metric.MeterProvider) (*StoreMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(StoreMetricsMeterName)

	launchesTotal, err := meter.Int64Gauge(
		"launch_reg_srv_launches_total",
		metric.WithDescription("Number of launches in the local store"),
		metric.WithUnit("{launch}"),
	)
	if err != nil {
		return nil, err
	}

	return &StoreMetrics{
		launchesTotal: launchesTotal,
	}, nil
}

// RecordLaunchesTotal records the current number of stored launches
func (m *StoreMetrics) RecordLaunchesTotal(ctx context.Context, backend string, count int64) {
	if m == nil || m.launchesTotal == nil {
		return
	}

	m.launchesTotal.Record(ctx, count, metric.WithAttributes(attribute.String("backend", backend)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration    metric.Float64Histogram
	recordsUpserted metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"launch_reg_srv_sync_duration_seconds",
		metric.WithDescription("Duration of sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	recordsUpserted, err := meter.Int64Counter(
		"launch_reg_srv_sync_records_upserted_total",
		metric.WithDescription("Number of launch records upserted by sync operations"),
		metric.WithUnit("{launch}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:    syncDuration,
		recordsUpserted: recordsUpserted,
	}, nil
}

// RecordSyncDuration records the duration and outcome of a sync operation
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, trigger string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("trigger", trigger),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordUpserted adds the number of records written by a sync operation
func (m *SyncMetrics) RecordUpserted(ctx context.Context, count int) {
	if m == nil || m.recordsUpserted == nil {
		return
	}

	m.recordsUpserted.Add(ctx, int64(count))
}

// ResilienceMetrics holds the OpenTelemetry instruments for resilience pipelines
type ResilienceMetrics struct {
	retries            metric.Int64Counter
	breakerTransitions metric.Int64Counter
}

// NewResilienceMetrics creates a new ResilienceMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewResilienceMetrics(provider metric.MeterProvider) (*ResilienceMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ResilienceMetricsMeterName)

	retries, err := meter.Int64Counter(
		"launch_reg_srv_retries_total",
		metric.WithDescription("Number of retries scheduled by resilience pipelines"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	breakerTransitions, err := meter.Int64Counter(
		"launch_reg_srv_circuit_breaker_transitions_total",
		metric.WithDescription("Number of circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &ResilienceMetrics{
		retries:            retries,
		breakerTransitions: breakerTransitions,
	}, nil
}

// RecordRetry counts a retry scheduled by the named pipeline
func (m *ResilienceMetrics) RecordRetry(ctx context.Context, pipeline string) {
	if m == nil || m.retries == nil {
		return
	}

	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("pipeline", pipeline)))
}

// RecordBreakerTransition counts a circuit breaker entering the given state
func (m *ResilienceMetrics) RecordBreakerTransition(ctx context.Context, pipeline, state string) {
	if m == nil || m.breakerTransitions == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("pipeline", pipeline),
		attribute.String("state", state),
	}

	m.breakerTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}
