// Package database provides a PostgreSQL-backed implementation of the LaunchStore interface
package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/otel"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

// BackendName identifies this store in spans and metrics
const BackendName = "postgres"

//go:embed schema.sql
var schemaSQL string

const upsertSQL = `INSERT INTO launches (` + service.LaunchColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (id) DO UPDATE SET
    flight_number = EXCLUDED.flight_number,
    name          = EXCLUDED.name,
    date_utc      = EXCLUDED.date_utc,
    success       = EXCLUDED.success,
    details       = EXCLUDED.details,
    updated_at    = GREATEST(EXCLUDED.updated_at, launches.created_at)`

var dialect = service.Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Like:        "ILIKE",
	Time:        func(t time.Time) any { return t.UTC() },
	Bool:        func(b bool) any { return b },
}

// options holds configuration options for the database store
type options struct {
	pool     *pgxpool.Pool
	pipeline *resilience.Pipeline
	tracer   trace.Tracer
	metrics  *telemetry.StoreMetrics
	now      func() time.Time
}

// Option is a functional option for configuring the database store
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The store takes ownership and closes
// it on Close.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithPipeline sets the resilience pipeline every query runs through
func WithPipeline(p *resilience.Pipeline) Option {
	return func(o *options) error {
		o.pipeline = p
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database store.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithMetrics records the stored launch count after every upsert
func WithMetrics(m *telemetry.StoreMetrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithClock overrides the clock used for created_at and updated_at
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		o.now = now
		return nil
	}
}

// Store implements service.LaunchStore on PostgreSQL
type Store struct {
	pool     *pgxpool.Pool
	pipeline *resilience.Pipeline
	tracer   trace.Tracer
	metrics  *telemetry.StoreMetrics
	now      func() time.Time
}

var _ service.LaunchStore = (*Store)(nil)

// New creates a database-backed launch store and applies the schema
func New(ctx context.Context, opts ...Option) (*Store, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	if o.pipeline == nil {
		o.pipeline = resilience.New("storage", resilience.DefaultStorageConfig())
	}

	if _, err := o.pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		pool:     o.pool,
		pipeline: o.pipeline,
		tracer:   o.tracer,
		metrics:  o.metrics,
		now:      o.now,
	}, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	if s.pool != nil {
		slog.Info("Closing database connection pool")
		s.pool.Close()
	}
	return nil
}

// UpsertLaunches inserts or updates each launch by ID, one statement per launch
func (s *Store) UpsertLaunches(ctx context.Context, launches []service.Launch) (int, error) {
	ctx, span := s.startSpan(ctx, "postgres.UpsertLaunches",
		trace.WithAttributes(otel.AttrLaunchCount.Int(len(launches))))
	defer span.End()

	if len(launches) == 0 {
		return 0, nil
	}

	affected, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (int, error) {
		total := 0
		for _, l := range launches {
			tag, err := s.pool.Exec(ctx, upsertSQL,
				l.ID, l.FlightNumber, l.Name, l.DateUTC.UTC(), l.Success, l.Details, s.now().UTC())
			if err != nil {
				return total, classify(fmt.Errorf("failed to upsert launch %s: %w", l.ID, err))
			}
			total += int(tag.RowsAffected())
		}
		return total, nil
	})
	if err != nil {
		err = storeFailure("failed to upsert launches", err)
		otel.RecordError(span, err)
		return 0, err
	}

	if s.metrics != nil {
		if count, err := s.CountLaunches(ctx); err == nil {
			s.metrics.RecordLaunchesTotal(ctx, BackendName, int64(count))
		}
	}

	slog.DebugContext(ctx, "Upserted launches",
		"launch_count", len(launches),
		"rows_affected", affected,
		"request_id", middleware.GetReqID(ctx))
	return affected, nil
}

// ListLaunches returns a filtered, sorted page of launches
func (s *Store) ListLaunches(ctx context.Context, opts ...service.Option) (*service.ListLaunchesResult, error) {
	o := service.NewListLaunchesOptions(opts...)

	ctx, span := s.startSpan(ctx, "postgres.ListLaunches", trace.WithAttributes(
		otel.AttrPage.Int(o.Page),
		otel.AttrPageSize.Int(o.PageSize),
	))
	defer span.End()

	slog.DebugContext(ctx, "ListLaunches query",
		"page", o.Page,
		"page_size", o.PageSize,
		"sort_by", o.SortBy,
		"search", o.Search,
		"request_id", middleware.GetReqID(ctx))

	countQuery, pageQuery := service.BuildListQueries(dialect, o)

	result, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (*service.ListLaunchesResult, error) {
		var total int
		if err := s.pool.QueryRow(ctx, countQuery.SQL, countQuery.Args...).Scan(&total); err != nil {
			return nil, classify(err)
		}

		launches, err := s.queryLaunches(ctx, pageQuery.SQL, pageQuery.Args...)
		if err != nil {
			return nil, err
		}

		return &service.ListLaunchesResult{
			Launches:    launches,
			TotalCount:  total,
			PageSize:    o.PageSize,
			CurrentPage: o.Page,
			TotalPages:  service.TotalPages(total, o.PageSize),
		}, nil
	})
	if err != nil {
		err = storeFailure("failed to list launches", err)
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(result.Launches)))
	return result, nil
}

// GetLaunch returns a launch by ID
func (s *Store) GetLaunch(ctx context.Context, id string) (*service.Launch, error) {
	ctx, span := s.startSpan(ctx, "postgres.GetLaunch", trace.WithAttributes(otel.AttrLaunchID.String(id)))
	defer span.End()

	launch, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (*service.Launch, error) {
		row := s.pool.QueryRow(ctx, "SELECT "+service.LaunchColumns+" FROM launches WHERE id = $1", id)
		l, err := scanLaunch(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.NotFound(id)
		}
		if err != nil {
			return nil, classify(err)
		}
		return &l, nil
	})
	if err != nil {
		err = storeFailure("failed to get launch", err)
		otel.RecordError(span, err)
		return nil, err
	}
	return launch, nil
}

// ListLaunchesByDate returns every launch on date's UTC calendar day, earliest first
func (s *Store) ListLaunchesByDate(ctx context.Context, date time.Time) ([]service.Launch, error) {
	ctx, span := s.startSpan(ctx, "postgres.ListLaunchesByDate")
	defer span.End()

	launches, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) ([]service.Launch, error) {
		return s.queryLaunches(ctx,
			"SELECT "+service.LaunchColumns+" FROM launches WHERE date_utc >= $1 AND date_utc <= $2 ORDER BY date_utc ASC, id ASC",
			service.StartOfDay(date), service.EndOfDay(date))
	})
	if err != nil {
		err = storeFailure("failed to list launches by date", err)
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(launches)))
	return launches, nil
}

// CountLaunches returns the number of stored launches
func (s *Store) CountLaunches(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "postgres.CountLaunches")
	defer span.End()

	count, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (int, error) {
		var n int
		if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM launches").Scan(&n); err != nil {
			return 0, classify(err)
		}
		return n, nil
	})
	if err != nil {
		err = storeFailure("failed to count launches", err)
		otel.RecordError(span, err)
		return 0, err
	}
	return count, nil
}

func (s *Store) queryLaunches(ctx context.Context, query string, args ...any) ([]service.Launch, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	launches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (service.Launch, error) {
		return scanLaunch(row)
	})
	if err != nil {
		return nil, classify(err)
	}
	return launches, nil
}

func scanLaunch(row pgx.Row) (service.Launch, error) {
	var (
		l            service.Launch
		flightNumber int32
	)
	if err := row.Scan(&l.ID, &flightNumber, &l.Name, &l.DateUTC, &l.Success, &l.Details, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return service.Launch{}, err
	}
	l.FlightNumber = int(flightNumber)
	l.DateUTC = l.DateUTC.UTC()
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}

// storeError marks PostgreSQL failures so the pipeline can classify them
type storeError struct {
	err error
}

func (e *storeError) Error() string { return e.err.Error() }

func (e *storeError) Unwrap() error { return e.err }

// Transient reports whether the underlying PostgreSQL error is worth retrying
func (e *storeError) Transient() bool { return IsTransient(e.err) }

func classify(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{err: err}
}

// transientCodes are SQLSTATEs that may clear on retry
var transientCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"53100": {}, // disk_full
	"53300": {}, // too_many_connections
}

// IsTransient reports whether err is a PostgreSQL failure that may clear on
// retry: the SQLSTATEs above, any connection exception (class 08), or a
// failure pgconn knows happened before anything was sent.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := transientCodes[pgErr.Code]; ok {
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return pgconn.SafeToRetry(err)
}

// storeFailure keeps already classified errors and wraps the rest as KindDatabase
func storeFailure(message string, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) || errors.Is(err, context.Canceled) {
		return err
	}
	return service.Database(message, err)
}
