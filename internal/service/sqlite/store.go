// Package sqlite provides a SQLite-backed implementation of the LaunchStore interface
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/stacklok/launch-registry-server/internal/otel"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

// BackendName identifies this store in spans and metrics
const BackendName = "sqlite"

//go:embed schema.sql
var schemaSQL string

const upsertSQL = `INSERT INTO launches (` + service.LaunchColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    flight_number = excluded.flight_number,
    name          = excluded.name,
    date_utc      = excluded.date_utc,
    success       = excluded.success,
    details       = excluded.details,
    updated_at    = MAX(excluded.updated_at, launches.created_at)`

// foldFunc lower-cases text with Go's Unicode tables. SQLite's LIKE and
// LOWER only fold ASCII.
const foldFunc = "launch_fold"

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1,
		func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
}

// dialect stores times as Unix milliseconds and outcomes as 0/1
var dialect = service.Dialect{
	Placeholder: func(int) string { return "?" },
	Like:        "LIKE",
	FoldCase:    func(column string) string { return foldFunc + "(" + column + ")" },
	Time:        func(t time.Time) any { return toMillis(t) },
	Bool: func(b bool) any {
		if b {
			return 1
		}
		return 0
	},
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Option configures the store
type Option func(*Store)

// WithTracer enables tracing of store operations
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

// WithMetrics records the stored launch count after every upsert
func WithMetrics(m *telemetry.StoreMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock overrides the clock used for created_at and updated_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store persists launches in a single SQLite table
type Store struct {
	db       *sql.DB
	pipeline *resilience.Pipeline
	tracer   trace.Tracer
	metrics  *telemetry.StoreMetrics
	now      func() time.Time
}

var _ service.LaunchStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema. Every operation runs through pipeline; nil selects the default
// storage policy.
func Open(ctx context.Context, path string, pipeline *resilience.Pipeline, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if pipeline == nil {
		pipeline = resilience.New("storage", resilience.DefaultStorageConfig())
	}
	s := &Store{
		db:       db,
		pipeline: pipeline,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	slog.Info("SQLite launch store opened", "path", cleanPath)
	return s, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertLaunches inserts or updates each launch by ID. Each record is its own
// statement; a failed batch is replayed by the pipeline, which is safe because
// the upsert is idempotent.
func (s *Store) UpsertLaunches(ctx context.Context, launches []service.Launch) (int, error) {
	ctx, span := s.startSpan(ctx, "sqlite.UpsertLaunches",
		trace.WithAttributes(otel.AttrLaunchCount.Int(len(launches))))
	defer span.End()

	if len(launches) == 0 {
		return 0, nil
	}

	affected, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (int, error) {
		stmt, err := s.db.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return 0, classify(err)
		}
		defer stmt.Close()

		total := 0
		for _, l := range launches {
			now := toMillis(s.now())
			res, err := stmt.ExecContext(ctx,
				l.ID, l.FlightNumber, l.Name, toMillis(l.DateUTC), successValue(l.Success), l.Details, now, now)
			if err != nil {
				return total, classify(fmt.Errorf("failed to upsert launch %s: %w", l.ID, err))
			}
			n, err := res.RowsAffected()
			if err != nil {
				return total, classify(err)
			}
			total += int(n)
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

	slog.DebugContext(ctx, "Upserted launches", "launch_count", len(launches), "rows_affected", affected)
	return affected, nil
}

// ListLaunches returns a filtered, sorted page of launches
func (s *Store) ListLaunches(ctx context.Context, opts ...service.Option) (*service.ListLaunchesResult, error) {
	o := service.NewListLaunchesOptions(opts...)

	ctx, span := s.startSpan(ctx, "sqlite.ListLaunches", trace.WithAttributes(
		otel.AttrPage.Int(o.Page),
		otel.AttrPageSize.Int(o.PageSize),
	))
	defer span.End()

	countQuery, pageQuery := service.BuildListQueries(dialect, o)

	result, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (*service.ListLaunchesResult, error) {
		var total int
		if err := s.db.QueryRowContext(ctx, countQuery.SQL, countQuery.Args...).Scan(&total); err != nil {
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
	ctx, span := s.startSpan(ctx, "sqlite.GetLaunch", trace.WithAttributes(otel.AttrLaunchID.String(id)))
	defer span.End()

	launch, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (*service.Launch, error) {
		row := s.db.QueryRowContext(ctx, "SELECT "+service.LaunchColumns+" FROM launches WHERE id = ?", id)
		l, err := scanLaunch(row)
		if errors.Is(err, sql.ErrNoRows) {
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
	ctx, span := s.startSpan(ctx, "sqlite.ListLaunchesByDate")
	defer span.End()

	from, to := toMillis(service.StartOfDay(date)), toMillis(service.EndOfDay(date))
	launches, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) ([]service.Launch, error) {
		return s.queryLaunches(ctx,
			"SELECT "+service.LaunchColumns+" FROM launches WHERE date_utc >= ? AND date_utc <= ? ORDER BY date_utc ASC, id ASC",
			from, to)
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
	ctx, span := s.startSpan(ctx, "sqlite.CountLaunches")
	defer span.End()

	count, err := resilience.Execute(ctx, s.pipeline, func(ctx context.Context) (int, error) {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM launches").Scan(&n); err != nil {
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
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	launches := make([]service.Launch, 0)
	for rows.Next() {
		l, err := scanLaunch(rows)
		if err != nil {
			return nil, classify(err)
		}
		launches = append(launches, l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return launches, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLaunch(row scanner) (service.Launch, error) {
	var (
		l                          service.Launch
		date, createdAt, updatedAt int64
		success                    sql.NullBool
	)
	if err := row.Scan(&l.ID, &l.FlightNumber, &l.Name, &date, &success, &l.Details, &createdAt, &updatedAt); err != nil {
		return service.Launch{}, err
	}
	l.DateUTC = fromMillis(date)
	l.CreatedAt = fromMillis(createdAt)
	l.UpdatedAt = fromMillis(updatedAt)
	if success.Valid {
		l.Success = &success.Bool
	}
	return l, nil
}

func successValue(success *bool) any {
	if success == nil {
		return nil
	}
	return dialect.Bool(*success)
}

// storeError marks SQLite failures so the pipeline can classify them
type storeError struct {
	err error
}

func (e *storeError) Error() string { return e.err.Error() }

func (e *storeError) Unwrap() error { return e.err }

// Transient reports whether the underlying SQLite error is worth retrying
func (e *storeError) Transient() bool { return IsTransient(e.err) }

func classify(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{err: err}
}

// IsTransient reports whether err carries a SQLite result code that may clear
// on retry: BUSY, LOCKED, IOERR or FULL.
func IsTransient(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// extended result codes keep the primary code in the low byte
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_IOERR, sqlite3lib.SQLITE_FULL:
		return true
	}
	return false
}

// storeFailure keeps already classified errors and wraps the rest as KindDatabase
func storeFailure(message string, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) || errors.Is(err, context.Canceled) {
		return err
	}
	return service.Database(message, err)
}
