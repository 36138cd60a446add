package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

// ErrTimeout is wrapped by the error returned when the pipeline timeout elapses
var ErrTimeout = errors.New("resilience pipeline timed out")

// Pipeline applies timeout, retry and circuit breaking to an operation
type Pipeline struct {
	name             string
	cfg              Config
	shouldRetry      func(error) bool
	isBreakerFailure func(error) bool
	breaker          *CircuitBreaker
	logger           *slog.Logger
	metrics          *telemetry.ResilienceMetrics
	now              func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithRetryPredicate sets which errors are retried. Defaults to IsTransient.
func WithRetryPredicate(fn func(error) bool) Option {
	return func(p *Pipeline) {
		p.shouldRetry = fn
	}
}

// WithBreakerPredicate sets which errors count as breaker failures.
// Defaults to IsFailure, so terminal responses such as 404 count too.
func WithBreakerPredicate(fn func(error) bool) Option {
	return func(p *Pipeline) {
		p.isBreakerFailure = fn
	}
}

// WithLogger sets the logger used for retry and breaker events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.ResilienceMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock overrides the clock used by the circuit breaker
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New builds a pipeline named name. The name labels logs and metrics.
func New(name string, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:        name,
		cfg:         cfg,
		shouldRetry: IsTransient,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.isBreakerFailure == nil {
		p.isBreakerFailure = IsFailure
	}
	if cfg.Breaker != nil {
		p.breaker = NewCircuitBreaker(*cfg.Breaker, p.now, p.onStateChange)
	}
	return p
}

// Name returns the pipeline name
func (p *Pipeline) Name() string {
	return p.name
}

// Breaker returns the circuit breaker, or nil when the pipeline has none
func (p *Pipeline) Breaker() *CircuitBreaker {
	return p.breaker
}

// Execute runs op through the pipeline. The timeout bounds every attempt and
// every backoff wait together. Non-transient errors and ErrCircuitOpen are
// returned after a single attempt.
func Execute[T any](ctx context.Context, p *Pipeline, op func(context.Context) (T, error)) (T, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.cfg.Timeout, ErrTimeout)
		defer cancel()
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := guarded(ctx, p, op)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || !p.shouldRetry(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, delay time.Duration) {
		p.logger.WarnContext(ctx, "Retrying operation",
			"pipeline", p.name,
			"attempt", attempt,
			"max_retries", p.cfg.MaxRetries,
			"delay", delay,
			"error", err)
		p.metrics.RecordRetry(ctx, p.name)
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(p.cfg.MaxRetries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return res, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}

	if errors.Is(context.Cause(ctx), ErrTimeout) {
		if !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		var zero T
		return zero, service.NewError(service.KindTimeout,
			fmt.Sprintf("%s operation timed out after %s", p.name, p.cfg.Timeout), err)
	}
	return res, err
}

// guarded runs a single attempt behind the circuit breaker
func guarded[T any](ctx context.Context, p *Pipeline, op func(context.Context) (T, error)) (T, error) {
	if p.breaker == nil {
		return op(ctx)
	}

	trial, err := p.breaker.acquire()
	if err != nil {
		var zero T
		return zero, err
	}

	completed := false
	defer func() {
		if !completed {
			// a panicking op counts as a failure and frees the half-open trial
			p.breaker.release(trial, true, true)
		}
	}()

	res, err := op(ctx)
	completed = true
	counted := err == nil || !errors.Is(err, context.Canceled)
	p.breaker.release(trial, counted, err != nil && p.isBreakerFailure(err))
	return res, err
}

func (p *Pipeline) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = p.cfg.JitterFactor
	b.MaxInterval = p.cfg.MaxDelay
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	return b
}

func (p *Pipeline) onStateChange(from, to State) {
	ctx := context.Background()
	attrs := []any{"pipeline", p.name, "from", from.String(), "to", to.String()}
	switch to {
	case StateOpen:
		p.logger.Error("Circuit breaker opened", append(attrs, "break_duration", p.cfg.Breaker.BreakDuration)...)
	case StateHalfOpen:
		p.logger.Info("Circuit breaker half-open, allowing trial call", attrs...)
	case StateClosed:
		p.logger.Info("Circuit breaker closed", attrs...)
	}
	p.metrics.RecordBreakerTransition(ctx, p.name, to.String())
}
