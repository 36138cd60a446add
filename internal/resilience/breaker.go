package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking the operation while the circuit is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the circuit breaker state
type State int

const (
	// StateClosed lets every call through and samples outcomes
	StateClosed State = iota
	// StateOpen rejects every call until the break duration elapses
	StateOpen
	// StateHalfOpen lets a single trial call through
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

type sample struct {
	at     time.Time
	failed bool
}

// CircuitBreaker tracks the failure ratio of calls over a sliding window
type CircuitBreaker struct {
	cfg           BreakerConfig
	now           func() time.Time
	onStateChange func(from, to State)

	mu            sync.Mutex
	state         State
	openedAt      time.Time
	samples       []sample
	trialInFlight bool
}

// NewCircuitBreaker creates a closed breaker. onStateChange, when non-nil, is
// invoked outside the breaker lock after every transition.
func NewCircuitBreaker(cfg BreakerConfig, now func() time.Time, onStateChange func(from, to State)) *CircuitBreaker {
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{
		cfg:           cfg,
		now:           now,
		onStateChange: onStateChange,
	}
}

// State returns the current state. An open circuit whose break has elapsed
// still reports StateOpen until the next call claims the trial.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// acquire reports whether a call may proceed and whether it is the half-open trial
func (cb *CircuitBreaker) acquire() (trial bool, err error) {
	cb.mu.Lock()
	var from State
	transitioned := false
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.BreakDuration {
			cb.mu.Unlock()
			return false, ErrCircuitOpen
		}
		from, transitioned = cb.state, true
		cb.state = StateHalfOpen
		cb.trialInFlight = true
		trial = true
	case StateHalfOpen:
		if cb.trialInFlight {
			cb.mu.Unlock()
			return false, ErrCircuitOpen
		}
		cb.trialInFlight = true
		trial = true
	}
	cb.mu.Unlock()

	if transitioned {
		cb.notify(from, StateHalfOpen)
	}
	return trial, nil
}

// release records the outcome of a call admitted by acquire. Calls whose
// outcome should not count (caller cancellation) pass counted=false.
func (cb *CircuitBreaker) release(trial, counted, failed bool) {
	cb.mu.Lock()
	from := cb.state
	to := from

	switch {
	case trial:
		cb.trialInFlight = false
		if !counted {
			break
		}
		if failed {
			cb.open()
		} else {
			cb.state = StateClosed
			cb.samples = nil
		}
		to = cb.state
	case counted && cb.state == StateClosed:
		now := cb.now()
		cb.samples = append(cb.samples, sample{at: now, failed: failed})
		cb.prune(now)
		if cb.shouldOpen() {
			cb.open()
			to = cb.state
		}
	}
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.samples = nil
}

func (cb *CircuitBreaker) prune(now time.Time) {
	cutoff := now.Add(-cb.cfg.SamplingDuration)
	i := 0
	for i < len(cb.samples) && !cb.samples[i].at.After(cutoff) {
		i++
	}
	cb.samples = cb.samples[i:]
}

func (cb *CircuitBreaker) shouldOpen() bool {
	if len(cb.samples) < cb.cfg.MinimumThroughput {
		return false
	}
	failures := 0
	for _, s := range cb.samples {
		if s.failed {
			failures++
		}
	}
	return float64(failures)/float64(len(cb.samples)) >= cb.cfg.FailureRatio
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}
