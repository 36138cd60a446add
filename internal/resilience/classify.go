package resilience

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Transient is implemented by errors that know whether retrying may help,
// e.g. an upstream HTTP status or a database lock code.
type Transient interface {
	Transient() bool
}

// IsTransient reports whether err is worth retrying: errors implementing
// Transient decide for themselves, and connection-level network failures are
// transient. Cancellation and open circuits never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	var t Transient
	if errors.As(err, &t) {
		return t.Transient()
	}

	return isNetworkFailure(err)
}

// IsFailure reports whether err counts against the circuit breaker. Every
// failed attempt does, retryable or not; caller cancellation is filtered out
// before the predicate is consulted.
func IsFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrCircuitOpen)
}

func isNetworkFailure(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// per-attempt deadlines surface as net.Error timeouts
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && (dnsErr.IsTemporary || dnsErr.IsTimeout)
}
