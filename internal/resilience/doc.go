// Package resilience provides the failure-handling pipeline used around
// upstream fetches, storage writes and whole sync cycles.
//
// A Pipeline composes three stages, applied outer to inner:
//
//   - Timeout: bounds the whole execution, retries included
//   - Retry: exponential backoff with jitter, only for errors the
//     pipeline's retry predicate recognises as transient
//   - CircuitBreaker: optional; fails fast once the failure ratio over a
//     sliding sampling window crosses the configured threshold
//
// Pipelines are built once and shared. The circuit breaker is the only
// mutable state and is safe for concurrent use.
//
//	p := resilience.New("http", resilience.DefaultHTTPConfig(),
//	    resilience.WithRetryPredicate(resilience.IsTransient))
//	body, err := resilience.Execute(ctx, p, func(ctx context.Context) ([]byte, error) {
//	    return client.Get(ctx, url)
//	})
package resilience
