package httpclient

import (
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx upstream response
type HTTPError struct {
	StatusCode int
	Reason     string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Reason)
}

// StatusLine renders the status as "Status: <code> - <reason>"
func (e *HTTPError) StatusLine() string {
	return fmt.Sprintf("Status: %d - %s", e.StatusCode, e.Reason)
}

// Transient reports whether the status is worth retrying: 408, 429 and 5xx
func (e *HTTPError) Transient() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= 500:
		return true
	}
	return false
}

// NewHTTPError creates a new HTTP error with the canonical reason phrase
func NewHTTPError(statusCode int, url string) *HTTPError {
	reason := http.StatusText(statusCode)
	if reason == "" {
		reason = "Unknown Status"
	}
	return &HTTPError{
		StatusCode: statusCode,
		Reason:     reason,
		URL:        url,
	}
}
