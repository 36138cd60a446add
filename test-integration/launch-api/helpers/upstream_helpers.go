package helpers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
)

// MockLaunchAPIBuilder provides a fluent interface for building mock launch APIs
type MockLaunchAPIBuilder struct {
	launches []TestLaunch
	envelope string
	failing  int
}

// NewMockLaunchAPIBuilder creates a new mock launch API builder
func NewMockLaunchAPIBuilder() *MockLaunchAPIBuilder {
	return &MockLaunchAPIBuilder{}
}

// WithLaunches sets the launches served by the API
func (b *MockLaunchAPIBuilder) WithLaunches(launches []TestLaunch) *MockLaunchAPIBuilder {
	b.launches = launches
	return b
}

// WithEnvelope wraps the launch array in an object under key
func (b *MockLaunchAPIBuilder) WithEnvelope(key string) *MockLaunchAPIBuilder {
	b.envelope = key
	return b
}

// WithFailingStatus answers every request with status until Recover is called
func (b *MockLaunchAPIBuilder) WithFailingStatus(status int) *MockLaunchAPIBuilder {
	b.failing = status
	return b
}

// MockLaunchAPI is a running mock launch API
type MockLaunchAPI struct {
	*httptest.Server

	mu       sync.Mutex
	launches []TestLaunch
	envelope string
	failing  int
	requests atomic.Int32
}

// Build creates and starts the mock HTTP server
func (b *MockLaunchAPIBuilder) Build() *MockLaunchAPI {
	api := &MockLaunchAPI{
		launches: b.launches,
		envelope: b.envelope,
		failing:  b.failing,
	}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	return api
}

// SetLaunches replaces the served launches
func (a *MockLaunchAPI) SetLaunches(launches []TestLaunch) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.launches = launches
}

// Recover makes the API answer successfully again
func (a *MockLaunchAPI) Recover() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failing = 0
}

// Requests reports how many requests were served
func (a *MockLaunchAPI) Requests() int {
	return int(a.requests.Load())
}

func (a *MockLaunchAPI) serve(w http.ResponseWriter, _ *http.Request) {
	a.requests.Add(1)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failing != 0 {
		w.WriteHeader(a.failing)
		return
	}

	body := LaunchesJSON(a.launches)
	if a.envelope != "" {
		body = append(append([]byte(`{"`+a.envelope+`": `), body...), []byte(`, "page": 1}`)...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
