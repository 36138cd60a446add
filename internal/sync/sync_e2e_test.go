package sync_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/launch-registry-server/internal/httpclient"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service/sqlite"
	"github.com/stacklok/launch-registry-server/internal/sources"
	"github.com/stacklok/launch-registry-server/internal/sync"
)

type lockedBuffer struct {
	mu  gosync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const falconSatPayload = `[{"id": "5eb87cd9ffd86e000604b32a", "flight_number": 1, "name": "FalconSat",
	"date_utc": "2006-03-24T22:30:00.000Z", "success": false, "details": "Engine failure"}]`

// flakyUpstream answers 500 failures times before serving the payload
func flakyUpstream(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(falconSatPayload))
	}))
	upstream.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(upstream.Close)
	return upstream, &calls
}

// TestPerformSync_RecoversFromTransientUpstreamFailures drives full cycles
// through the default http policy (3 retries) against an upstream that fails
// with 500 before answering.
func TestPerformSync_RecoversFromTransientUpstreamFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		failures     int32
		wantCalls    int32
		wantWarnings int
	}{
		{name: "two failures then success", failures: 2, wantCalls: 3, wantWarnings: 2},
		{name: "three failures then success", failures: 3, wantCalls: 4, wantWarnings: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			upstream, calls := flakyUpstream(t, tt.failures)

			logs := &lockedBuffer{}
			logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			cfg := resilience.DefaultHTTPConfig()
			cfg.BaseDelay = time.Millisecond
			cfg.MaxDelay = 5 * time.Millisecond
			httpPipeline := resilience.New("http", cfg, resilience.WithLogger(logger))

			store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "launches.db"), nil)
			require.NoError(t, err)
			defer store.Close()

			fetcher := sources.NewAPIFetcher(upstream.URL, httpclient.NewDefaultClient(time.Second), httpPipeline, nil)
			result, syncErr := sync.NewDefaultSyncManager(fetcher, store).PerformSync(context.Background())

			require.Nil(t, syncErr)
			assert.Equal(t, 1, result.Upserted)
			assert.Equal(t, 1, result.LaunchCount)
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.wantWarnings, strings.Count(logs.String(), "Retrying operation"))
			assert.Equal(t, resilience.StateClosed, httpPipeline.Breaker().State())

			stored, err := store.GetLaunch(context.Background(), "5eb87cd9ffd86e000604b32a")
			require.NoError(t, err)
			assert.Equal(t, "FalconSat", stored.Name)
			require.NotNil(t, stored.Success)
			assert.False(t, *stored.Success)
		})
	}
}

func TestPerformSync_RetriesExhausted(t *testing.T) {
	t.Parallel()

	upstream, calls := flakyUpstream(t, 4)

	cfg := resilience.DefaultHTTPConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	httpPipeline := resilience.New("http", cfg)

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "launches.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	fetcher := sources.NewAPIFetcher(upstream.URL, httpclient.NewDefaultClient(time.Second), httpPipeline, nil)
	_, syncErr := sync.NewDefaultSyncManager(fetcher, store).PerformSync(context.Background())

	require.NotNil(t, syncErr)
	assert.Equal(t, sync.ReasonFetchFailed, syncErr.Reason)
	assert.Equal(t, int32(4), calls.Load())

	count, err := store.CountLaunches(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
