package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func launchRouter(mw func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/v1/launches/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	t.Run("nil metrics pass through", func(t *testing.T) {
		t.Parallel()

		var metrics *HTTPMetrics
		rr := httptest.NewRecorder()
		launchRouter(metrics.Middleware).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/launches/abc", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("nil provider yields nil metrics", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewHTTPMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("records by route pattern", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewHTTPMetrics(mp)
		require.NoError(t, err)

		router := launchRouter(metrics.Middleware)
		for _, id := range []string{"a", "b", "missing"} {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/launches/"+id, nil))
		}

		found := collect(t, reader, HTTPMetricsMeterName)
		total, ok := found["launch_reg_srv_http_requests_total"].(metricdata.Sum[int64])
		require.True(t, ok)

		byStatus := map[string]int64{}
		for _, dp := range total.DataPoints {
			route, _ := dp.Attributes.Value("route")
			assert.Equal(t, "/v1/launches/{id}", route.AsString())
			status, _ := dp.Attributes.Value("status_code")
			byStatus[status.AsString()] = dp.Value
		}
		assert.Equal(t, map[string]int64{"200": 2, "404": 1}, byStatus)

		active, ok := found["launch_reg_srv_http_active_requests"].(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, active.DataPoints, 1)
		assert.Equal(t, int64(0), active.DataPoints[0].Value)
	})

	t.Run("unmatched routes use a constant label", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewHTTPMetrics(mp)
		require.NoError(t, err)

		handler := metrics.Middleware(http.NotFoundHandler())
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))

		found := collect(t, reader, HTTPMetricsMeterName)
		total, ok := found["launch_reg_srv_http_requests_total"].(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, total.DataPoints, 1)
		route, _ := total.DataPoints[0].Attributes.Value("route")
		assert.Equal(t, unknownRoute, route.AsString())
	})
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("nil provider passes through", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		launchRouter(TracingMiddleware(nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/launches/abc", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus codes.Code
		wantCode   int64
	}{
		{name: "success", path: "/v1/launches/abc", wantStatus: codes.Ok, wantCode: http.StatusOK},
		{name: "client error", path: "/v1/launches/missing", wantStatus: codes.Error, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			launchRouter(TracingMiddleware(tp)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "GET /v1/launches/{id}", span.Name)
			assert.Equal(t, tt.wantStatus, span.Status.Code)

			attrs := map[string]any{}
			for _, kv := range span.Attributes {
				attrs[string(kv.Key)] = kv.Value.AsInterface()
			}
			assert.Equal(t, "/v1/launches/{id}", attrs[string(semconv.HTTPRouteKey)])
			assert.Equal(t, tt.wantCode, attrs[string(semconv.HTTPResponseStatusCodeKey)])
		})
	}
}
