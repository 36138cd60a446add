package sources

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/stacklok/launch-registry-server/internal/httpclient"
	"github.com/stacklok/launch-registry-server/internal/otel"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// APIFetcher fetches launches from the upstream launch API
type APIFetcher struct {
	endpoint   string
	resultPath string
	client     httpclient.Client
	pipeline   *resilience.Pipeline
	tracer     trace.Tracer
}

var _ LaunchFetcher = (*APIFetcher)(nil)

// APIOption configures an APIFetcher
type APIOption func(*APIFetcher)

// WithResultPath reads the launch array at path (gjson syntax) instead of
// expecting the body to be the array itself
func WithResultPath(path string) APIOption {
	return func(f *APIFetcher) {
		f.resultPath = path
	}
}

// NewAPIFetcher creates a fetcher for endpoint. The pipeline should be the
// HTTP-tuned one; its retry predicate decides which responses are retried.
func NewAPIFetcher(
	endpoint string, client httpclient.Client, pipeline *resilience.Pipeline, tracer trace.Tracer, opts ...APIOption,
) *APIFetcher {
	f := &APIFetcher{
		endpoint: endpoint,
		client:   client,
		pipeline: pipeline,
		tracer:   tracer,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues one logical GET and decodes the response
func (f *APIFetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	ctx, span := otel.StartSpan(ctx, f.tracer, "sources.api.fetch",
		trace.WithAttributes(otel.AttrSourceType.String("api"), attribute.String("url.full", f.endpoint)))
	defer span.End()

	body, err := resilience.Execute(ctx, f.pipeline, func(ctx context.Context) ([]byte, error) {
		return f.client.Get(ctx, f.endpoint)
	})
	if err != nil {
		err = classifyFetchError(err)
		otel.RecordError(span, err)
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		err := service.NewError(service.KindHTTP, "empty response from launch API", nil)
		otel.RecordError(span, err)
		return nil, err
	}

	if f.resultPath != "" {
		if body, err = extractResult(body, f.resultPath); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	res, err := NewFetchResult(body)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrLaunchCount.Int(len(res.Launches)))
	slog.DebugContext(ctx, "Fetched launches from API", "endpoint", f.endpoint, "launch_count", len(res.Launches))
	return res, nil
}

// FetchAll returns every upstream launch
func (f *APIFetcher) FetchAll(ctx context.Context) ([]service.Launch, error) {
	return fetchAll(ctx, f)
}

// extractResult returns the raw JSON array found at path
func extractResult(body []byte, path string) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, service.NewError(service.KindParse, "launch API returned malformed JSON", nil)
	}
	result := gjson.GetBytes(body, path)
	if !result.IsArray() {
		return nil, service.NewError(service.KindParse,
			"launch API response has no launch array", nil).WithDetail("resultPath " + path)
	}
	return []byte(result.Raw), nil
}

// classifyFetchError maps pipeline failures onto service error kinds
func classifyFetchError(err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return err
	}

	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return service.NewError(service.KindHTTP, "launch API returned an error status", err).
			WithDetail(httpErr.StatusLine())
	}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		return service.NewError(service.KindHTTP, "launch API circuit is open", err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return service.NewError(service.KindHTTP, "request to launch API failed", err)
}
