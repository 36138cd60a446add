package sources

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/httpclient"
	"github.com/stacklok/launch-registry-server/internal/resilience"
)

// NewFetcher creates the fetcher for the configured source type. Network
// sources run through httpPipeline.
func NewFetcher(cfg *config.SourceConfig, httpPipeline *resilience.Pipeline, tracer trace.Tracer) (LaunchFetcher, error) {
	switch cfg.Type {
	case config.SourceTypeAPI:
		if cfg.API == nil {
			return nil, fmt.Errorf("api source requires api configuration")
		}
		client := httpclient.NewDefaultClient(cfg.API.Timeout,
			httpclient.WithMaxConnsPerHost(cfg.API.MaxConnsPerHost))
		return NewAPIFetcher(cfg.API.Endpoint, client, httpPipeline, tracer,
			WithResultPath(cfg.API.ResultPath)), nil
	case config.SourceTypeFile:
		if cfg.File == nil {
			return nil, fmt.Errorf("file source requires file configuration")
		}
		return NewFileFetcher(cfg.File.Path), nil
	case config.SourceTypeGit:
		if cfg.Git == nil {
			return nil, fmt.Errorf("git source requires git configuration")
		}
		return NewGitFetcher(*cfg.Git, httpPipeline, tracer), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}
