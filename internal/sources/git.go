package sources

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/git"
	"github.com/stacklok/launch-registry-server/internal/otel"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
)

// GitFetcher reads launches from a file committed to a Git repository
type GitFetcher struct {
	cfg      config.GitConfig
	client   git.Client
	pipeline *resilience.Pipeline
	tracer   trace.Tracer
}

var _ LaunchFetcher = (*GitFetcher)(nil)

// NewGitFetcher creates a fetcher for cfg. Clones run through pipeline.
func NewGitFetcher(cfg config.GitConfig, pipeline *resilience.Pipeline, tracer trace.Tracer) *GitFetcher {
	return &GitFetcher{
		cfg:      cfg,
		client:   git.NewDefaultGitClient(),
		pipeline: pipeline,
		tracer:   tracer,
	}
}

// WithGitClient replaces the git client
func (f *GitFetcher) WithGitClient(client git.Client) *GitFetcher {
	f.client = client
	return f
}

// Fetch clones the repository and decodes the launch file at the checked out commit
func (f *GitFetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	ctx, span := otel.StartSpan(ctx, f.tracer, "sources.git.fetch",
		trace.WithAttributes(otel.AttrSourceType.String(config.SourceTypeGit)))
	defer span.End()

	cloneCfg, err := f.cloneConfig()
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	var commit string
	data, err := resilience.Execute(ctx, f.pipeline, func(ctx context.Context) ([]byte, error) {
		repoInfo, err := f.client.Clone(ctx, cloneCfg)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := f.client.Cleanup(ctx, repoInfo); err != nil {
				slog.WarnContext(ctx, "Failed to release cloned repository", "error", err)
			}
		}()

		commit = repoInfo.CommitHash
		return f.client.GetFileContent(repoInfo, f.cfg.Path)
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("vcs.ref.head.revision", commit))

	res, err := NewFetchResult(data)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	slog.DebugContext(ctx, "Read launches from git",
		"repository", f.cfg.Repository, "commit", commit, "path", f.cfg.Path, "launch_count", len(res.Launches))
	return res, nil
}

// FetchAll returns every launch in the committed file
func (f *GitFetcher) FetchAll(ctx context.Context) ([]service.Launch, error) {
	return fetchAll(ctx, f)
}

func (f *GitFetcher) cloneConfig() (*git.CloneConfig, error) {
	cloneCfg := &git.CloneConfig{
		URL:    f.cfg.Repository,
		Branch: f.cfg.Branch,
		Tag:    f.cfg.Tag,
		Commit: f.cfg.Commit,
	}
	if f.cfg.Username != "" {
		password, err := f.cfg.GetPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to load git credentials: %w", err)
		}
		cloneCfg.Auth = &git.BasicAuth{Username: f.cfg.Username, Password: password}
	}
	return cloneCfg, nil
}
