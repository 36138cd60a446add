package sources

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stacklok/launch-registry-server/internal/service"
)

// FileFetcher reads launches from a local JSON file
type FileFetcher struct {
	path string
}

var _ LaunchFetcher = (*FileFetcher)(nil)

// NewFileFetcher creates a fetcher for the file at path
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Fetch reads and decodes the file
func (f *FileFetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//nolint:gosec // path comes from operator configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("launch file not found: %s", f.path)
		}
		return nil, fmt.Errorf("failed to read launch file %s: %w", f.path, err)
	}

	res, err := NewFetchResult(data)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Read launches from file", "path", f.path, "launch_count", len(res.Launches))
	return res, nil
}

// FetchAll returns every launch in the file
func (f *FileFetcher) FetchAll(ctx context.Context) ([]service.Launch, error) {
	return fetchAll(ctx, f)
}
