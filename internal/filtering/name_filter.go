package filtering

import (
	"fmt"

	"github.com/gobwas/glob"
)

// NameFilter decides whether a launch name passes include/exclude glob patterns
type NameFilter interface {
	// ShouldInclude reports whether name passes, and why
	ShouldInclude(name string) (bool, string)
}

type pattern struct {
	source string
	glob   glob.Glob
}

// globNameFilter holds patterns compiled once per sync cycle
type globNameFilter struct {
	include []pattern
	exclude []pattern
}

var _ NameFilter = (*globNameFilter)(nil)

// NewNameFilter compiles the include and exclude patterns. No separators are
// passed to the compiler, so * also matches across slashes and spaces.
func NewNameFilter(include, exclude []string) (NameFilter, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return &globNameFilter{include: inc, exclude: exc}, nil
}

func compilePatterns(sources []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(sources))
	for _, src := range sources {
		g, err := glob.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", src, err)
		}
		patterns = append(patterns, pattern{source: src, glob: g})
	}
	return patterns, nil
}

// ShouldInclude applies exclude patterns first, then include patterns.
// Without include patterns every name that is not excluded passes.
func (f *globNameFilter) ShouldInclude(name string) (bool, string) {
	for _, p := range f.exclude {
		if p.glob.Match(name) {
			return false, fmt.Sprintf("excluded by pattern '%s'", p.source)
		}
	}

	if len(f.include) > 0 {
		for _, p := range f.include {
			if p.glob.Match(name) {
				return true, fmt.Sprintf("included by pattern '%s'", p.source)
			}
		}
		return false, "no match found in include patterns"
	}

	if len(f.exclude) > 0 {
		return true, "no match in exclude patterns"
	}
	return true, "no name filters specified"
}
