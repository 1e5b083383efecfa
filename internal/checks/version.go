package checks

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/govern/internal/claim"
	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/policy"
)

// source is a compiled version location
type source struct {
	file    string
	key     string
	pattern *regexp.Regexp
}

func compileSource(cfg policy.SourceConfig) (source, error) {
	s := source{file: cfg.File, key: cfg.Key}
	if cfg.Pattern != "" {
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return source{}, fmt.Errorf("%s: invalid pattern: %w", cfg.File, err)
		}
		if re.NumSubexp() < 1 {
			return source{}, fmt.Errorf("%s: pattern needs a capture group", cfg.File)
		}
		s.pattern = re
	}
	return s, nil
}

// read extracts the version from path
func (s source) read(path string) (string, error) {
	if s.key != "" {
		return readKey(path, s.key)
	}

	// #nosec G304 -- paths come from configured claim globs.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	m := s.pattern.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("pattern %q does not match", s.pattern.String())
	}
	return strings.TrimSpace(string(m[1])), nil
}

// VersionConsistency asserts that every source agrees with the canonical
// version.
type VersionConsistency struct {
	canonical source
	sources   []source
}

// NewVersionConsistency compiles the canonical and other sources
func NewVersionConsistency(canonical policy.SourceConfig, sources []policy.SourceConfig) (*VersionConsistency, error) {
	c, err := compileSource(canonical)
	if err != nil {
		return nil, goverrors.NewConfigInvalidError(err.Error())
	}
	v := &VersionConsistency{canonical: c}
	for _, cfg := range sources {
		s, err := compileSource(cfg)
		if err != nil {
			return nil, goverrors.NewConfigInvalidError(err.Error())
		}
		v.sources = append(v.sources, s)
	}
	return v, nil
}

// Verify reports one issue per divergent source. An unreadable canonical
// source is a check error.
func (v *VersionConsistency) Verify(ctx context.Context, env claim.Env) ([]string, error) {
	want, err := v.canonical.read(policy.Resolve(env.Root, v.canonical.file))
	if err != nil {
		return nil, fmt.Errorf("read canonical version from %s: %w", v.canonical.file, err)
	}

	issues := []string{}
	for _, src := range v.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matches, err := expand(env.Root, src.file)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			issues = append(issues, fmt.Sprintf("no files match %s", src.file))
			continue
		}

		for _, m := range matches {
			got, err := src.read(m.Path)
			if err != nil {
				issues = append(issues, fmt.Sprintf("cannot read version from %s: %v", m.Display, err))
				continue
			}
			if got != want {
				issues = append(issues, fmt.Sprintf("version mismatch: %s (%s) != %s (%s)",
					v.canonical.file, want, m.Display, got))
			}
		}
	}
	return issues, nil
}

var _ claim.Check = (*VersionConsistency)(nil)
