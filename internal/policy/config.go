// Package policy loads the project governance configuration: which claims
// run, how they are checked and where the drift log and waivers live.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/ux"
)

// Claim check types
const (
	TypeVersionConsistency = "version-consistency"
	TypeJSONSchema         = "json-schema"
	TypeOpenAPI            = "openapi"
	TypeDriftReviewed      = "drift-reviewed"
)

// ClaimTypes lists every supported claim type
var ClaimTypes = []string{TypeVersionConsistency, TypeJSONSchema, TypeOpenAPI, TypeDriftReviewed}

// Config is the contents of governance.yaml
type Config struct {
	Version     string        `yaml:"version"`
	Timeout     time.Duration `yaml:"timeout"`
	Parallelism int           `yaml:"parallelism,omitempty"`
	Drift       DriftConfig   `yaml:"drift"`
	Waivers     WaiverConfig  `yaml:"waivers"`
	Claims      []ClaimConfig `yaml:"claims"`
}

// DriftConfig locates the drift log
type DriftConfig struct {
	Log         string        `yaml:"log"`
	Blueprints  string        `yaml:"blueprints"`
	LockTimeout time.Duration `yaml:"lock_timeout,omitempty"`
}

// WaiverConfig locates waiver files and their schema
type WaiverConfig struct {
	Dir    string `yaml:"dir"`
	Schema string `yaml:"schema,omitempty"`
}

// ClaimConfig declares one claim and the check that verifies it
type ClaimConfig struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	Blocking    bool   `yaml:"blocking"`
	Type        string `yaml:"type"`

	// version-consistency
	Canonical *SourceConfig  `yaml:"canonical,omitempty"`
	Sources   []SourceConfig `yaml:"sources,omitempty"`

	// json-schema and openapi
	Schema string   `yaml:"schema,omitempty"`
	Files  []string `yaml:"files,omitempty"`

	// drift-reviewed
	MinSeverity string `yaml:"min_severity,omitempty"`
}

// SourceConfig names where a version value is read from. Files may be
// doublestar globs except for the canonical source. Key is a dotted path
// into JSON or YAML; Pattern is a regular expression with one capture group.
type SourceConfig struct {
	File    string `yaml:"file"`
	Key     string `yaml:"key,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
}

// DefaultConfig returns a configuration with no claims and default paths
func DefaultConfig() *Config {
	defaults := ux.NewPathDefaults()
	return &Config{
		Version: "1",
		Timeout: 30 * time.Second,
		Drift: DriftConfig{
			Log:         defaults.DriftLog(),
			Blueprints:  defaults.BlueprintsDir(),
			LockTimeout: 10 * time.Second,
		},
		Waivers: WaiverConfig{
			Dir: defaults.WaiversDir(),
		},
		Claims: []ClaimConfig{},
	}
}

// LoadConfig reads governance.yaml. Unset fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- config path is chosen by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goverrors.NewFileNotFoundError(path)
		}
		return nil, goverrors.NewFileReadError(path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goverrors.NewFileUnmarshalError(path, "YAML", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig, except that a missing file yields
// DefaultConfig.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if goverrors.HasCode(err, goverrors.ErrCodeFileNotFound) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Validate checks the configuration and every claim declaration, reporting
// all problems at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if c.Parallelism < 0 {
		problems = append(problems, "parallelism must not be negative")
	}
	if c.Drift.LockTimeout < 0 {
		problems = append(problems, "drift.lock_timeout must not be negative")
	}

	seen := make(map[string]bool, len(c.Claims))
	for i, claim := range c.Claims {
		if err := claim.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("claims[%d]: %v", i, err))
		}
		if claim.ID != "" && seen[claim.ID] {
			problems = append(problems, fmt.Sprintf("claims[%d]: duplicate id %q", i, claim.ID))
		}
		seen[claim.ID] = true
	}

	if len(problems) > 0 {
		return goverrors.NewConfigInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// Validate checks that a claim declaration carries what its type needs
func (c ClaimConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("id is required")
	}
	switch c.Type {
	case TypeVersionConsistency:
		if c.Canonical == nil || c.Canonical.File == "" {
			return fmt.Errorf("%s: canonical.file is required", c.ID)
		}
		if err := c.Canonical.Validate(); err != nil {
			return fmt.Errorf("%s: canonical: %w", c.ID, err)
		}
		for j, src := range c.Sources {
			if err := src.Validate(); err != nil {
				return fmt.Errorf("%s: sources[%d]: %w", c.ID, j, err)
			}
		}
	case TypeJSONSchema:
		if c.Schema == "" || len(c.Files) == 0 {
			return fmt.Errorf("%s: schema and files are required", c.ID)
		}
	case TypeOpenAPI:
		if len(c.Files) == 0 {
			return fmt.Errorf("%s: files are required", c.ID)
		}
	case TypeDriftReviewed:
	case "":
		return fmt.Errorf("%s: type is required", c.ID)
	default:
		return fmt.Errorf("%s: unknown type %q (supported: %s)", c.ID, c.Type, strings.Join(ClaimTypes, ", "))
	}
	return nil
}

// Validate checks that exactly one of Key and Pattern is set
func (s SourceConfig) Validate() error {
	if s.File == "" {
		return fmt.Errorf("file is required")
	}
	if (s.Key == "") == (s.Pattern == "") {
		return fmt.Errorf("%s: exactly one of key or pattern is required", s.File)
	}
	return nil
}

// Resolve returns path relative to root unless it is already absolute
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
