package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantErr     bool
		errContains string
		validate    func(*testing.T, *Config)
	}{
		{
			name: "complete config",
			content: `
version: "1"
timeout: 45s
parallelism: 4
drift:
  log: .govern/drift.json
  blueprints: blueprints
  lock_timeout: 2s
waivers:
  dir: .govern/waivers
  schema: .govern/waiver.schema.json
claims:
  - id: versions
    description: package versions agree
    blocking: true
    type: version-consistency
    canonical:
      file: package.json
      key: version
    sources:
      - file: charts/*/Chart.yaml
        key: appVersion
      - file: VERSION
        pattern: '^v?(\S+)$'
  - id: api
    type: openapi
    files: ["api/**/*.yaml"]
  - id: drift
    blocking: true
    type: drift-reviewed
    min_severity: high
`,
			validate: func(t *testing.T, c *Config) {
				if c.Timeout != 45*time.Second {
					t.Errorf("Timeout = %s, want 45s", c.Timeout)
				}
				if c.Parallelism != 4 {
					t.Errorf("Parallelism = %d, want 4", c.Parallelism)
				}
				if c.Drift.Blueprints != "blueprints" {
					t.Errorf("Drift.Blueprints = %s", c.Drift.Blueprints)
				}
				if c.Drift.LockTimeout != 2*time.Second {
					t.Errorf("Drift.LockTimeout = %s, want 2s", c.Drift.LockTimeout)
				}
				if len(c.Claims) != 3 {
					t.Fatalf("len(Claims) = %d, want 3", len(c.Claims))
				}
				versions := c.Claims[0]
				if !versions.Blocking || versions.Canonical == nil || versions.Canonical.Key != "version" {
					t.Errorf("unexpected versions claim: %+v", versions)
				}
				if len(versions.Sources) != 2 || versions.Sources[1].Pattern != `^v?(\S+)$` {
					t.Errorf("unexpected sources: %+v", versions.Sources)
				}
				if c.Claims[2].MinSeverity != "high" {
					t.Errorf("MinSeverity = %s, want high", c.Claims[2].MinSeverity)
				}
			},
		},
		{
			name:    "defaults kept for unset fields",
			content: "claims: []\n",
			validate: func(t *testing.T, c *Config) {
				if c.Timeout != 30*time.Second {
					t.Errorf("Timeout = %s, want default 30s", c.Timeout)
				}
				if c.Drift.Log != filepath.Join(".govern", "drift.json") {
					t.Errorf("Drift.Log = %s", c.Drift.Log)
				}
			},
		},
		{
			name:        "unknown claim type",
			content:     "claims:\n  - id: x\n    type: lint\n",
			wantErr:     true,
			errContains: "unknown type",
		},
		{
			name:        "duplicate ids",
			content:     "claims:\n  - id: x\n    type: drift-reviewed\n  - id: x\n    type: drift-reviewed\n",
			wantErr:     true,
			errContains: "duplicate id",
		},
		{
			name:        "source with key and pattern",
			content:     "claims:\n  - id: v\n    type: version-consistency\n    canonical:\n      file: a.json\n      key: version\n      pattern: (.*)\n",
			wantErr:     true,
			errContains: "exactly one of key or pattern",
		},
		{
			name:        "invalid yaml",
			content:     "claims: [\n",
			wantErr:     true,
			errContains: "YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "governance.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadConfig(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadConfigInvalidIsCoded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "governance.yaml")
	if err := os.WriteFile(path, []byte("timeout: -1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(path)
	if !goverrors.HasCode(err, goverrors.ErrCodeConfigInvalid) {
		t.Errorf("expected CONFIG-001, got %v", err)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := LoadConfig(path); !goverrors.HasCode(err, goverrors.ErrCodeFileNotFound) {
		t.Errorf("expected file not found, got %v", err)
	}

	cfg, err := LoadConfigOrDefault(path)
	if err != nil {
		t.Fatalf("LoadConfigOrDefault() error = %v", err)
	}
	if len(cfg.Claims) != 0 {
		t.Errorf("default config should have no claims")
	}
}

func TestResolve(t *testing.T) {
	root := filepath.Join("projects", "app")
	if got := Resolve(root, "a/b.json"); got != filepath.Join(root, "a/b.json") {
		t.Errorf("Resolve() = %s", got)
	}
	abs, _ := filepath.Abs("x")
	if got := Resolve(root, abs); got != abs {
		t.Errorf("Resolve() should keep absolute paths, got %s", got)
	}
	if got := Resolve(root, ""); got != "" {
		t.Errorf("Resolve() of empty path = %q", got)
	}
}
