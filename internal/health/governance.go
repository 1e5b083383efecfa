package health

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/policy"
	"github.com/felixgeelhaar/govern/internal/waiver"
)

// ConfigChecker loads and validates governance.yaml
type ConfigChecker struct {
	path string
}

// NewConfigChecker creates a checker for the configuration at path
func NewConfigChecker(path string) *ConfigChecker {
	return &ConfigChecker{path: path}
}

// Name returns the name of this health check.
func (c *ConfigChecker) Name() string {
	return "config"
}

// Check reports a missing file as degraded, since defaults apply, and an
// invalid one as unhealthy.
func (c *ConfigChecker) Check(_ context.Context) *Result {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return Degraded("no governance.yaml, using defaults with no claims").
			WithDetail("path", c.path)
	}

	cfg, err := policy.LoadConfig(c.path)
	if err != nil {
		return Unhealthy("configuration is invalid").
			WithDetail("path", c.path).
			WithDetail("error", err.Error())
	}

	blocking := 0
	for _, claim := range cfg.Claims {
		if claim.Blocking {
			blocking++
		}
	}
	return Healthy(fmt.Sprintf("%d claim(s), %d blocking", len(cfg.Claims), blocking)).
		WithDetail("path", c.path)
}

// DriftLogChecker verifies the drift log can be locked and parsed
type DriftLogChecker struct {
	store *drift.Store
}

// NewDriftLogChecker creates a checker for store
func NewDriftLogChecker(store *drift.Store) *DriftLogChecker {
	return &DriftLogChecker{store: store}
}

// Name returns the name of this health check.
func (c *DriftLogChecker) Name() string {
	return "drift-log"
}

// Check acquires the log lock and parses the log. Pending critical events
// degrade the result.
func (c *DriftLogChecker) Check(ctx context.Context) *Result {
	doc, err := c.store.Probe(ctx)
	if err != nil {
		return Unhealthy("drift log is not usable").
			WithDetail("path", c.store.Path()).
			WithDetail("error", err.Error())
	}

	pending := make(map[string]int)
	total := 0
	for _, e := range doc.DriftEvents {
		if e.Pending() {
			pending[e.Severity.String()]++
			total++
		}
	}

	message := fmt.Sprintf("%d event(s), %d pending review", len(doc.DriftEvents), total)
	if pending[drift.SeverityCritical.String()] > 0 {
		return Degraded(message).
			WithDetail("path", c.store.Path()).
			WithDetail("pending", pending).
			WithDetail("suggestion", "Review critical events with 'govern drift review'")
	}
	return Healthy(message).
		WithDetail("path", c.store.Path()).
		WithDetail("pending", pending)
}

// WaiverChecker loads the waiver schema and validates every waiver file
type WaiverChecker struct {
	dir    string
	schema func() (*waiver.Schema, error)
}

// NewWaiverChecker creates a checker for the waivers in dir. schema loads
// the schema the waivers are validated against.
func NewWaiverChecker(dir string, schema func() (*waiver.Schema, error)) *WaiverChecker {
	return &WaiverChecker{dir: dir, schema: schema}
}

// Name returns the name of this health check.
func (c *WaiverChecker) Name() string {
	return "waivers"
}

// Check reports an unloadable schema as unhealthy and invalid waiver files
// as degraded. A missing directory is healthy.
func (c *WaiverChecker) Check(_ context.Context) *Result {
	schema, err := c.schema()
	if err != nil {
		return Unhealthy("waiver schema cannot be loaded").
			WithDetail("error", err.Error())
	}

	results, err := waiver.LoadDir(c.dir, schema)
	if errors.Is(err, waiver.ErrNoWaiverDir) {
		return Healthy("no waivers directory").WithDetail("dir", c.dir)
	}
	if err != nil {
		return Unhealthy("waiver directory cannot be read").
			WithDetail("dir", c.dir).
			WithDetail("error", err.Error())
	}

	var invalid []string
	for _, r := range results {
		if !r.Valid() {
			invalid = append(invalid, r.Path)
		}
	}
	message := fmt.Sprintf("%d waiver file(s), %d with violations", len(results), len(invalid))
	if len(invalid) > 0 {
		return Degraded(message).
			WithDetail("dir", c.dir).
			WithDetail("invalid", invalid).
			WithDetail("suggestion", "Run 'govern waiver verify' for details")
	}
	return Healthy(message).WithDetail("dir", c.dir)
}
