package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/log"
	"github.com/felixgeelhaar/govern/internal/policy"
	"github.com/felixgeelhaar/govern/internal/ux"
	"github.com/felixgeelhaar/govern/internal/waiver"
)

// project is the resolved root and configuration a command works on
type project struct {
	root   string
	config *policy.Config
	logger *log.Logger
}

// loadProject resolves the project root and loads its configuration. An
// explicit --config must exist; the default location is optional.
func loadProject() (*project, error) {
	root := rootDir
	if root == "" {
		discovered, err := ux.DiscoverRoot(".")
		if err != nil {
			return nil, err
		}
		root = discovered
	}

	var (
		cfg *policy.Config
		err error
	)
	if configPath != "" {
		cfg, err = policy.LoadConfig(configPath)
	} else {
		cfg, err = policy.LoadConfigOrDefault(ux.NewPathDefaultsAt(root).ConfigFile())
	}
	if err != nil {
		return nil, err
	}

	logger := log.DefaultLogger().With("root", root)
	logger.Debug("project loaded", "claims", len(cfg.Claims))
	return &project{root: root, config: cfg, logger: logger}, nil
}

func (p *project) path(configured string) string {
	return policy.Resolve(p.root, configured)
}

func (p *project) driftStore() *drift.Store {
	return drift.NewStore(p.path(p.config.Drift.Log)).
		WithBlueprints(p.path(p.config.Drift.Blueprints)).
		WithLockTimeout(p.config.Drift.LockTimeout).
		WithLogger(p.logger)
}

func (p *project) executor() *claim.Executor {
	executor := claim.NewExecutor(claim.Env{Root: p.root}).
		WithTimeout(p.config.Timeout).
		WithLogger(p.logger)
	if p.config.Parallelism > 0 {
		executor = executor.WithParallelism(p.config.Parallelism)
	}
	return executor
}

// waiverSchema loads the schema named by override or the configuration.
// Without either, the default schema file is used when present.
func (p *project) waiverSchema(override string) (*waiver.Schema, error) {
	switch {
	case override != "":
		return waiver.LoadSchema(override)
	case p.config.Waivers.Schema != "":
		return waiver.LoadSchema(p.path(p.config.Waivers.Schema))
	}

	fallback := ux.NewPathDefaultsAt(p.root).WaiverSchema()
	if _, err := os.Stat(fallback); err == nil {
		return waiver.LoadSchema(fallback)
	}
	return waiver.DefaultSchema(), nil
}

func (p *project) waiverDir(override string) string {
	if override != "" {
		return override
	}
	return p.path(p.config.Waivers.Dir)
}

// waiverSet loads the valid waivers. A missing directory waives nothing;
// invalid files are logged and never suppress a claim.
func (p *project) waiverSet() (*waiver.Set, error) {
	schema, err := p.waiverSchema("")
	if err != nil {
		return nil, err
	}
	results, err := waiver.LoadDir(p.waiverDir(""), schema)
	if errors.Is(err, waiver.ErrNoWaiverDir) {
		return waiver.NewSet(), nil
	}
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !r.Valid() {
			p.logger.Warn("ignoring invalid waiver", "path", r.Path, "violations", len(r.Violations))
		}
	}
	return waiver.SetFromResults(results), nil
}

// parseAsOf parses YYYY-MM-DD, or returns today when empty
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation(waiver.DateLayout, value, time.UTC)
}
