// Package checks provides the built-in claim checks and builds them from
// governance.yaml declarations.
package checks

import (
	"fmt"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/policy"
)

// Deps carries the shared collaborators checks may need
type Deps struct {
	Drift *drift.Store
}

// Build maps one claim declaration to its check
func Build(cfg policy.ClaimConfig, deps Deps) (claim.Check, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goverrors.NewConfigInvalidError(err.Error())
	}

	switch cfg.Type {
	case policy.TypeVersionConsistency:
		check, err := NewVersionConsistency(*cfg.Canonical, cfg.Sources)
		if err != nil {
			return nil, err
		}
		return check, nil
	case policy.TypeJSONSchema:
		return &JSONSchema{Schema: cfg.Schema, Files: cfg.Files}, nil
	case policy.TypeOpenAPI:
		return &OpenAPI{Files: cfg.Files}, nil
	case policy.TypeDriftReviewed:
		if deps.Drift == nil {
			return nil, goverrors.NewConfigInvalidError(fmt.Sprintf("%s: drift log is not configured", cfg.ID))
		}
		floor := drift.SeverityLow
		if cfg.MinSeverity != "" {
			parsed, err := drift.ParseSeverity(cfg.MinSeverity)
			if err != nil {
				return nil, goverrors.NewConfigInvalidError(fmt.Sprintf("%s: %v", cfg.ID, err))
			}
			floor = parsed
		}
		return &DriftReviewed{Store: deps.Drift, MinSeverity: floor}, nil
	default:
		return nil, goverrors.NewConfigInvalidError(fmt.Sprintf("%s: unknown type %q", cfg.ID, cfg.Type))
	}
}

// Registry builds a registry holding every configured claim in
// declaration order
func Registry(cfg *policy.Config, deps Deps) (*claim.Registry, error) {
	registry := claim.NewRegistry()
	for _, cc := range cfg.Claims {
		check, err := Build(cc, deps)
		if err != nil {
			return nil, err
		}
		c := claim.Claim{ID: cc.ID, Description: cc.Description, Blocking: cc.Blocking}
		if err := registry.Register(c, check); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
