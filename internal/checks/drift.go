package checks

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
)

// DriftReviewed fails while drift events at or above MinSeverity await review
type DriftReviewed struct {
	Store       *drift.Store
	MinSeverity drift.Severity
}

// Verify reports one issue per pending event. An unreadable log is a
// check error.
func (c *DriftReviewed) Verify(_ context.Context, _ claim.Env) ([]string, error) {
	pending, err := c.Store.Pending(c.MinSeverity)
	if err != nil {
		return nil, err
	}

	issues := make([]string, 0, len(pending))
	for _, e := range pending {
		issue := fmt.Sprintf("drift event %s (%s) awaits review", e.ID, e.Severity)
		if e.Detail != "" {
			issue += ": " + e.Detail
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

var _ claim.Check = (*DriftReviewed)(nil)
