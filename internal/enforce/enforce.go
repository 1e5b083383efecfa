// Package enforce aggregates claim reports into a summary and the verdict
// that decides whether the calling process blocks.
package enforce

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/govern/internal/claim"
	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/exitcode"
)

// WaiverLookup answers whether a claim failure is waived on a given date
type WaiverLookup interface {
	IsActive(claimID string, asOf time.Time) bool
}

// NoWaivers waives nothing
type NoWaivers struct{}

// IsActive always reports false
func (NoWaivers) IsActive(string, time.Time) bool { return false }

// Summary is the aggregate of one run. It is derived, never persisted.
type Summary struct {
	Total            int      `json:"total"`
	Pass             int      `json:"pass"`
	Fail             int      `json:"fail"`
	Error            int      `json:"error"`
	BlockingFailures []string `json:"blockingFailures"`
}

// Green reports whether no blocking failure remains
func (s Summary) Green() bool {
	return len(s.BlockingFailures) == 0
}

// Result is the verdict of a run
type Result struct {
	Summary Summary        `json:"summary"`
	Reports []claim.Report `json:"reports"`

	// Waived lists failing blocking claims suppressed by an active waiver
	Waived []string `json:"-"`
}

// ExitCode maps the verdict to the process exit status
func (r *Result) ExitCode() int {
	if r.Summary.Green() {
		return exitcode.Success
	}
	return exitcode.BlockingFailure
}

// Err returns a coded blocking-failure error, or nil when green
func (r *Result) Err() error {
	if r.Summary.Green() {
		return nil
	}
	return goverrors.NewBlockingFailureError(r.Summary.BlockingFailures)
}

// Aggregate builds the summary. reports must correspond 1:1, in order, to
// claims. A report counts as a blocking failure iff it failed or errored,
// its claim is blocking and no waiver is active for it on asOf.
func Aggregate(claims []claim.Claim, reports []claim.Report, waivers WaiverLookup, asOf time.Time) (*Result, error) {
	if len(claims) != len(reports) {
		return nil, fmt.Errorf("aggregate: %d claims but %d reports", len(claims), len(reports))
	}
	if waivers == nil {
		waivers = NoWaivers{}
	}

	result := &Result{
		Summary: Summary{Total: len(reports), BlockingFailures: []string{}},
		Reports: reports,
	}

	for i, report := range reports {
		c := claims[i]
		if report.ClaimID != c.ID {
			return nil, fmt.Errorf("aggregate: report %d is for %q, expected %q", i, report.ClaimID, c.ID)
		}
		if err := report.Status.Validate(); err != nil {
			return nil, fmt.Errorf("aggregate: claim %s: %w", c.ID, err)
		}

		switch report.Status {
		case claim.StatusPass:
			result.Summary.Pass++
		case claim.StatusFail:
			result.Summary.Fail++
		case claim.StatusError:
			result.Summary.Error++
		}

		if !report.IsFailing() || !c.Blocking {
			continue
		}
		if waivers.IsActive(c.ID, asOf) {
			result.Waived = append(result.Waived, c.ID)
			continue
		}
		result.Summary.BlockingFailures = append(result.Summary.BlockingFailures, c.ID)
	}

	return result, nil
}

// Engine runs a registry and aggregates the outcome
type Engine struct {
	executor *claim.Executor
}

// NewEngine creates an engine around an executor
func NewEngine(executor *claim.Executor) *Engine {
	return &Engine{executor: executor}
}

// Run executes every registered claim once and aggregates the reports
func (e *Engine) Run(ctx context.Context, registry *claim.Registry, waivers WaiverLookup, asOf time.Time) (*Result, error) {
	entries := registry.Entries()
	claims := make([]claim.Claim, len(entries))
	for i, entry := range entries {
		claims[i] = entry.Claim
	}
	return Aggregate(claims, e.executor.Run(ctx, entries), waivers, asOf)
}
