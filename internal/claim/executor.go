package claim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/log"
)

// DefaultTimeout bounds a single check when none is configured
const DefaultTimeout = 30 * time.Second

// Executor runs checks with failure isolation: whatever a check does, the
// caller gets exactly one Report back and never a panic.
type Executor struct {
	env         Env
	timeout     time.Duration
	parallelism int
	logger      *log.Logger
}

// NewExecutor creates an executor with a 30-second per-check timeout and
// one worker per CPU.
func NewExecutor(env Env) *Executor {
	return &Executor{
		env:         env,
		timeout:     DefaultTimeout,
		parallelism: runtime.NumCPU(),
		logger:      log.DefaultLogger(),
	}
}

// WithTimeout sets the per-check timeout. Non-positive values are ignored.
func (e *Executor) WithTimeout(timeout time.Duration) *Executor {
	if timeout > 0 {
		e.timeout = timeout
	}
	return e
}

// WithParallelism caps how many checks run at once. Values below 1 mean 1.
func (e *Executor) WithParallelism(n int) *Executor {
	if n < 1 {
		n = 1
	}
	e.parallelism = n
	return e
}

// WithLogger sets the logger used for per-claim diagnostics
func (e *Executor) WithLogger(logger *log.Logger) *Executor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

type outcome struct {
	issues []string
	err    error
}

// Execute verifies one claim and converts every failure mode (error, panic,
// timeout, cancellation) into a status=error report.
func (e *Executor) Execute(ctx context.Context, c Claim, check Check) Report {
	start := time.Now()
	report := e.execute(ctx, c, check)

	logger := e.logger.With("claim", c.ID, "status", report.Status.String(), "latency", time.Since(start))
	if report.Status == StatusError {
		logger.WithError(goverrors.NewCheckError(c.ID, errors.New(report.Issues[0]))).Warn("claim check errored")
	} else {
		logger.Debug("claim checked", "issues", len(report.Issues))
	}
	return report
}

func (e *Executor) execute(ctx context.Context, c Claim, check Check) Report {
	if check == nil {
		return Errored(c.ID, "no check registered for claim")
	}

	checkCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("check panicked: %v", r)}
			}
		}()
		issues, err := check.Verify(checkCtx, e.env)
		done <- outcome{issues: issues, err: err}
	}()

	select {
	case out := <-done:
		return e.toReport(ctx, checkCtx, c.ID, out)
	case <-checkCtx.Done():
		// A result that raced the deadline still wins.
		select {
		case out := <-done:
			return e.toReport(ctx, checkCtx, c.ID, out)
		default:
		}
		return Errored(c.ID, e.interruption(ctx))
	}
}

func (e *Executor) toReport(ctx, checkCtx context.Context, claimID string, out outcome) Report {
	if out.err != nil {
		if checkCtx.Err() != nil && errors.Is(out.err, checkCtx.Err()) {
			return Errored(claimID, e.interruption(ctx))
		}
		return Errored(claimID, out.err.Error())
	}
	if len(out.issues) == 0 {
		return Passed(claimID)
	}
	issues := make([]string, len(out.issues))
	copy(issues, out.issues)
	return Failed(claimID, issues...)
}

func (e *Executor) interruption(ctx context.Context) string {
	if ctx.Err() != nil {
		return fmt.Sprintf("check cancelled: %v", ctx.Err())
	}
	return fmt.Sprintf("check timed out after %s", e.timeout)
}

// Run executes every entry, in parallel up to the configured limit, and
// returns reports in registration order regardless of completion order.
func (e *Executor) Run(ctx context.Context, entries []Entry) []Report {
	reports := make([]Report, len(entries))
	sem := make(chan struct{}, e.parallelism)
	var wg sync.WaitGroup

	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = e.Execute(ctx, entry.Claim, entry.Check)
		}(i, entry)
	}

	wg.Wait()
	return reports
}

// RunRegistry is Run over the registry's entries
func (e *Executor) RunRegistry(ctx context.Context, r *Registry) []Report {
	return e.Run(ctx, r.Entries())
}
