package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/govern/internal/checks"
	"github.com/felixgeelhaar/govern/internal/enforce"
	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/ux"
	"github.com/felixgeelhaar/govern/internal/watch"
)

var (
	checkJSON        bool
	checkAsOf        string
	checkWatch       bool
	checkMetricsFile string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every configured claim and report the verdict",
	Long: `Run every claim declared in governance.yaml once, in parallel, and report
one result per claim in declaration order.

A failing or erroring blocking claim fails the run unless a valid, unexpired
waiver covers it. Non-blocking claims are reported but never fail the run.

Exit codes:
  0 - no blocking failures
  3 - at least one blocking claim failed without an active waiver`,
	Example: `  govern check
  govern check --json
  govern check --as-of 2026-01-31
  govern check --watch
  govern check --metrics-file /var/lib/node_exporter/textfile/govern.prom`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
	checkCmd.Flags().StringVar(&checkAsOf, "as-of", "", "evaluate waiver expiry on this date (YYYY-MM-DD, default today)")
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "re-run whenever project files change")
	checkCmd.Flags().StringVar(&checkMetricsFile, "metrics-file", "", "write Prometheus metrics for each run to this file")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	asOf, err := parseAsOf(checkAsOf)
	if err != nil {
		return fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", checkAsOf)
	}

	p, err := loadProject()
	if err != nil {
		return err
	}

	exporter := newMetricsExporter(checkMetricsFile)

	if !checkWatch {
		result, err := checkOnce(cmd.Context(), p, asOf, exporter)
		if err != nil {
			return err
		}
		if err := writeResult(cmd.OutOrStdout(), result, checkJSON); err != nil {
			return err
		}
		return result.Err()
	}

	return watchChecks(cmd, p, asOf, exporter)
}

// checkOnce builds the registry and waiver set and runs every claim once.
// The outcome is exported when exporter is non-nil.
func checkOnce(ctx context.Context, p *project, asOf time.Time, exporter *metricsExporter) (result *enforce.Result, err error) {
	defer func() {
		if err != nil {
			exporter.recordError(p, err)
		}
	}()

	store := p.driftStore()
	registry, err := checks.Registry(p.config, checks.Deps{Drift: store})
	if err != nil {
		return nil, err
	}
	waivers, err := p.waiverSet()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err = enforce.NewEngine(p.executor()).Run(ctx, registry, waivers, asOf)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)
	p.logger.Info("claims checked",
		"total", result.Summary.Total,
		"blocking_failures", len(result.Summary.BlockingFailures),
		"waived", len(result.Waived),
		"duration", duration)

	exporter.recordCheck(p, registry, store, result, duration)
	return result, nil
}

func writeResult(w io.Writer, result *enforce.Result, asJSON bool) error {
	if asJSON {
		formatter, err := ux.NewFormatter("json", &ux.FormatterOptions{Writer: w})
		if err != nil {
			return err
		}
		return formatter.Format(result)
	}
	formatter, err := ux.NewFormatter("text", &ux.FormatterOptions{Writer: w})
	if err != nil {
		return err
	}
	return formatter.Format(ux.ResultView{Result: result})
}

func watchChecks(cmd *cobra.Command, p *project, asOf time.Time, exporter *metricsExporter) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	run := func(ctx context.Context) {
		// Reload so edits to governance.yaml apply to the next run.
		current, err := loadProject()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		result, err := checkOnce(ctx, current, asOf, exporter)
		if err != nil {
			p.logger.WithError(err).Error("check run failed")
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		if err := writeResult(out, result, checkJSON); err != nil {
			p.logger.WithError(err).Error("failed to write report")
		}
	}

	run(ctx)

	config := watch.Config{Root: p.root}
	if exporter != nil {
		config.OutputFiles = []string{exporter.path}
	}
	watcher, err := watch.New(config, p.logger)
	if err != nil {
		return goverrors.Wrap(goverrors.ErrCodeDirectoryFailed, "failed to start file watcher", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes. Press Ctrl+C to stop.")
	return watcher.Run(ctx, func(ctx context.Context, paths []string) {
		p.logger.Info("change detected", "paths", paths)
		run(ctx)
	})
}
