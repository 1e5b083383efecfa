package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/ux"
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "List, review, replay and record drift events",
	Long: `Work with the drift log, the append-only record of detected deviations.

Use 'govern drift list' to see events.
Use 'govern drift review <id> --approve' to approve an event (omit --approve to reject).
Use 'govern drift replay <blueprint>' to re-derive a blueprint's drift state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var driftListCmd = &cobra.Command{
	Use:   "list [severity]",
	Short: "List drift events, optionally of one severity",
	Example: `  govern drift list
  govern drift list high --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDriftList,
}

var driftReviewCmd = &cobra.Command{
	Use:   "review <id>",
	Short: "Approve or reject a pending drift event",
	Long: `Resolve a pending drift event. Without --approve the event is rejected.
A resolved event cannot be reviewed again.

Exit codes:
  0 - event resolved
  4 - no event with that id
  5 - event already resolved`,
	Example: `  govern drift review 7f9c2ba4 --approve
  govern drift review 7f9c2ba4
  govern drift review 7f9c2ba4 --interactive`,
	Args: cobra.ExactArgs(1),
	RunE: runDriftReview,
}

var driftReplayCmd = &cobra.Command{
	Use:   "replay <blueprint>",
	Short: "Print a blueprint's drift state as canonical JSON",
	Long: `Re-derive a blueprint's drift-relevant state: its events, the digests of its
artifacts under the blueprints directory and, depending on --fix-mode, the
proposed resolutions. The output is RFC 8785 canonical JSON and is
byte-identical for identical stored state.

Fix modes:
  none   - state only
  guided - suggested review commands for each pending event
  auto   - the resolution auto mode would propose (approve low/medium, escalate high/critical)`,
	Args: cobra.ExactArgs(1),
	RunE: runDriftReplay,
}

var driftRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append a new pending drift event",
	Example: `  govern drift record --severity high --detail "GET /items removed" --blueprint feat-public-viewing`,
	Args:    cobra.NoArgs,
	RunE:    runDriftRecord,
}

var (
	driftJSON        bool
	driftApprove     bool
	driftInteractive bool
	driftFixMode     string
	driftSeverity    string
	driftDetail      string
	driftBlueprint   string
	driftEventID     string
)

func init() {
	driftListCmd.Flags().BoolVar(&driftJSON, "json", false, "print events as JSON")

	driftReviewCmd.Flags().BoolVar(&driftApprove, "approve", false, "approve the event (default is reject)")
	driftReviewCmd.Flags().BoolVarP(&driftInteractive, "interactive", "i", false, "ask for the decision in the terminal")
	driftReviewCmd.MarkFlagsMutuallyExclusive("approve", "interactive")

	driftReplayCmd.Flags().StringVar(&driftFixMode, "fix-mode", string(drift.FixModeNone), "none, guided or auto")

	driftRecordCmd.Flags().StringVar(&driftSeverity, "severity", "", "low, medium, high or critical")
	driftRecordCmd.Flags().StringVar(&driftDetail, "detail", "", "what deviated")
	driftRecordCmd.Flags().StringVar(&driftBlueprint, "blueprint", "", "blueprint the event belongs to")
	driftRecordCmd.Flags().StringVar(&driftEventID, "id", "", "event id (generated when empty)")
	_ = driftRecordCmd.MarkFlagRequired("severity")
	_ = driftRecordCmd.MarkFlagRequired("detail")

	driftCmd.AddCommand(driftListCmd)
	driftCmd.AddCommand(driftReviewCmd)
	driftCmd.AddCommand(driftReplayCmd)
	driftCmd.AddCommand(driftRecordCmd)
	rootCmd.AddCommand(driftCmd)
}

func runDriftList(cmd *cobra.Command, args []string) error {
	var filter *drift.Severity
	if len(args) == 1 {
		severity, err := drift.ParseSeverity(args[0])
		if err != nil {
			return err
		}
		filter = &severity
	}

	p, err := loadProject()
	if err != nil {
		return err
	}
	events, err := p.driftStore().List(filter)
	if err != nil {
		return err
	}

	if driftJSON {
		formatter, err := ux.NewFormatter("json", &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		return formatter.Format(drift.Document{DriftEvents: events})
	}
	formatter, err := ux.NewFormatter("text", &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	return formatter.Format(ux.DriftEventsView{Events: events})
}

func runDriftReview(cmd *cobra.Command, args []string) error {
	id := args[0]
	p, err := loadProject()
	if err != nil {
		return err
	}
	store := p.driftStore()

	approve := driftApprove
	if driftInteractive {
		approve, err = confirmReview(store, id)
		if err != nil {
			return err
		}
	}

	event, err := store.Review(cmd.Context(), id, approve)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Drift event %s %s\n", event.ID, event.State())
	return nil
}

// confirmReview shows the event and asks for the decision. Unknown and
// resolved events are reported by Review itself, so the prompt is skipped.
func confirmReview(store *drift.Store, id string) (bool, error) {
	doc, err := store.Load()
	if err != nil {
		return false, err
	}
	i := doc.Find(id)
	if i < 0 || !doc.DriftEvents[i].Pending() {
		return false, nil
	}

	e := doc.DriftEvents[i]
	description := fmt.Sprintf("Severity: %s\nRecorded: %s\n%s", e.Severity, e.Timestamp, e.Detail)
	return ux.Confirm("Review drift event "+e.ID, description, "Approve", "Reject", false)
}

func runDriftReplay(cmd *cobra.Command, args []string) error {
	mode, err := drift.ParseFixMode(driftFixMode)
	if err != nil {
		return err
	}

	p, err := loadProject()
	if err != nil {
		return err
	}
	out, err := p.driftStore().Replay(args[0], mode)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

func runDriftRecord(cmd *cobra.Command, _ []string) error {
	severity, err := drift.ParseSeverity(driftSeverity)
	if err != nil {
		return err
	}

	p, err := loadProject()
	if err != nil {
		return err
	}
	event, err := p.driftStore().Append(cmd.Context(), drift.Event{
		ID:        driftEventID,
		Severity:  severity,
		Detail:    driftDetail,
		Blueprint: driftBlueprint,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), event.ID)
	return nil
}
