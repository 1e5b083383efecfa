package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/ux"
	"github.com/felixgeelhaar/govern/internal/waiver"
)

var waiverCmd = &cobra.Command{
	Use:   "waiver",
	Short: "Validate waiver files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var waiverVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every waiver file against the waiver schema",
	Long: `Validate each .json, .yaml, .yml, .waiver and .txt file in the waiver
directory. Every waiver needs claimId, a justification of at least 20
characters and an expiry date in YYYY-MM-DD format, plus any field the
schema requires. Invalid waivers never suppress a failing claim.

Exit codes:
  0 - all waivers valid, or no waiver directory
  6 - at least one file has violations`,
	Args: cobra.NoArgs,
	RunE: runWaiverVerify,
}

var (
	waiverDir    string
	waiverSchema string
	waiverJSON   bool
)

func init() {
	waiverVerifyCmd.Flags().StringVar(&waiverDir, "dir", "", "waiver directory (default from governance.yaml)")
	waiverVerifyCmd.Flags().StringVar(&waiverSchema, "schema", "", "waiver schema file (JSON or YAML)")
	waiverVerifyCmd.Flags().BoolVar(&waiverJSON, "json", false, "print results as JSON")

	waiverCmd.AddCommand(waiverVerifyCmd)
	rootCmd.AddCommand(waiverCmd)
}

type waiverReport struct {
	Files   []waiver.FileResult `json:"files"`
	Valid   int                 `json:"valid"`
	Invalid int                 `json:"invalid"`
}

func runWaiverVerify(cmd *cobra.Command, _ []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	schema, err := p.waiverSchema(waiverSchema)
	if err != nil {
		return err
	}

	results, err := waiver.LoadDir(p.waiverDir(waiverDir), schema)
	if errors.Is(err, waiver.ErrNoWaiverDir) {
		fmt.Fprintln(cmd.OutOrStdout(), "no waivers directory")
		return nil
	}
	if err != nil {
		return err
	}

	report := waiverReport{Files: results}
	for _, r := range results {
		if r.Valid() {
			report.Valid++
		} else {
			report.Invalid++
		}
	}

	format, data := "text", any(ux.WaiverResultsView{Results: results})
	if waiverJSON {
		format, data = "json", report
	}
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	if err := formatter.Format(data); err != nil {
		return err
	}

	if report.Invalid > 0 {
		return goverrors.NewWaiverViolationError(report.Invalid)
	}
	return nil
}
