package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
	"github.com/felixgeelhaar/govern/internal/health"
	"github.com/felixgeelhaar/govern/internal/ux"
	"github.com/felixgeelhaar/govern/internal/waiver"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the project setup",
	Long: `Check that the project can be governed:

  config          governance.yaml parses and validates
  drift-log       the drift log can be locked and parsed
  waivers         the waiver schema loads and every waiver validates
  git-repository  the project is tracked by git

Exits non-zero only when a check is unhealthy.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var (
	doctorJSON    bool
	doctorTimeout time.Duration
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 5*time.Second, "timeout per check")

	rootCmd.AddCommand(doctorCmd)
}

type doctorReport struct {
	Root    string          `json:"root"`
	Status  health.Status   `json:"status"`
	Reports []health.Report `json:"checks"`
	Notes   []string        `json:"notes,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	root := rootDir
	if root == "" {
		discovered, err := ux.DiscoverRoot(".")
		if err != nil {
			return err
		}
		root = discovered
	}
	configFile := configPath
	if configFile == "" {
		configFile = ux.NewPathDefaultsAt(root).ConfigFile()
	}

	manager := health.NewManager().WithTimeout(doctorTimeout)
	manager.AddChecker(health.NewConfigChecker(configFile))

	// Without a loadable config the remaining checks would only repeat
	// the config failure.
	p, err := loadProject()
	if err == nil {
		manager.AddChecker(health.NewDriftLogChecker(p.driftStore()))
		manager.AddChecker(health.NewWaiverChecker(p.waiverDir(""), func() (*waiver.Schema, error) {
			return p.waiverSchema("")
		}))
	}
	manager.AddChecker(health.NewGitChecker(root))

	reports := manager.Check(cmd.Context())
	report := doctorReport{Root: root, Status: health.OverallStatus(reports), Reports: reports}
	if err := ux.NewPathDefaultsAt(root).ValidateGovernSetup(); err != nil {
		report.Notes = append(report.Notes, err.Error())
	}

	if doctorJSON {
		formatter, err := ux.NewFormatter("json", &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		if err := formatter.Format(report); err != nil {
			return err
		}
	} else if err := writeDoctorText(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if report.Status == health.StatusUnhealthy {
		return goverrors.New(goverrors.ErrCodeConfigInvalid, "project setup has unhealthy checks").
			WithSuggestion("Fix the checks marked unhealthy and run 'govern doctor' again")
	}
	return nil
}

func writeDoctorText(w io.Writer, report doctorReport) error {
	s := ux.NewStyles(true)
	var b strings.Builder
	b.WriteString(s.Title.Render("govern doctor") + " " + s.Muted.Render(report.Root) + "\n\n")
	for _, r := range report.Reports {
		style := s.Pass
		switch r.Status {
		case health.StatusDegraded:
			style = s.Warn
		case health.StatusUnhealthy:
			style = s.Fail
		}
		b.WriteString(fmt.Sprintf("%-16s %s %s\n", r.Name, style.Render(fmt.Sprintf("%-9s", r.Status)), r.Message))
		if suggestion, ok := r.Details["suggestion"].(string); ok {
			b.WriteString(fmt.Sprintf("%-16s %s\n", "", s.Muted.Render(suggestion)))
		}
		if detail, ok := r.Details["error"].(string); ok {
			b.WriteString(fmt.Sprintf("%-16s %s\n", "", detail))
		}
	}
	for _, note := range report.Notes {
		b.WriteString("\n" + s.Warn.Render("note:") + " " + note + "\n")
	}
	b.WriteString("\nOverall: " + report.Status.String() + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
