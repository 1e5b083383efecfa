package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/enforce"
	"github.com/felixgeelhaar/govern/internal/waiver"
)

// ResultView renders a claim run
type ResultView struct {
	Result *enforce.Result
}

// RenderText writes the per-claim table, the issues and the verdict
func (v ResultView) RenderText(w io.Writer, s Styles) error {
	r := v.Result
	waived := make(map[string]bool, len(r.Waived))
	for _, id := range r.Waived {
		waived[id] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CLAIM", "STATUS", "ISSUES")
	for _, report := range r.Reports {
		status := statusStyle(s, report.Status).Render(report.Status.String())
		if waived[report.ClaimID] {
			status += s.Muted.Render(" (waived)")
		}
		t.Row(report.ClaimID, status, fmt.Sprintf("%d", len(report.Issues)))
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Claims") + "\n")
	b.WriteString(t.Render() + "\n")

	for _, report := range r.Reports {
		if len(report.Issues) == 0 {
			continue
		}
		b.WriteString("\n" + s.Label.Render(report.ClaimID) + "\n")
		for _, issue := range report.Issues {
			b.WriteString("  - " + issue + "\n")
		}
	}

	sum := r.Summary
	b.WriteString(fmt.Sprintf("\n%s %d total, %s, %s, %s\n",
		s.Label.Render("Summary:"),
		sum.Total,
		s.Pass.Render(fmt.Sprintf("%d pass", sum.Pass)),
		s.Fail.Render(fmt.Sprintf("%d fail", sum.Fail)),
		s.Error.Render(fmt.Sprintf("%d error", sum.Error)),
	))
	if sum.Green() {
		b.WriteString(s.Pass.Render("No blocking failures") + "\n")
	} else {
		b.WriteString(s.Fail.Render("Blocking failures: "+strings.Join(sum.BlockingFailures, ", ")) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func statusStyle(s Styles, status claim.Status) lipgloss.Style {
	switch status {
	case claim.StatusPass:
		return s.Pass
	case claim.StatusFail:
		return s.Fail
	default:
		return s.Error
	}
}

// DriftEventsView renders drift events as a table
type DriftEventsView struct {
	Events []drift.Event
}

// RenderText writes one row per event in append order
func (v DriftEventsView) RenderText(w io.Writer, s Styles) error {
	if len(v.Events) == 0 {
		_, err := fmt.Fprintln(w, s.Muted.Render("No drift events"))
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SEVERITY", "STATE", "TIMESTAMP", "DETAIL")
	for _, e := range v.Events {
		t.Row(e.ID, severityStyle(s, e.Severity).Render(e.Severity.String()), e.State(), e.Timestamp, e.Detail)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func severityStyle(s Styles, severity drift.Severity) lipgloss.Style {
	switch severity {
	case drift.SeverityCritical:
		return s.Error
	case drift.SeverityHigh:
		return s.Fail
	case drift.SeverityMedium:
		return s.Warn
	default:
		return s.Muted
	}
}

// WaiverResultsView renders per-file waiver validation
type WaiverResultsView struct {
	Results []waiver.FileResult
}

// RenderText lists each file with its violations
func (v WaiverResultsView) RenderText(w io.Writer, s Styles) error {
	var b strings.Builder
	invalid := 0
	for _, r := range v.Results {
		if r.Valid() {
			b.WriteString(s.Pass.Render("ok") + "   " + r.Path)
			if r.Waiver != nil {
				b.WriteString(s.Muted.Render(fmt.Sprintf(" (%s until %s)", r.Waiver.ClaimID, r.Waiver.ExpiryDate())))
			}
			b.WriteString("\n")
			continue
		}
		invalid++
		b.WriteString(s.Fail.Render("FAIL") + " " + r.Path + "\n")
		for _, violation := range r.Violations {
			b.WriteString("       - " + violation + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\n%d waiver file(s), %d with violations\n", len(v.Results), invalid))
	_, err := io.WriteString(w, b.String())
	return err
}
