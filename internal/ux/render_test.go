package ux

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/enforce"
	"github.com/felixgeelhaar/govern/internal/waiver"
)

type lookup map[string]bool

func (l lookup) IsActive(id string, _ time.Time) bool { return l[id] }

func TestResultViewRenderText(t *testing.T) {
	result, err := enforce.Aggregate(
		[]claim.Claim{{ID: "versions", Blocking: true}, {ID: "schema", Blocking: true}, {ID: "api", Blocking: true}},
		[]claim.Report{claim.Passed("versions"), claim.Failed("schema", "config.yaml: missing name"), claim.Errored("api", "boom")},
		lookup{"api": true},
		time.Now(),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf, NoColor: true})
	require.NoError(t, err)
	require.NoError(t, formatter.Format(ResultView{Result: result}))

	out := buf.String()
	assert.Contains(t, out, "versions")
	assert.Contains(t, out, "config.yaml: missing name")
	assert.Contains(t, out, "(waived)")
	assert.Contains(t, out, "3 total, 1 pass, 1 fail, 1 error")
	assert.Contains(t, out, "Blocking failures: schema")
}

func TestDriftEventsViewRenderText(t *testing.T) {
	var buf bytes.Buffer
	view := DriftEventsView{Events: []drift.Event{
		{ID: "evt-1", Severity: drift.SeverityHigh, Timestamp: "2026-01-01T00:00:00Z", Detail: "endpoint removed"},
	}}
	require.NoError(t, view.RenderText(&buf, NewStyles(false)))
	assert.Contains(t, buf.String(), "evt-1")
	assert.Contains(t, buf.String(), "pending")

	buf.Reset()
	require.NoError(t, DriftEventsView{}.RenderText(&buf, NewStyles(false)))
	assert.Contains(t, buf.String(), "No drift events")
}

func TestWaiverResultsViewRenderText(t *testing.T) {
	var buf bytes.Buffer
	view := WaiverResultsView{Results: []waiver.FileResult{
		{Path: "a.json", Violations: []string{}, Waiver: &waiver.Waiver{ClaimID: "docs", Expiry: time.Date(2030, 6, 30, 0, 0, 0, 0, time.UTC)}},
		{Path: "b.yaml", Violations: []string{`missing required field "expiry"`}},
	}}
	require.NoError(t, view.RenderText(&buf, NewStyles(false)))

	out := buf.String()
	assert.Contains(t, out, "a.json (docs until 2030-06-30)")
	assert.Contains(t, out, `missing required field "expiry"`)
	assert.Contains(t, out, "2 waiver file(s), 1 with violations")
}
