// Package drift keeps the append-only log of detected deviation events and
// the review workflow over it.
package drift

import (
	"encoding/json"
	"fmt"
	"strings"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// Severity of a drift event. Ordered low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity in ascending order
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity parses a severity name, ignoring case and surrounding space
func ParseSeverity(value string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(value)))
	if s.Rank() == 0 {
		return "", goverrors.NewInvalidSeverityError(value)
	}
	return s, nil
}

// Rank returns 1..4 for known severities and 0 otherwise
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as floor or more
func (s Severity) AtLeast(floor Severity) bool {
	return s.Rank() >= floor.Rank()
}

func (s Severity) String() string {
	return string(s)
}

// UnmarshalJSON rejects severities outside the closed set
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if Severity(raw).Rank() == 0 {
		return fmt.Errorf("unknown severity %q", raw)
	}
	*s = Severity(raw)
	return nil
}

// Action is the outcome of a review
type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

// UnmarshalJSON rejects actions outside the closed set
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Action(raw) {
	case ActionApproved, ActionRejected:
		*a = Action(raw)
		return nil
	default:
		return fmt.Errorf("unknown resolution action %q", raw)
	}
}

// Resolution records a review decision. Once set it never changes.
type Resolution struct {
	Action Action `json:"action"`
}

// Event is a single detected deviation
type Event struct {
	ID         string      `json:"id"`
	Severity   Severity    `json:"severity"`
	Timestamp  string      `json:"timestamp"`
	Detail     string      `json:"detail,omitempty"`
	Blueprint  string      `json:"blueprint,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Pending reports whether the event still awaits review
func (e Event) Pending() bool {
	return e.Resolution == nil
}

// State returns pending, approved or rejected
func (e Event) State() string {
	if e.Resolution == nil {
		return "pending"
	}
	return string(e.Resolution.Action)
}

// Document is the persisted drift log
type Document struct {
	DriftEvents []Event `json:"driftEvents"`
}

// Find returns the index of the event with id, or -1
func (d *Document) Find(id string) int {
	for i, e := range d.DriftEvents {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// FixMode selects what replay proposes alongside the re-derived state
type FixMode string

const (
	FixModeNone   FixMode = "none"
	FixModeGuided FixMode = "guided"
	FixModeAuto   FixMode = "auto"
)

// ParseFixMode parses a fix mode; the empty string means none
func ParseFixMode(value string) (FixMode, error) {
	switch m := FixMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return FixModeNone, nil
	case FixModeNone, FixModeGuided, FixModeAuto:
		return m, nil
	default:
		return "", goverrors.NewInvalidFixModeError(value)
	}
}
