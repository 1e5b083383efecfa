// Package claim defines compliance claims, their per-run reports and the
// executor that turns a registry of claims into an ordered report sequence.
package claim

import (
	"encoding/json"
	"fmt"
)

// Status is the outcome of verifying one claim
type Status string

const (
	// StatusPass means the claim holds
	StatusPass Status = "pass"
	// StatusFail means the check ran and found violations
	StatusFail Status = "fail"
	// StatusError means the check itself could not complete
	StatusError Status = "error"
)

// Validate checks if the status is one of the known values
func (s Status) Validate() error {
	switch s {
	case StatusPass, StatusFail, StatusError:
		return nil
	default:
		return fmt.Errorf("invalid status %q: must be pass, fail, or error", string(s))
	}
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// UnmarshalJSON rejects statuses outside the closed set
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := Status(raw)
	if err := parsed.Validate(); err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Claim is a named, addressable compliance assertion. Claims are defined
// at registration time and never mutated.
type Claim struct {
	ID          string `json:"claimId" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description"`
	Blocking    bool   `json:"blocking" yaml:"blocking"`
}

// Report is the result of verifying one claim in one run.
// Issues is empty iff Status is pass.
type Report struct {
	ClaimID string   `json:"claimId"`
	Status  Status   `json:"status"`
	Issues  []string `json:"issues"`
}

// Passed builds a passing report
func Passed(claimID string) Report {
	return Report{ClaimID: claimID, Status: StatusPass, Issues: []string{}}
}

// Failed builds a failing report; at least one issue is expected
func Failed(claimID string, issues ...string) Report {
	return Report{ClaimID: claimID, Status: StatusFail, Issues: issues}
}

// Errored builds an error report with the single cause as its issue
func Errored(claimID string, cause string) Report {
	return Report{ClaimID: claimID, Status: StatusError, Issues: []string{cause}}
}

// IsFailing reports whether the report is fail or error
func (r Report) IsFailing() bool {
	return r.Status == StatusFail || r.Status == StatusError
}
