// Package waiver validates exception records and answers whether a claim
// failure is currently waived.
package waiver

import (
	"sort"
	"time"
)

// Waiver is a structurally valid exception record for one claim
type Waiver struct {
	ClaimID       string    `json:"claimId"`
	Justification string    `json:"justification"`
	Expiry        time.Time `json:"-"`
	Approver      string    `json:"approver,omitempty"`
	Source        string    `json:"source,omitempty"`
}

// ExpiryDate returns the expiry as YYYY-MM-DD
func (w Waiver) ExpiryDate() string {
	return w.Expiry.Format(DateLayout)
}

// ActiveOn reports whether the waiver has not expired on asOf's calendar
// date. The expiry day itself is still covered.
func (w Waiver) ActiveOn(asOf time.Time) bool {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return !w.Expiry.Before(day)
}

// FromRecord builds a Waiver from a record. It returns false unless the
// record is structurally valid under schema.
func FromRecord(record Record, schema *Schema, source string) (Waiver, bool) {
	if len(Validate(record, schema)) > 0 {
		return Waiver{}, false
	}
	expiry, err := parseExpiry(record[FieldExpiry])
	if err != nil {
		return Waiver{}, false
	}
	w := Waiver{
		ClaimID:       record[FieldClaimID].(string),
		Justification: record[FieldJustification].(string),
		Expiry:        expiry,
		Source:        source,
	}
	if approver, ok := record[FieldApprover].(string); ok {
		w.Approver = approver
	}
	return w, true
}

// Set indexes structurally valid waivers by claim. A nil Set waives nothing.
type Set struct {
	byClaim map[string][]Waiver
	count   int
}

// NewSet builds a set from waivers
func NewSet(waivers ...Waiver) *Set {
	s := &Set{byClaim: make(map[string][]Waiver)}
	for _, w := range waivers {
		s.byClaim[w.ClaimID] = append(s.byClaim[w.ClaimID], w)
		s.count++
	}
	for id := range s.byClaim {
		list := s.byClaim[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Expiry.After(list[j].Expiry) })
	}
	return s
}

// SetFromResults collects the waivers of valid file results. Files with any
// violation, including parse failures, never contribute.
func SetFromResults(results []FileResult) *Set {
	var waivers []Waiver
	for _, r := range results {
		if r.Valid() && r.Waiver != nil {
			waivers = append(waivers, *r.Waiver)
		}
	}
	return NewSet(waivers...)
}

// IsActive reports whether any valid, unexpired waiver exists for claimID.
// Among several waivers for the same claim, any unexpired one suffices.
func (s *Set) IsActive(claimID string, asOf time.Time) bool {
	_, ok := s.Active(claimID, asOf)
	return ok
}

// Active returns the latest-expiring active waiver for claimID
func (s *Set) Active(claimID string, asOf time.Time) (Waiver, bool) {
	if s == nil {
		return Waiver{}, false
	}
	for _, w := range s.byClaim[claimID] {
		if w.ActiveOn(asOf) {
			return w, true
		}
	}
	return Waiver{}, false
}

// Len returns the number of waivers in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}
