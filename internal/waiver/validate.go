package waiver

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// MinJustificationLength is the shortest justification accepted
const MinJustificationLength = 20

// DateLayout is the calendar date format of expiry
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Record is a decoded waiver document before validation
type Record map[string]any

// Validate applies every rule independently and returns all violations.
// A record with no violations is structurally valid.
func Validate(record Record, schema *Schema) []string {
	if schema == nil {
		schema = DefaultSchema()
	}

	var violations []string
	for _, field := range schema.Required {
		if value, ok := record[field]; !ok || value == nil {
			violations = append(violations, fmt.Sprintf("missing required field %q", field))
		}
	}

	if raw, ok := record[FieldClaimID]; ok && raw != nil {
		if id, isString := raw.(string); !isString || id == "" {
			violations = append(violations, "claimId must be a non-empty string")
		}
	}

	if raw, ok := record[FieldJustification]; ok && raw != nil {
		text, isString := raw.(string)
		switch {
		case !isString:
			violations = append(violations, "justification must be a string")
		case utf8.RuneCountInString(text) < MinJustificationLength:
			violations = append(violations, fmt.Sprintf("justification must be at least %d characters (got %d)",
				MinJustificationLength, utf8.RuneCountInString(text)))
		}
	}

	if raw, ok := record[FieldExpiry]; ok && raw != nil {
		if _, err := parseExpiry(raw); err != nil {
			violations = append(violations, err.Error())
		}
	}

	violations = append(violations, schema.structuralViolations(record)...)
	return violations
}

// parseExpiry accepts only a real YYYY-MM-DD calendar date
func parseExpiry(raw any) (time.Time, error) {
	text, ok := raw.(string)
	if !ok || !datePattern.MatchString(text) {
		return time.Time{}, fmt.Errorf("expiry must be a date in YYYY-MM-DD format (got %v)", raw)
	}
	date, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry %q is not a valid calendar date", text)
	}
	return date, nil
}
