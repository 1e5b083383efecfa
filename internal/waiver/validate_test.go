package waiver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validRecord() Record {
	return Record{
		"claimId":       "version-consistency",
		"justification": "release branch pins the previous version",
		"expiry":        "2030-01-01",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(Record)
		want    int
		contain string
	}{
		{name: "valid", mutate: func(Record) {}, want: 0},
		{name: "missing claim id", mutate: func(r Record) { delete(r, "claimId") }, want: 1, contain: `missing required field "claimId"`},
		{name: "null expiry", mutate: func(r Record) { r["expiry"] = nil }, want: 1, contain: `missing required field "expiry"`},
		{name: "19 char justification", mutate: func(r Record) { r["justification"] = strings.Repeat("x", 19) }, want: 1, contain: "at least 20"},
		{name: "20 char justification", mutate: func(r Record) { r["justification"] = strings.Repeat("x", 20) }, want: 0},
		{name: "multibyte justification counted in characters", mutate: func(r Record) { r["justification"] = strings.Repeat("é", 20) }, want: 0},
		{name: "numeric justification", mutate: func(r Record) { r["justification"] = 42 }, want: 1, contain: "must be a string"},
		{name: "month 13", mutate: func(r Record) { r["expiry"] = "2025-13-01" }, want: 1, contain: "not a valid calendar date"},
		{name: "valid date", mutate: func(r Record) { r["expiry"] = "2025-01-01" }, want: 0},
		{name: "slashes", mutate: func(r Record) { r["expiry"] = "2025/01/01" }, want: 1, contain: "YYYY-MM-DD"},
		{name: "empty claim id", mutate: func(r Record) { r["claimId"] = "" }, want: 1, contain: "claimId"},
		{
			name: "all rules reported",
			mutate: func(r Record) {
				delete(r, "claimId")
				r["justification"] = "short"
				r["expiry"] = "tomorrow"
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(record)

			violations := Validate(record, nil)
			assert.Len(t, violations, tt.want, "violations: %v", violations)
			if tt.contain != "" {
				assert.Contains(t, strings.Join(violations, "\n"), tt.contain)
			}
		})
	}
}

func TestValidateExtraRequiredField(t *testing.T) {
	schema := NewSchema("approver")

	violations := Validate(validRecord(), schema)
	require.Len(t, violations, 1)
	assert.Equal(t, `missing required field "approver"`, violations[0])

	record := validRecord()
	record["approver"] = "security-team"
	assert.Empty(t, Validate(record, schema))
}

func TestParseSchema(t *testing.T) {
	doc := []byte(`{
  "type": "object",
  "required": ["claimId", "approver"],
  "properties": {
    "approver": {"type": "string", "minLength": 3}
  }
}`)

	schema, err := ParseSchema(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"claimId", "justification", "expiry", "approver"}, schema.Required)

	record := validRecord()
	record["approver"] = "ab"
	violations := Validate(record, schema)
	require.NotEmpty(t, violations)
	for _, v := range violations {
		assert.NotContains(t, v, "missing required field")
	}
}

func TestParseSchemaYAML(t *testing.T) {
	schema, err := ParseSchema([]byte("required:\n  - ticket\n"))
	require.NoError(t, err)
	assert.Contains(t, schema.Required, "ticket")
}

func TestParseSchemaRejectsBadRequired(t *testing.T) {
	_, err := ParseSchema([]byte(`{"required": "claimId"}`))
	assert.Error(t, err)
}

func TestMissingFieldAlwaysNamed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fields := []string{"claimId", "justification", "expiry", "approver", "ticket"}
		schema := NewSchema("approver", "ticket")

		record := validRecord()
		record["approver"] = "security-team"
		record["ticket"] = "GOV-12"

		drop := rapid.SampledFrom(fields).Draw(t, "drop")
		delete(record, drop)

		violations := Validate(record, schema)
		named := false
		for _, v := range violations {
			if strings.Contains(v, `"`+drop+`"`) {
				named = true
			}
		}
		if !named {
			t.Fatalf("no violation names %q: %v", drop, violations)
		}
	})
}

func TestJustificationBoundary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(t, "length")
		record := validRecord()
		record["justification"] = strings.Repeat("a", n)

		violations := Validate(record, nil)
		if n < MinJustificationLength && len(violations) != 1 {
			t.Fatalf("length %d: expected one violation, got %v", n, violations)
		}
		if n >= MinJustificationLength && len(violations) != 0 {
			t.Fatalf("length %d: expected no violations, got %v", n, violations)
		}
	})
}
