package waiver

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// Core fields every waiver carries, whatever the schema document declares
const (
	FieldClaimID       = "claimId"
	FieldJustification = "justification"
	FieldExpiry        = "expiry"
	FieldApprover      = "approver"
)

var coreRequired = []string{FieldClaimID, FieldJustification, FieldExpiry}

// Schema is the declared shape of a waiver record: the required field list
// plus, optionally, a full JSON Schema document for further structural rules.
type Schema struct {
	Required []string
	compiled *jsonschema.Schema
}

// DefaultSchema requires only the core fields
func DefaultSchema() *Schema {
	return NewSchema()
}

// NewSchema builds a schema requiring the core fields and any extra ones, in
// declaration order without duplicates.
func NewSchema(extra ...string) *Schema {
	return &Schema{Required: mergeRequired(extra)}
}

// ParseSchema reads a JSON or YAML schema document. Its "required" list is
// merged with the core fields; the whole document is compiled as JSON Schema.
func ParseSchema(data []byte) (*Schema, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse schema: empty document")
	}

	var declared []string
	if raw, ok := doc["required"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("parse schema: required must be a list")
		}
		for _, item := range list {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parse schema: required entries must be strings, got %T", item)
			}
			declared = append(declared, name)
		}
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	compiled, err := compiler.Compile(asJSON)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Schema{Required: mergeRequired(declared), compiled: compiled}, nil
}

// LoadSchema reads a schema document from disk. Failing to read it is an
// I/O-level failure for the caller.
func LoadSchema(path string) (*Schema, error) {
	// #nosec G304 -- schema path comes from project configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goverrors.NewFileNotFoundError(path)
		}
		return nil, goverrors.NewFileReadError(path, err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return nil, goverrors.NewFileUnmarshalError(path, "schema", err)
	}
	return schema, nil
}

// structuralViolations runs the compiled JSON Schema, leaving out "required"
// which Validate already reports field by field.
func (s *Schema) structuralViolations(record Record) []string {
	if s == nil || s.compiled == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return []string{fmt.Sprintf("record is not representable as JSON: %v", err)}
	}

	result := s.compiled.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}

	var violations []string
	for keyword, detail := range result.Errors {
		if keyword == "required" {
			continue
		}
		violations = append(violations, fmt.Sprintf("schema %s: %v", keyword, detail))
	}
	sort.Strings(violations)
	return violations
}

func mergeRequired(extra []string) []string {
	seen := make(map[string]bool, len(coreRequired)+len(extra))
	merged := make([]string, 0, len(coreRequired)+len(extra))
	for _, name := range append(append([]string{}, coreRequired...), extra...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, name)
	}
	return merged
}
