package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/policy"
)

// JSONSchema validates matched JSON and YAML files against a schema
type JSONSchema struct {
	Schema string
	Files  []string
}

// Verify compiles the schema and reports one issue per non-conforming
// file. An unreadable or invalid schema is a check error.
func (c *JSONSchema) Verify(ctx context.Context, env claim.Env) ([]string, error) {
	schema, err := compileSchema(policy.Resolve(env.Root, c.Schema))
	if err != nil {
		return nil, err
	}

	issues := []string{}
	for _, pattern := range c.Files {
		matches, err := expand(env.Root, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			issues = append(issues, fmt.Sprintf("no files match %s", pattern))
			continue
		}

		for _, m := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if problems := validateFile(schema, m.Path); len(problems) > 0 {
				issues = append(issues, fmt.Sprintf("%s: %s", m.Display, strings.Join(problems, "; ")))
			}
		}
	}
	return issues, nil
}

func compileSchema(path string) (*jsonschema.Schema, error) {
	doc, err := decodeDocument(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	return schema, nil
}

func validateFile(schema *jsonschema.Schema, path string) []string {
	doc, err := decodeDocument(path)
	if err != nil {
		return []string{err.Error()}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return []string{fmt.Sprintf("not representable as JSON: %v", err)}
	}

	result := schema.ValidateJSON(raw)
	if result.IsValid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors))
	for keyword, detail := range result.Errors {
		problems = append(problems, fmt.Sprintf("%s: %v", keyword, detail))
	}
	sort.Strings(problems)
	if len(problems) == 0 {
		problems = append(problems, "does not match schema")
	}
	return problems
}

var _ claim.Check = (*JSONSchema)(nil)
