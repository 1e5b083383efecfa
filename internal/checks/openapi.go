package checks

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/govern/internal/claim"
)

// OpenAPI loads and validates every matched OpenAPI 3 document
type OpenAPI struct {
	Files []string
}

// Verify reports one issue per document that fails to load or validate
func (c *OpenAPI) Verify(ctx context.Context, env claim.Env) ([]string, error) {
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

			loader := openapi3.NewLoader()
			loader.IsExternalRefsAllowed = true
			loader.Context = ctx

			doc, err := loader.LoadFromFile(m.Path)
			if err != nil {
				issues = append(issues, fmt.Sprintf("%s: failed to load OpenAPI document: %v", m.Display, err))
				continue
			}
			if err := doc.Validate(ctx); err != nil {
				issues = append(issues, fmt.Sprintf("%s: invalid OpenAPI document: %v", m.Display, err))
			}
		}
	}
	return issues, nil
}

var _ claim.Check = (*OpenAPI)(nil)
