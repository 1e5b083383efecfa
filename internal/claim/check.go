package claim

import "context"

// Env is what a check may observe about the project under verification
type Env struct {
	// Root is the project directory; relative paths in checks resolve against it
	Root string
}

// Check verifies one claim. It returns the violations found (empty when the
// claim holds) or an error when the verification itself could not complete.
// Checks must be read-only and should honor ctx cancellation.
type Check interface {
	Verify(ctx context.Context, env Env) ([]string, error)
}

// CheckFunc adapts a function to the Check interface
type CheckFunc func(ctx context.Context, env Env) ([]string, error)

// Verify calls f(ctx, env)
func (f CheckFunc) Verify(ctx context.Context, env Env) ([]string, error) {
	return f(ctx, env)
}
