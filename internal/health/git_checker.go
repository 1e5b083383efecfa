package health

import (
	"context"
	"os/exec"
	"strings"
)

// GitChecker reports whether the project root is tracked by git. The drift
// log and waivers are meant to be committed, so an untracked project is
// degraded rather than broken.
type GitChecker struct {
	root string
}

// NewGitChecker creates a checker for the project at root.
func NewGitChecker(root string) *GitChecker {
	return &GitChecker{root: root}
}

// Name returns the name of this health check.
func (c *GitChecker) Name() string {
	return "git-repository"
}

// Check runs `git rev-parse --show-toplevel` in the project root.
func (c *GitChecker) Check(ctx context.Context) *Result {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return Degraded("git command not found in PATH").
			WithDetail("suggestion", "Install Git to version the drift log and waivers")
	}

	// #nosec G204 -- fixed arguments, root is the resolved project root.
	cmd := exec.CommandContext(ctx, gitPath, "-C", c.root, "rev-parse", "--show-toplevel")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Degraded("project is not inside a git repository").
			WithDetail("root", c.root).
			WithDetail("output", strings.TrimSpace(string(output)))
	}

	return Healthy("project is tracked by git").
		WithDetail("toplevel", strings.TrimSpace(string(output)))
}
