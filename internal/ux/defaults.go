package ux

import (
	"fmt"
	"os"
	"path/filepath"
)

// GovernDirName is the per-project workspace directory
const GovernDirName = ".govern"

// PathDefaults provides default locations inside the workspace directory
type PathDefaults struct {
	GovernDir string
}

// NewPathDefaults creates defaults rooted at .govern in the working directory
func NewPathDefaults() *PathDefaults {
	return &PathDefaults{GovernDir: GovernDirName}
}

// NewPathDefaultsAt creates defaults rooted at root/.govern
func NewPathDefaultsAt(root string) *PathDefaults {
	return &PathDefaults{GovernDir: filepath.Join(root, GovernDirName)}
}

// ConfigFile returns the default path to governance.yaml
func (pd *PathDefaults) ConfigFile() string {
	return filepath.Join(pd.GovernDir, "governance.yaml")
}

// DriftLog returns the default path to the drift log
func (pd *PathDefaults) DriftLog() string {
	return filepath.Join(pd.GovernDir, "drift.json")
}

// BlueprintsDir returns the default blueprint artifact directory
func (pd *PathDefaults) BlueprintsDir() string {
	return filepath.Join(pd.GovernDir, "blueprints")
}

// WaiversDir returns the default waiver directory
func (pd *PathDefaults) WaiversDir() string {
	return filepath.Join(pd.GovernDir, "waivers")
}

// WaiverSchema returns the default waiver schema path. The file is optional.
func (pd *PathDefaults) WaiverSchema() string {
	return filepath.Join(pd.GovernDir, "waiver.schema.json")
}

// ValidateGovernSetup checks that the workspace directory exists
func (pd *PathDefaults) ValidateGovernSetup() error {
	if _, err := os.Stat(pd.GovernDir); os.IsNotExist(err) {
		return fmt.Errorf("%s directory not found; create it with a governance.yaml to configure claims", pd.GovernDir)
	}
	return nil
}
