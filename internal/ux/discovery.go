package ux

import (
	"os"
	"path/filepath"
)

// DiscoverRoot finds the project root for start: the nearest ancestor
// holding a .govern directory. The search stops at a git root or the
// filesystem root, in which case start itself is returned.
func DiscoverRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isDir(filepath.Join(dir, GovernDirName)) {
			return dir, nil
		}
		if isDir(filepath.Join(dir, ".git")) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return abs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
