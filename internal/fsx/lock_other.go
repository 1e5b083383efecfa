//go:build !unix && !windows

package fsx

import "os"

// Platforms without advisory locks fall back to process-local exclusivity
// provided by callers; tryLock always succeeds.
func tryLock(*os.File) error { return nil }

func unlock(*os.File) {}
