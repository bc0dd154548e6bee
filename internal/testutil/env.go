// Package testutil provides utilities for testing keg in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestPrefix creates an isolated prefix for each test and points the
// keg environment variables at it. This ensures tests never touch:
// - A real keg prefix under the user's XDG data directory
// - The user's download cache
// - Any registered service units
//
// Cleanup is handled by t.TempDir(), so callers don't need to remove
// anything themselves. Returns the prefix root.
func SetupTestPrefix(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "prefix")

	t.Setenv("KEG_PREFIX", root)
	t.Setenv("KEG_CACHE_DIR", filepath.Join(tmpDir, "cache"))

	dirs := []string{
		root,
		filepath.Join(tmpDir, "cache"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("create test dir %s: %v", dir, err)
		}
	}

	return root
}
