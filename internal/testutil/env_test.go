package testutil_test

import (
	"os"
	"testing"

	"github.com/kegworks/keg/internal/testutil"
)

func TestSetupTestPrefix(t *testing.T) {
	root := testutil.SetupTestPrefix(t)

	if got := os.Getenv("KEG_PREFIX"); got != root {
		t.Errorf("KEG_PREFIX = %q, want %q", got, root)
	}
	if os.Getenv("KEG_CACHE_DIR") == "" {
		t.Error("KEG_CACHE_DIR not set")
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("prefix root missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("prefix root is not a directory")
	}
}
