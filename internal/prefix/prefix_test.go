package prefix

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFromEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvPrefix, root)
	t.Setenv(EnvCacheDir, "")

	p := Resolve()
	if p.Root() != root {
		t.Errorf("Root() = %q, want %q", p.Root(), root)
	}
	if got, want := p.Bin(), filepath.Join(root, "bin"); got != want {
		t.Errorf("Bin() = %q, want %q", got, want)
	}
	if got, want := p.CacheDir(), filepath.Join(root, "cache", "downloads"); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}
}

func TestResolveCacheOverride(t *testing.T) {
	root := t.TempDir()
	cache := t.TempDir()
	t.Setenv(EnvPrefix, root)
	t.Setenv(EnvCacheDir, cache)

	p := Resolve()
	if p.CacheDir() != cache {
		t.Errorf("CacheDir() = %q, want %q", p.CacheDir(), cache)
	}
}

func TestResolveXDGFallback(t *testing.T) {
	t.Setenv(EnvPrefix, "")
	t.Setenv(EnvCacheDir, "")

	p := Resolve()
	if p.Root() == "" {
		t.Fatal("Root() is empty")
	}
	if filepath.Base(p.Root()) != "keg" {
		t.Errorf("Root() = %q, want a keg data directory", p.Root())
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvCacheDir, "")
	p := New(root)

	if err := p.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() unexpected error: %v", err)
	}

	for _, dir := range []string{p.Bin(), p.Cellar(), p.CacheDir(), p.Taps(), p.Services(), p.Logs(), p.Locks(), p.Journal()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("missing directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	// Idempotent
	if err := p.EnsureDirs(); err != nil {
		t.Errorf("EnsureDirs() second call: %v", err)
	}
}

func TestBinPath(t *testing.T) {
	p := New("/opt/keg")
	if got, want := p.BinPath("music-discord-rpc"), filepath.Join("/opt/keg", "bin", "music-discord-rpc"); got != want {
		t.Errorf("BinPath() = %q, want %q", got, want)
	}
}
