// Package prefix resolves and lays out the keg installation prefix.
//
// Everything keg touches lives under one prefix directory: installed
// executables, keg records, download cache, cloned taps, rendered service
// units, service logs, and lock files. The prefix comes from $KEG_PREFIX
// when set, otherwise from the XDG data directory.
package prefix

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variables honored by Resolve.
const (
	EnvPrefix   = "KEG_PREFIX"
	EnvCacheDir = "KEG_CACHE_DIR"
)

// Directory permission for everything under the prefix.
const DirPermissions = 0755

// Prefix is the root of a keg installation.
type Prefix struct {
	root     string
	cacheDir string
}

// Resolve determines the prefix from the environment, falling back to
// the XDG data directory.
func Resolve() *Prefix {
	root := os.Getenv(EnvPrefix)
	if root == "" {
		root = filepath.Join(xdg.DataHome, "keg")
	}
	return New(root)
}

// New creates a prefix rooted at the given directory.
func New(root string) *Prefix {
	cacheDir := os.Getenv(EnvCacheDir)
	if cacheDir == "" {
		cacheDir = filepath.Join(root, "cache", "downloads")
	}
	return &Prefix{root: root, cacheDir: cacheDir}
}

// Root returns the prefix root directory.
func (p *Prefix) Root() string { return p.root }

// Bin returns the directory installed executables are placed in.
func (p *Prefix) Bin() string { return filepath.Join(p.root, "bin") }

// Cellar returns the directory keg install records are kept in.
func (p *Prefix) Cellar() string { return filepath.Join(p.root, "cellar") }

// CacheDir returns the download cache directory.
func (p *Prefix) CacheDir() string { return p.cacheDir }

// Taps returns the directory formula collections are cloned into.
func (p *Prefix) Taps() string { return filepath.Join(p.root, "taps") }

// Services returns the directory rendered service units are written to.
func (p *Prefix) Services() string { return filepath.Join(p.root, "services") }

// Logs returns the directory service stdout/stderr logs are written to.
func (p *Prefix) Logs() string { return filepath.Join(p.root, "logs") }

// Locks returns the directory install locks are created in.
func (p *Prefix) Locks() string { return filepath.Join(p.root, "locks") }

// Keyrings returns the directory GPG keyrings are read from.
func (p *Prefix) Keyrings() string { return filepath.Join(p.root, "keyrings") }

// Journal returns the directory install journal entries are written to.
func (p *Prefix) Journal() string { return filepath.Join(p.root, "journal") }

// BinPath returns the install path of a named executable.
func (p *Prefix) BinPath(name string) string {
	return filepath.Join(p.Bin(), name)
}

// EnsureDirs creates the prefix directory tree.
func (p *Prefix) EnsureDirs() error {
	dirs := []string{
		p.Bin(),
		p.Cellar(),
		p.CacheDir(),
		p.Taps(),
		p.Services(),
		p.Logs(),
		p.Locks(),
		p.Journal(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
