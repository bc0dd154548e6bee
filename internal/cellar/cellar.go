// Package cellar keeps records of installed kegs and runs the post-install
// smoke test against them.
//
// A keg record is one YAML file per package under the cellar directory,
// written when an install completes and removed on uninstall. The record is
// the source of truth for "what is installed": the bin file alone doesn't
// say which release or bottle it came from.
package cellar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotInstalled is returned when no keg record exists for a package.
var ErrNotInstalled = errors.New("package is not installed")

// Keg records one installed package release.
type Keg struct {
	Name        string    `yaml:"name"`
	Version     string    `yaml:"version"`
	Arch        string    `yaml:"arch"`
	BinPath     string    `yaml:"bin_path"`
	BottleURL   string    `yaml:"bottle_url"`
	SHA256      string    `yaml:"sha256"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// Cellar is the on-disk collection of keg records.
type Cellar struct {
	dir string
}

// New creates a cellar rooted at the given directory.
func New(dir string) *Cellar {
	return &Cellar{dir: dir}
}

// Save atomically writes the keg record, replacing any previous record for
// the same package name.
func (c *Cellar) Save(keg *Keg) error {
	if keg.Name == "" {
		return fmt.Errorf("keg has no name")
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cellar directory: %w", err)
	}

	data, err := yaml.Marshal(keg)
	if err != nil {
		return fmt.Errorf("marshal keg record: %w", err)
	}

	path := c.recordPath(keg.Name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write keg record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename keg record: %w", err)
	}
	return nil
}

// Load reads the keg record for a package.
func (c *Cellar) Load(name string) (*Keg, error) {
	data, err := os.ReadFile(c.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
		}
		return nil, fmt.Errorf("read keg record: %w", err)
	}

	var keg Keg
	if err := yaml.Unmarshal(data, &keg); err != nil {
		return nil, fmt.Errorf("unmarshal keg record: %w", err)
	}
	return &keg, nil
}

// Remove deletes the keg record for a package. Removing a package that is
// not installed returns ErrNotInstalled.
func (c *Cellar) Remove(name string) error {
	err := os.Remove(c.recordPath(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	return err
}

// List returns all keg records, sorted by package name.
func (c *Cellar) List() ([]*Keg, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cellar directory: %w", err)
	}

	var kegs []*Keg
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		keg, err := c.Load(strings.TrimSuffix(entry.Name(), ".yaml"))
		if err != nil {
			return nil, err
		}
		kegs = append(kegs, keg)
	}

	sort.Slice(kegs, func(i, j int) bool { return kegs[i].Name < kegs[j].Name })
	return kegs, nil
}

func (c *Cellar) recordPath(name string) string {
	return filepath.Join(c.dir, name+".yaml")
}
