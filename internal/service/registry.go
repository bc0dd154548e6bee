package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kegworks/keg/internal/formula"
	"github.com/kegworks/keg/internal/prefix"
)

const indexFilename = "index.yaml"

// Registry renders unit files into the prefix's services directory and
// tracks them in a YAML index. At most one unit exists per package name;
// registering again replaces the previous unit.
type Registry struct {
	prefix *prefix.Prefix
	goos   string
}

// NewRegistry creates a registry for the given prefix and host OS.
func NewRegistry(p *prefix.Prefix, goos string) *Registry {
	return &Registry{prefix: p, goos: goos}
}

// index is the on-disk registry state.
type index struct {
	Units map[string]*Unit `yaml:"units"`
}

// Register renders the formula's service block into a unit file and
// records it in the index. Registering a package that already has a unit
// replaces the unit in place, so repeat installs never accumulate
// duplicate units.
func (r *Registry) Register(f *formula.Formula) (*Unit, error) {
	unit, err := buildUnit(f, r.prefix)
	if err != nil {
		return nil, err
	}

	var content, ext string
	switch r.goos {
	case "darwin":
		ext = ".plist"
		content, err = renderLaunchd(unit)
	case "linux":
		ext = ".service"
		content, err = renderSystemd(unit)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, r.goos)
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.prefix.Services(), 0755); err != nil {
		return nil, fmt.Errorf("create services directory: %w", err)
	}

	unit.UnitPath = filepath.Join(r.prefix.Services(), unit.Label+ext)
	if err := os.WriteFile(unit.UnitPath, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("write unit file: %w", err)
	}

	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}

	// Drop a previous unit's file if its rendered path differs, e.g. after
	// a platform change on a shared prefix.
	if prev, ok := idx.Units[f.Name]; ok && prev.UnitPath != unit.UnitPath {
		os.Remove(prev.UnitPath)
	}

	idx.Units[f.Name] = unit
	if err := r.saveIndex(idx); err != nil {
		return nil, err
	}
	return unit, nil
}

// Unregister removes the package's unit file and index entry.
func (r *Registry) Unregister(name string) error {
	idx, err := r.loadIndex()
	if err != nil {
		return err
	}

	unit, ok := idx.Units[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	if err := os.Remove(unit.UnitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit file: %w", err)
	}

	delete(idx.Units, name)
	return r.saveIndex(idx)
}

// Lookup returns the registered unit for a package.
func (r *Registry) Lookup(name string) (*Unit, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	unit, ok := idx.Units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return unit, nil
}

// List returns all registered units sorted by package name.
func (r *Registry) List() ([]*Unit, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}

	units := make([]*Unit, 0, len(idx.Units))
	for _, unit := range idx.Units {
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

func (r *Registry) indexPath() string {
	return filepath.Join(r.prefix.Services(), indexFilename)
}

func (r *Registry) loadIndex() (*index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &index{Units: map[string]*Unit{}}, nil
		}
		return nil, fmt.Errorf("read service index: %w", err)
	}

	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("unmarshal service index: %w", err)
	}
	if idx.Units == nil {
		idx.Units = map[string]*Unit{}
	}
	return &idx, nil
}

func (r *Registry) saveIndex(idx *index) error {
	if err := os.MkdirAll(r.prefix.Services(), 0755); err != nil {
		return fmt.Errorf("create services directory: %w", err)
	}

	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal service index: %w", err)
	}

	path := r.indexPath()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write service index: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename service index: %w", err)
	}
	return nil
}
