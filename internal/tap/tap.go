// Package tap manages formula collections cloned from git repositories.
//
// A tap is a git repository of *.lua formula files. Taps live under the
// prefix's taps directory, one subdirectory per tap, and are searched in
// name order when resolving a formula.
package tap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

var (
	ErrTapExists       = errors.New("tap already added")
	ErrTapNotFound     = errors.New("tap not found")
	ErrFormulaNotFound = errors.New("formula not found in any tap")
)

// Tap describes one cloned formula collection.
type Tap struct {
	Name string
	Path string
	URL  string
}

// Manager clones and updates taps under one directory.
type Manager struct {
	dir string
}

// NewManager creates a tap manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// tapPath maps a tap name like "kegworks/core" onto a directory path.
// Slashes become nested directories so tap names stay unique.
func (m *Manager) tapPath(name string) string {
	return filepath.Join(m.dir, filepath.FromSlash(name))
}

// Add clones a tap repository. Taps are full clones; pulling updates into
// a shallow clone is unreliable across transports.
func (m *Manager) Add(ctx context.Context, name, url string) (*Tap, error) {
	if name == "" {
		return nil, fmt.Errorf("tap name cannot be empty")
	}
	if strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid tap name: %s", name)
	}

	path := m.tapPath(name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrTapExists, name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create taps directory: %w", err)
	}

	_, err := gogit.PlainCloneContext(ctx, path, false, &gogit.CloneOptions{
		URL: url,
	})
	if err != nil {
		// A failed clone may leave a partial directory behind.
		os.RemoveAll(path)
		return nil, fmt.Errorf("clone tap %s: %w", name, err)
	}

	return &Tap{Name: name, Path: path, URL: url}, nil
}

// Update pulls the latest formulae for one tap. An already-up-to-date tap
// is not an error.
func (m *Manager) Update(ctx context.Context, name string) error {
	path := m.tapPath(name)

	repo, err := gogit.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return fmt.Errorf("%w: %s", ErrTapNotFound, name)
		}
		return fmt.Errorf("open tap %s: %w", name, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull tap %s: %w", name, err)
	}
	return nil
}

// UpdateAll pulls every tap, continuing past individual failures and
// returning them joined.
func (m *Manager) UpdateAll(ctx context.Context) error {
	taps, err := m.List()
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range taps {
		if err := m.Update(ctx, t.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove deletes a tap and its formulae.
func (m *Manager) Remove(name string) error {
	path := m.tapPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrTapNotFound, name)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove tap %s: %w", name, err)
	}
	return nil
}

// List returns every cloned tap sorted by name. A tap is any directory
// under the taps root that contains a .git directory; nesting gives
// "owner/repo" names.
func (m *Manager) List() ([]*Tap, error) {
	var taps []*Tap

	err := filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == m.dir {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() || path == m.dir {
			return nil
		}
		if _, statErr := os.Stat(filepath.Join(path, ".git")); statErr == nil {
			rel, relErr := filepath.Rel(m.dir, path)
			if relErr != nil {
				return relErr
			}
			taps = append(taps, &Tap{
				Name: filepath.ToSlash(rel),
				Path: path,
			})
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list taps: %w", err)
	}

	sort.Slice(taps, func(i, j int) bool { return taps[i].Name < taps[j].Name })
	return taps, nil
}

// Resolve finds the formula file for a package name, searching taps in
// name order and returning the first match. Formula files are named
// {package}.lua and may live anywhere inside the tap.
func (m *Manager) Resolve(name string) (string, error) {
	taps, err := m.List()
	if err != nil {
		return "", err
	}

	filename := name + ".lua"
	for _, t := range taps {
		var found string
		err := filepath.WalkDir(t.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == filename {
				found = path
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("search tap %s: %w", t.Name, err)
		}
		if found != "" {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFormulaNotFound, name)
}
