// Package service renders and tracks background service units for
// installed packages.
//
// A formula may declare a service block; registering it produces a
// platform-native unit file (a launchd property list on macOS, a systemd
// user unit on Linux) under the prefix's services directory, plus an entry
// in the registry index. keg renders unit files but does not talk to
// launchd or systemd itself; loading the unit is left to the operator or
// to shell integration.
package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kegworks/keg/internal/formula"
	"github.com/kegworks/keg/internal/prefix"
)

var (
	// ErrUnsupportedPlatform is returned when the host has no supported
	// service manager.
	ErrUnsupportedPlatform = errors.New("no supported service manager on this platform")
	// ErrNotRegistered is returned when unregistering a package that has
	// no registered unit.
	ErrNotRegistered = errors.New("service not registered")
)

// LabelPrefix namespaces every unit keg renders.
const LabelPrefix = "keg."

// Unit is a rendered service definition for one package.
type Unit struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Label       string            `yaml:"label"`
	Program     []string          `yaml:"program"`
	KeepAlive   bool              `yaml:"keep_alive"`
	Environment map[string]string `yaml:"environment,omitempty"`
	StdoutPath  string            `yaml:"stdout_path"`
	StderrPath  string            `yaml:"stderr_path"`
	UnitPath    string            `yaml:"unit_path"`
	CreatedAt   time.Time         `yaml:"created_at"`
}

// Label returns the unit label for a package name.
func Label(name string) string {
	return LabelPrefix + name
}

// buildUnit assembles a Unit from a formula's service block. The command's
// executable is resolved against the prefix bin directory unless already
// absolute, and PATH is pinned so the service finds keg-installed
// executables without inheriting the user's shell environment.
func buildUnit(f *formula.Formula, p *prefix.Prefix) (*Unit, error) {
	spec := f.Service
	if spec == nil {
		return nil, fmt.Errorf("formula %s declares no service", f.Name)
	}
	if len(spec.Run) == 0 {
		return nil, fmt.Errorf("formula %s: service run command is empty", f.Name)
	}

	program := make([]string, len(spec.Run))
	copy(program, spec.Run)
	if !filepath.IsAbs(program[0]) {
		program[0] = p.BinPath(program[0])
	}

	env := make(map[string]string, len(spec.Environment)+1)
	for k, v := range spec.Environment {
		env[k] = v
	}
	env["PATH"] = "/usr/bin:/bin:" + p.Bin()

	stdoutPath := spec.LogPath
	if stdoutPath == "" {
		stdoutPath = filepath.Join(p.Logs(), f.Name+".log")
	}
	stderrPath := spec.ErrorLogPath
	if stderrPath == "" {
		stderrPath = filepath.Join(p.Logs(), f.Name+".err.log")
	}

	return &Unit{
		ID:          uuid.New().String(),
		Name:        f.Name,
		Label:       Label(f.Name),
		Program:     program,
		KeepAlive:   spec.KeepAlive,
		Environment: env,
		StdoutPath:  stdoutPath,
		StderrPath:  stderrPath,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
