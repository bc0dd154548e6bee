// Package platform provides host detection and Lua integration for keg's
// declarative formulas.
//
// It detects OS, architecture, and Linux distribution details, then injects
// this information as a read-only table into Lua formulas so they can branch
// on the host declaratively. The package uses gopsutil for Linux distribution
// detection and provides graceful fallback behavior when detection fails.
package platform

import (
	"context"
	"errors"
)

// ErrUnsupportedArch is returned when the host CPU architecture has no
// normalized name, or when a formula declares no bottle for it.
var ErrUnsupportedArch = errors.New("unsupported architecture")

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // "amd64", "arm64" (normalized)
	ArchRaw  string // original GOARCH value
	Platform string // distro ID (Linux only, e.g., "ubuntu")
	Family   string // canonical family (e.g., "debian")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.OS == "darwin" && i.Arch == "arm64"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// Static is a Detector that always reports a fixed Info. It exists for
// tests and for selecting bottles on behalf of a foreign host.
type Static struct {
	Info Info
}

// Detect returns the fixed platform information.
func (s *Static) Detect(ctx context.Context) (*Info, error) {
	info := s.Info
	return &info, nil
}
