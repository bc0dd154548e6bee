// Package formula provides Lua formula parsing, validation, and generation
// for keg's declarative binary release recipes.
//
// A formula describes one versioned upstream release: where to download the
// prebuilt archive per architecture, the pinned SHA-256 of each archive,
// which executable to install, an optional background service, and a
// post-install smoke test. Formulas are evaluated with gopher-lua inside a
// sandbox, with the host platform injected as a read-only table.
package formula

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/kegworks/keg/internal/platform"
)

// Validation limits. Formulas are authored by hand; anything near these
// limits is a mistake, not a real recipe.
const (
	MaxNameLength       = 128
	MaxDependencyCount  = 32
	MaxServiceArgCount  = 32
	MaxEnvironmentCount = 32
)

var (
	nameRegex    = regexp.MustCompile(`^[a-z0-9][a-z0-9._+-]*$`)
	versionRegex = regexp.MustCompile(`^\d+\.\d+(\.\d+)?([.-][0-9A-Za-z.-]+)?$`)
	sha256Regex  = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Formula is the descriptor for one versioned binary release.
// It is immutable after parsing; a new upstream release is a new formula.
type Formula struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Homepage     string            `json:"homepage,omitempty"`
	Version      string            `json:"version"`
	License      string            `json:"license,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Bottles      map[string]Bottle `json:"bottles"`
	Install      InstallSpec       `json:"install"`
	Service      *ServiceSpec      `json:"service,omitempty"`
	Test         TestSpec          `json:"test"`
}

// Bottle is one architecture variant: a download URL plus the pinned
// SHA-256 of the archive it serves, with optional signature material.
type Bottle struct {
	URL          string          `json:"url"`
	SHA256       string          `json:"sha256"`
	SignatureURL string          `json:"signature_url,omitempty"`
	Bundle       *SigstoreBundle `json:"bundle,omitempty"`
}

// SigstoreBundle points at a cosign bundle published alongside a bottle,
// plus the certificate identity the bundle must have been signed under.
type SigstoreBundle struct {
	URL      string `json:"url"`
	Identity string `json:"identity"` // certificate SAN regular expression
	Issuer   string `json:"issuer"`   // OIDC issuer URL
}

// InstallSpec names the executable to take out of the downloaded archive.
type InstallSpec struct {
	Bin string `json:"bin"` // defaults to the formula name
}

// ServiceSpec describes an optional supervised background service.
type ServiceSpec struct {
	Run          []string          `json:"run"`
	KeepAlive    bool              `json:"keep_alive"`
	Environment  map[string]string `json:"environment,omitempty"`
	LogPath      string            `json:"log_path,omitempty"`
	ErrorLogPath string            `json:"error_log_path,omitempty"`
}

// TestSpec describes the post-install smoke test: run the installed binary
// with Args and require Expect to appear in its output.
type TestSpec struct {
	Args   []string `json:"args,omitempty"`   // defaults to ["--version"]
	Expect string   `json:"expect,omitempty"` // defaults to the formula version
}

// BinName returns the executable name to install, defaulting to the
// formula name.
func (f *Formula) BinName() string {
	if f.Install.Bin != "" {
		return f.Install.Bin
	}
	return f.Name
}

// TestArgs returns the smoke test argv, defaulting to --version.
func (f *Formula) TestArgs() []string {
	if len(f.Test.Args) > 0 {
		return f.Test.Args
	}
	return []string{"--version"}
}

// TestExpect returns the substring the smoke test output must contain,
// defaulting to the formula version.
func (f *Formula) TestExpect() string {
	if f.Test.Expect != "" {
		return f.Test.Expect
	}
	return f.Version
}

// SelectBottle returns the bottle for the given host architecture.
// The architecture may be any accepted alias (amd64, x86_64, intel,
// arm64, aarch64, arm). Returns platform.ErrUnsupportedArch when the
// formula declares no bottle for the normalized architecture.
func (f *Formula) SelectBottle(arch string) (Bottle, error) {
	normalized, err := platform.NormalizeArch(arch)
	if err != nil {
		return Bottle{}, err
	}

	bottle, ok := f.Bottles[normalized]
	if !ok {
		return Bottle{}, fmt.Errorf("%w: no bottle for %s in formula %s",
			platform.ErrUnsupportedArch, normalized, f.Name)
	}
	return bottle, nil
}

// ValidationError describes a single invalid formula field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid formula field %s: %s", e.Field, e.Message)
}

// Validate checks the formula for structural correctness. A formula that
// fails validation must never reach the installer.
func (f *Formula) Validate() error {
	if f.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(f.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("longer than %d characters", MaxNameLength)}
	}
	if !nameRegex.MatchString(f.Name) {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("%q is not a valid package name", f.Name)}
	}

	if f.Version == "" {
		return &ValidationError{Field: "version", Message: "cannot be empty"}
	}
	if !versionRegex.MatchString(f.Version) {
		return &ValidationError{Field: "version", Message: fmt.Sprintf("%q is not a valid version", f.Version)}
	}

	if f.Homepage != "" {
		if err := validateURL(f.Homepage); err != nil {
			return &ValidationError{Field: "homepage", Message: err.Error()}
		}
	}

	if len(f.Dependencies) > MaxDependencyCount {
		return &ValidationError{Field: "dependencies", Message: fmt.Sprintf("too many dependencies (%d), maximum is %d", len(f.Dependencies), MaxDependencyCount)}
	}
	for i, dep := range f.Dependencies {
		if !nameRegex.MatchString(dep) {
			return &ValidationError{Field: fmt.Sprintf("dependencies[%d]", i), Message: fmt.Sprintf("%q is not a valid package name", dep)}
		}
	}

	if len(f.Bottles) == 0 {
		return &ValidationError{Field: "bottles", Message: "at least one bottle is required"}
	}
	for arch, bottle := range f.Bottles {
		if _, err := platform.NormalizeArch(arch); err != nil {
			return &ValidationError{Field: fmt.Sprintf("bottles[%s]", arch), Message: "unknown architecture tag"}
		}
		if err := bottle.validate(); err != nil {
			return &ValidationError{Field: fmt.Sprintf("bottles[%s]", arch), Message: err.Error()}
		}
	}

	if f.Install.Bin != "" && strings.ContainsAny(f.Install.Bin, "/\\") {
		return &ValidationError{Field: "install.bin", Message: "must be a bare executable name, not a path"}
	}

	if f.Service != nil {
		if err := f.Service.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (b Bottle) validate() error {
	if err := validateURL(b.URL); err != nil {
		return fmt.Errorf("url: %v", err)
	}
	// Exactly 64 lowercase hex characters. Malformed pins fail here, at
	// parse time, rather than never matching at verify time.
	if !sha256Regex.MatchString(b.SHA256) {
		return fmt.Errorf("sha256: %q is not a 64-character hex digest", b.SHA256)
	}
	if b.SignatureURL != "" {
		if err := validateURL(b.SignatureURL); err != nil {
			return fmt.Errorf("signature_url: %v", err)
		}
	}
	if b.Bundle != nil {
		if err := validateURL(b.Bundle.URL); err != nil {
			return fmt.Errorf("bundle.url: %v", err)
		}
		if b.Bundle.Identity == "" || b.Bundle.Issuer == "" {
			return fmt.Errorf("bundle: identity and issuer are required")
		}
	}
	return nil
}

func (s *ServiceSpec) validate() error {
	if len(s.Run) == 0 {
		return &ValidationError{Field: "service.run", Message: "cannot be empty"}
	}
	if len(s.Run) > MaxServiceArgCount {
		return &ValidationError{Field: "service.run", Message: fmt.Sprintf("too many arguments (%d), maximum is %d", len(s.Run), MaxServiceArgCount)}
	}
	for i, arg := range s.Run {
		if arg == "" {
			return &ValidationError{Field: fmt.Sprintf("service.run[%d]", i), Message: "cannot be empty"}
		}
	}
	if len(s.Environment) > MaxEnvironmentCount {
		return &ValidationError{Field: "service.environment", Message: fmt.Sprintf("too many variables (%d), maximum is %d", len(s.Environment), MaxEnvironmentCount)}
	}
	return nil
}

// validateURL requires an absolute https URL. Bottles and signatures are
// release artifacts; plain http would defeat the checksum pinning.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q is not a valid URL", raw)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%q must use https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
