package bottle

import (
	"errors"
	"time"
)

// Sentinel errors for the install pipeline. All of them are terminal for
// the install attempt; keg never retries past the downloader's own
// backoff.
var (
	// ErrDownloadFailed indicates the bottle could not be fetched.
	ErrDownloadFailed = errors.New("download failed")
	// ErrChecksumMismatch indicates the downloaded archive does not match
	// the formula's pinned digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrInstallIO indicates a filesystem failure while placing the
	// executable.
	ErrInstallIO = errors.New("install I/O failure")
	// ErrMissingDependency indicates a runtime dependency is neither
	// installed in the cellar nor present on PATH.
	ErrMissingDependency = errors.New("missing runtime dependency")
)

// VerificationMethod indicates how a bottle was verified.
type VerificationMethod int

const (
	// VerificationNone indicates no verification (should never happen in production)
	VerificationNone VerificationMethod = iota
	// VerificationSHA256 indicates the pinned digest matched
	VerificationSHA256
	// VerificationGPG indicates GPG signature verification was used
	VerificationGPG
	// VerificationBundle indicates sigstore cosign bundle verification was used
	VerificationBundle
)

// String returns the string representation of the verification method.
func (v VerificationMethod) String() string {
	switch v {
	case VerificationSHA256:
		return "SHA256"
	case VerificationGPG:
		return "GPG"
	case VerificationBundle:
		return "Sigstore"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// InstallOptions configures one install.
type InstallOptions struct {
	// Force reinstalls even if the package is already present.
	Force bool
	// SkipTest skips the post-install smoke test.
	SkipTest bool
	// IgnoreDeps skips the runtime dependency check.
	IgnoreDeps bool
}

// InstallResult contains information about a completed install.
type InstallResult struct {
	Name             string
	Version          string
	Arch             string
	BinPath          string
	Verified         []VerificationMethod
	AlreadyInstalled bool
	Duration         time.Duration
}
