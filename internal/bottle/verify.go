package bottle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/kegworks/keg/internal/formula"
)

// Verifier handles cryptographic verification of downloaded bottles.
type Verifier struct {
	keyringDir string
}

// NewVerifier creates a new verifier reading GPG keyrings from keyringDir.
func NewVerifier(keyringDir string) *Verifier {
	return &Verifier{keyringDir: keyringDir}
}

// VerifyBottle verifies a downloaded archive against its formula bottle.
//
// The pinned SHA-256 check always runs and must pass before anything else
// is considered. When the bottle declares a detached signature, GPG
// verification also runs; when it declares a sigstore bundle, cosign
// bundle verification also runs. Every declared method must pass.
//
// sigPath and bundlePath are the local paths of the downloaded signature
// and bundle files; they are ignored when the bottle declares neither.
func (v *Verifier) VerifyBottle(pkg, archivePath string, b formula.Bottle, sigPath, bundlePath string) ([]VerificationMethod, error) {
	if err := v.verifySHA256(archivePath, b.SHA256); err != nil {
		return nil, err
	}
	methods := []VerificationMethod{VerificationSHA256}

	if b.SignatureURL != "" {
		if sigPath == "" {
			return nil, fmt.Errorf("formula declares a signature but none was downloaded")
		}
		if err := v.verifyGPG(pkg, archivePath, sigPath); err != nil {
			return nil, fmt.Errorf("GPG verification failed: %w", err)
		}
		methods = append(methods, VerificationGPG)
	}

	if b.Bundle != nil {
		if bundlePath == "" {
			return nil, fmt.Errorf("formula declares a sigstore bundle but none was downloaded")
		}
		if err := verifyBundle(archivePath, bundlePath, b.Bundle); err != nil {
			return nil, fmt.Errorf("sigstore verification failed: %w", err)
		}
		methods = append(methods, VerificationBundle)
	}

	return methods, nil
}

// verifySHA256 compares the archive's digest against the formula's pin.
// Pins are normalized to lowercase hex at parse time.
func (v *Verifier) verifySHA256(archivePath, pin string) error {
	actual, err := calculateSHA256(archivePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	if actual != pin {
		return fmt.Errorf("%w:\nactual:   %s\nexpected: %s", ErrChecksumMismatch, actual, pin)
	}
	return nil
}

// verifyGPG verifies a detached signature over the archive using the
// package's keyring file.
func (v *Verifier) verifyGPG(pkg, archivePath, sigPath string) error {
	keyring, err := v.loadKeyring(pkg)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Verify signature (try armored first)
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archiveFile, sigFile, nil)
	if err != nil {
		// Try non-armored signature
		archiveFile.Seek(0, io.SeekStart)
		sigFile.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// loadKeyring loads the GPG keyring for a package from the keyring
// directory. Keyrings are named {package}.asc and are provided by the tap
// that carries the formula.
func (v *Verifier) loadKeyring(pkg string) (openpgp.EntityList, error) {
	keyringPath := filepath.Join(v.keyringDir, pkg+".asc")

	keyringFile, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		keyringFile.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file.
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
