package bottle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kegworks/keg/internal/formula"
)

func writeTestArchive(t *testing.T, content []byte) (path, digest string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "bottle.gz")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	sum := sha256.Sum256(content)
	return path, hex.EncodeToString(sum[:])
}

func TestVerifyBottleSHA256(t *testing.T) {
	archivePath, digest := writeTestArchive(t, []byte("bottle bytes"))

	v := NewVerifier(t.TempDir())
	methods, err := v.VerifyBottle("music-discord-rpc", archivePath, formula.Bottle{SHA256: digest}, "", "")
	if err != nil {
		t.Fatalf("VerifyBottle() error = %v", err)
	}

	if len(methods) != 1 || methods[0] != VerificationSHA256 {
		t.Errorf("methods = %v, want [SHA256]", methods)
	}
}

func TestVerifyBottleChecksumMismatch(t *testing.T) {
	archivePath, _ := writeTestArchive(t, []byte("bottle bytes"))

	wrongPin := "0000000000000000000000000000000000000000000000000000000000000000"
	v := NewVerifier(t.TempDir())
	_, err := v.VerifyBottle("music-discord-rpc", archivePath, formula.Bottle{SHA256: wrongPin}, "", "")
	if err == nil {
		t.Fatal("VerifyBottle() expected error for mismatched digest")
	}
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("error = %v, want ErrChecksumMismatch", err)
	}
}

func TestVerifyBottleSignatureDeclaredButMissing(t *testing.T) {
	archivePath, digest := writeTestArchive(t, []byte("bottle bytes"))

	b := formula.Bottle{
		SHA256:       digest,
		SignatureURL: "https://example.com/bottle.gz.asc",
	}

	v := NewVerifier(t.TempDir())
	if _, err := v.VerifyBottle("music-discord-rpc", archivePath, b, "", ""); err == nil {
		t.Fatal("VerifyBottle() expected error when declared signature was not downloaded")
	}
}

func TestVerifyGPGMissingKeyring(t *testing.T) {
	archivePath, digest := writeTestArchive(t, []byte("bottle bytes"))

	sigPath := filepath.Join(t.TempDir(), "bottle.gz.asc")
	if err := os.WriteFile(sigPath, []byte("not a real signature"), 0644); err != nil {
		t.Fatalf("write signature: %v", err)
	}

	b := formula.Bottle{
		SHA256:       digest,
		SignatureURL: "https://example.com/bottle.gz.asc",
	}

	// Keyring directory is empty; GPG verification must fail rather than
	// silently pass.
	v := NewVerifier(t.TempDir())
	if _, err := v.VerifyBottle("music-discord-rpc", archivePath, b, sigPath, ""); err == nil {
		t.Fatal("VerifyBottle() expected error with no keyring present")
	}
}

func TestCalculateSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := calculateSHA256(path)
	if err != nil {
		t.Fatalf("calculateSHA256() error = %v", err)
	}

	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("calculateSHA256() = %q, want %q", got, want)
	}
}

func TestVerificationMethodString(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationSHA256, "SHA256"},
		{VerificationGPG, "GPG"},
		{VerificationBundle, "Sigstore"},
	}

	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
