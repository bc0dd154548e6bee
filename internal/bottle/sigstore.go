package bottle

import (
	"fmt"
	"os"

	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/verify"

	"github.com/kegworks/keg/internal/formula"
)

// verifyBundle verifies a cosign bundle over the archive against the
// sigstore public good instance's trusted root. The formula pins the
// certificate identity (SAN regular expression) and OIDC issuer the
// release must have been signed under.
func verifyBundle(archivePath, bundlePath string, spec *formula.SigstoreBundle) error {
	b, err := bundle.LoadJSONFromPath(bundlePath)
	if err != nil {
		return fmt.Errorf("load bundle: %w", err)
	}

	trustedMaterial, err := root.FetchTrustedRoot()
	if err != nil {
		return fmt.Errorf("fetch trusted root: %w", err)
	}

	verifier, err := verify.NewVerifier(trustedMaterial,
		verify.WithSignedCertificateTimestamps(1),
		verify.WithTransparencyLog(1),
		verify.WithObserverTimestamps(1),
	)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	certID, err := verify.NewShortCertificateIdentity(spec.Issuer, "", "", spec.Identity)
	if err != nil {
		return fmt.Errorf("build certificate identity: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	policy := verify.NewPolicy(
		verify.WithArtifact(archiveFile),
		verify.WithCertificateIdentity(certID),
	)

	if _, err := verifier.Verify(b, policy); err != nil {
		return fmt.Errorf("verify bundle: %w", err)
	}
	return nil
}
