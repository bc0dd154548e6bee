// Package bottle provides functionality for downloading, verifying, and
// installing the prebuilt release archives ("bottles") that formulas
// describe.
//
// # Security Model
//
// Bottle handling is the critical security component of keg. Every bottle is:
//   - Downloaded only from the https URL pinned in its formula
//   - Verified against the SHA-256 digest pinned in its formula
//   - Additionally verified with a GPG detached signature or a sigstore
//     cosign bundle when the formula declares one
//   - Never installed without successful verification
//
// # Verification Strategy
//
//  1. Pinned SHA-256 (always)
//     - The digest of the downloaded archive must equal the formula's pin
//     - A mismatch is terminal; nothing is written into the bin directory
//
//  2. GPG Detached Signature (when the formula declares signature =)
//     - Verified against a keyring file named after the package
//
//  3. Sigstore Cosign Bundle (when the formula declares bundle = { ... })
//     - Verified against the public good instance's trusted root and the
//       certificate identity the formula pins
//
// # Usage
//
//	installer, err := bottle.NewInstaller(bottle.Config{
//	    Prefix:       pfx,
//	    PlatformInfo: info,
//	})
//	if err != nil {
//	    return err
//	}
//
//	result, err := installer.Install(ctx, f, bottle.InstallOptions{})
//
// # Architecture
//
// The package is organized into several components:
//   - Installer: High-level orchestration of select, download, verify, install
//   - Downloader: HTTP download with retry logic and caching
//   - Verifier: SHA-256, GPG, and sigstore bundle verification
//   - Extractor: Pulling the single executable out of a gzip archive
package bottle
