package bottle

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Extractor pulls the single named executable out of a downloaded archive.
// Bottles are either a gzip-compressed executable (.gz) or a gzip tarball
// (.tar.gz / .tgz) containing the executable.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractExecutable extracts binName from archivePath and writes it to
// destPath with mode 0755. The write goes through a temp file in the
// destination directory followed by a rename, so a failed extraction
// leaves the destination unmodified.
func (e *Extractor) ExtractExecutable(archivePath, destPath, binName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", ErrInstallIO, err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	var content io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		content, err = findInTar(gzipReader, binName)
		if err != nil {
			return err
		}
	case strings.HasSuffix(archivePath, ".gz"):
		// Bare gzip: the decompressed stream is the executable itself.
		content = gzipReader
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}

	return writeExecutable(content, destPath)
}

// findInTar scans a tar stream for the named regular file.
func findInTar(r io.Reader, binName string) (io.Reader, error) {
	tarReader := tar.NewReader(r)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("executable %s not found in archive", binName)
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		// Reject entries that try to escape the archive root; the
		// executable is matched by base name only.
		if strings.Contains(header.Name, "..") {
			return nil, fmt.Errorf("illegal file path in archive: %s", header.Name)
		}

		if header.Typeflag == tar.TypeReg && filepath.Base(header.Name) == binName {
			return tarReader, nil
		}
	}
}

// writeExecutable writes content to destPath with executable permissions,
// atomically via a temp file in the same directory.
func writeExecutable(content io.Reader, destPath string) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("%w: create dest dir: %v", ErrInstallIO, err)
	}

	tmpFile, err := os.CreateTemp(destDir, filepath.Base(destPath)+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrInstallIO, err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, content); err != nil {
		return fmt.Errorf("%w: write executable: %v", ErrInstallIO, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrInstallIO, err)
	}

	if err := os.Chmod(tmpPath, 0755); err != nil {
		return fmt.Errorf("%w: set executable: %v", ErrInstallIO, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("%w: rename executable: %v", ErrInstallIO, err)
	}

	cleanupNeeded = false
	return nil
}
