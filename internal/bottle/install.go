package bottle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/kegworks/keg/internal/cellar"
	"github.com/kegworks/keg/internal/formula"
	"github.com/kegworks/keg/internal/platform"
	"github.com/kegworks/keg/internal/prefix"
	"github.com/kegworks/keg/internal/transaction"
)

// ServiceUnregisterer removes a registered service unit during uninstall.
// Implemented by the service registry; an interface here keeps the install
// pipeline decoupled from unit rendering.
type ServiceUnregisterer interface {
	Unregister(name string) error
}

// Installer orchestrates bottle selection, download, verification, and
// installation for one prefix.
type Installer struct {
	prefix       *prefix.Prefix
	platformInfo *platform.Info
	downloader   *Downloader
	verifier     *Verifier
	extractor    *Extractor
	cellar       *cellar.Cellar
	services     ServiceUnregisterer
	logger       Logger
}

// Config holds configuration for the installer.
type Config struct {
	// Prefix is the keg prefix to install into.
	Prefix *prefix.Prefix
	// PlatformInfo contains the detected host OS and architecture.
	PlatformInfo *platform.Info
	// Services unregisters service units on uninstall. Optional.
	Services ServiceUnregisterer
	// Logger receives install progress. Optional; defaults to no-op.
	Logger Logger
}

// NewInstaller creates a new installer.
func NewInstaller(config Config) (*Installer, error) {
	if config.Prefix == nil {
		return nil, fmt.Errorf("Prefix is required")
	}
	if config.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	return &Installer{
		prefix:       config.Prefix,
		platformInfo: config.PlatformInfo,
		downloader:   NewDownloader(config.Prefix.CacheDir()),
		verifier:     NewVerifier(config.Prefix.Keyrings()),
		extractor:    NewExtractor(),
		cellar:       cellar.New(config.Prefix.Cellar()),
		services:     config.Services,
		logger:       logger,
	}, nil
}

// Downloader exposes the installer's downloader so callers can attach a
// progress writer.
func (i *Installer) Downloader() *Downloader {
	return i.downloader
}

// Cellar exposes the installer's keg records.
func (i *Installer) Cellar() *cellar.Cellar {
	return i.cellar
}

// IsInstalled checks whether the package's executable is present in the
// bin directory and executable.
func (i *Installer) IsInstalled(f *formula.Formula) (bool, error) {
	info, err := os.Stat(i.prefix.BinPath(f.BinName()))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat executable: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}
	if info.Mode().Perm()&0111 == 0 {
		return false, nil
	}
	return true, nil
}

// Install runs the full pipeline for one formula: select the bottle for
// the host architecture, download it, verify it, extract the executable
// into the bin directory, record the keg, and run the smoke test.
//
// The steps run strictly one after another. Every failure is terminal for
// this attempt and is journaled; a failed install is never recorded as a
// keg.
func (i *Installer) Install(ctx context.Context, f *formula.Formula, opts InstallOptions) (*InstallResult, error) {
	startTime := time.Now()

	lock, err := transaction.AcquireLock(i.prefix.Locks(), f.Name)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	b, err := f.SelectBottle(i.platformInfo.Arch)
	if err != nil {
		return nil, err
	}

	installed, err := i.IsInstalled(f)
	if err != nil {
		return nil, fmt.Errorf("check if installed: %w", err)
	}
	if installed && !opts.Force {
		if existing, err := i.cellar.Load(f.Name); err == nil && existing.Version == f.Version {
			i.logger.Info("already installed", "package", f.Name, "version", f.Version)
			return &InstallResult{
				Name:             f.Name,
				Version:          f.Version,
				Arch:             i.platformInfo.Arch,
				BinPath:          i.prefix.BinPath(f.BinName()),
				AlreadyInstalled: true,
				Duration:         time.Since(startTime),
			}, nil
		}
	}

	if !opts.IgnoreDeps {
		if err := i.checkDependencies(f); err != nil {
			return nil, err
		}
	}

	txn := transaction.NewInstall(f.Name, f.Version, i.platformInfo.Arch)
	if err := txn.Save(i.prefix.Journal()); err != nil {
		return nil, fmt.Errorf("journal install: %w", err)
	}
	txn.Begin()
	if err := txn.Save(i.prefix.Journal()); err != nil {
		return nil, fmt.Errorf("journal install: %w", err)
	}

	result, err := i.install(ctx, f, b)
	if err != nil {
		txn.Fail(err)
		if saveErr := txn.Save(i.prefix.Journal()); saveErr != nil {
			i.logger.Error("journal failure", "package", f.Name, "error", saveErr)
		}
		return nil, err
	}

	if !opts.SkipTest {
		i.logger.Debug("running smoke test", "package", f.Name)
		if err := cellar.SmokeTest(ctx, result.BinPath, f); err != nil {
			txn.Fail(err)
			if saveErr := txn.Save(i.prefix.Journal()); saveErr != nil {
				i.logger.Error("journal failure", "package", f.Name, "error", saveErr)
			}
			return nil, fmt.Errorf("smoke test: %w", err)
		}
	}

	txn.Complete()
	if err := txn.Save(i.prefix.Journal()); err != nil {
		return nil, fmt.Errorf("journal install: %w", err)
	}

	result.Duration = time.Since(startTime)
	i.logger.Info("installed", "package", f.Name, "version", f.Version, "duration", result.Duration)
	return result, nil
}

// install performs the download/verify/extract/record steps.
func (i *Installer) install(ctx context.Context, f *formula.Formula, b formula.Bottle) (*InstallResult, error) {
	i.logger.Debug("downloading bottle", "package", f.Name, "url", b.URL)
	archivePath, err := i.downloader.DownloadCached(ctx, f.Name, f.Version, b.URL)
	if err != nil {
		return nil, err
	}

	var sigPath, bundlePath string
	if b.SignatureURL != "" {
		sigPath, err = i.downloader.DownloadCached(ctx, f.Name, f.Version, b.SignatureURL)
		if err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
	}
	if b.Bundle != nil {
		bundlePath, err = i.downloader.DownloadCached(ctx, f.Name, f.Version, b.Bundle.URL)
		if err != nil {
			return nil, fmt.Errorf("download bundle: %w", err)
		}
	}

	i.logger.Debug("verifying bottle", "package", f.Name)
	methods, err := i.verifier.VerifyBottle(f.Name, archivePath, b, sigPath, bundlePath)
	if err != nil {
		return nil, err
	}

	destPath := i.prefix.BinPath(f.BinName())
	i.logger.Debug("extracting executable", "package", f.Name, "dest", destPath)
	if err := i.extractor.ExtractExecutable(archivePath, destPath, f.BinName()); err != nil {
		return nil, err
	}

	keg := &cellar.Keg{
		Name:        f.Name,
		Version:     f.Version,
		Arch:        i.platformInfo.Arch,
		BinPath:     destPath,
		BottleURL:   b.URL,
		SHA256:      b.SHA256,
		InstalledAt: time.Now().UTC(),
	}
	if err := i.cellar.Save(keg); err != nil {
		return nil, fmt.Errorf("record keg: %w", err)
	}

	return &InstallResult{
		Name:     f.Name,
		Version:  f.Version,
		Arch:     i.platformInfo.Arch,
		BinPath:  destPath,
		Verified: methods,
	}, nil
}

// checkDependencies requires every runtime dependency to be installed in
// the cellar or findable on PATH.
func (i *Installer) checkDependencies(f *formula.Formula) error {
	for _, dep := range f.Dependencies {
		if _, err := i.cellar.Load(dep); err == nil {
			continue
		}
		if _, err := exec.LookPath(dep); err == nil {
			continue
		}
		return fmt.Errorf("%w: %s (install it first or pass --ignore-deps)", ErrMissingDependency, dep)
	}
	return nil
}

// Uninstall removes the package's executable, its keg record, and any
// registered service unit.
func (i *Installer) Uninstall(name string) error {
	keg, err := i.cellar.Load(name)
	if err != nil {
		return err
	}

	if i.services != nil {
		if err := i.services.Unregister(name); err != nil {
			i.logger.Warn("unregister service", "package", name, "error", err)
		}
	}

	if err := os.Remove(keg.BinPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove executable: %v", ErrInstallIO, err)
	}

	if err := i.cellar.Remove(name); err != nil && !errors.Is(err, cellar.ErrNotInstalled) {
		return err
	}

	i.logger.Info("uninstalled", "package", name, "version", keg.Version)
	return nil
}
