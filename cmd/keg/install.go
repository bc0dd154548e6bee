package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kegworks/keg/internal/bottle"
	"github.com/kegworks/keg/internal/formula"
	"github.com/kegworks/keg/internal/platform"
	"github.com/kegworks/keg/internal/prefix"
	"github.com/kegworks/keg/internal/tap"
)

// loadFormula resolves a package name against the cloned taps, or parses a
// local file directly when the argument ends in .lua.
func loadFormula(ctx context.Context, p *prefix.Prefix, nameOrPath string) (*formula.Formula, error) {
	path := nameOrPath
	if !strings.HasSuffix(nameOrPath, ".lua") {
		resolved, err := tap.NewManager(p.Taps()).Resolve(nameOrPath)
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	parser := formula.NewParser(platform.NewDetector())
	return parser.ParseFile(ctx, path)
}

// runInstall handles the `keg install` subcommand.
func runInstall(args []string) error {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	force := fs.Bool("force", false, "reinstall even if already installed")
	skipTest := fs.Bool("skip-test", false, "skip the post-install smoke test")
	ignoreDeps := fs.Bool("ignore-deps", false, "skip the runtime dependency check")
	noProgress := fs.Bool("no-progress", false, "disable the download progress bar")
	verbose := fs.Bool("verbose", false, "log debug detail to stderr")
	prefixDir := fs.String("prefix", "", "override the installation prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: keg install [options] <package>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	p := resolvePrefix(*prefixDir)
	if err := p.EnsureDirs(); err != nil {
		return err
	}

	f, err := loadFormula(ctx, p, fs.Arg(0))
	if err != nil {
		return err
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}

	installer, err := bottle.NewInstaller(bottle.Config{
		Prefix:       p,
		PlatformInfo: info,
		Services:     newServiceCleanup(p),
		Logger:       &kvLogger{verbose: *verbose},
	})
	if err != nil {
		return err
	}
	if !*noProgress {
		installer.Downloader().SetProgress(os.Stderr)
	}

	result, err := installer.Install(ctx, f, bottle.InstallOptions{
		Force:      *force,
		SkipTest:   *skipTest,
		IgnoreDeps: *ignoreDeps,
	})
	if err != nil {
		return err
	}

	if result.AlreadyInstalled {
		fmt.Printf("%s %s is already installed\n", result.Name, result.Version)
		return nil
	}

	methods := make([]string, len(result.Verified))
	for i, m := range result.Verified {
		methods[i] = m.String()
	}
	fmt.Printf("Installed %s %s (%s) to %s\n", result.Name, result.Version, result.Arch, result.BinPath)
	fmt.Printf("Verified: %s\n", strings.Join(methods, ", "))

	// Surface the service block so the user knows a unit is available.
	if f.Service != nil {
		fmt.Printf("\n%s declares a background service.\n", f.Name)
		fmt.Printf("Register it with: keg service register %s\n", f.Name)
	}
	return nil
}
