package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/kegworks/keg/internal/bottle"
	"github.com/kegworks/keg/internal/platform"
)

// runUninstall handles the `keg uninstall` subcommand.
func runUninstall(args []string) error {
	fs := flag.NewFlagSet("uninstall", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "log debug detail to stderr")
	prefixDir := fs.String("prefix", "", "override the installation prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: keg uninstall <package>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p := resolvePrefix(*prefixDir)

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

	if err := installer.Uninstall(fs.Arg(0)); err != nil {
		return err
	}

	fmt.Printf("Uninstalled %s\n", fs.Arg(0))
	return nil
}
