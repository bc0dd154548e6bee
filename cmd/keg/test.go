package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/kegworks/keg/internal/cellar"
	"github.com/kegworks/keg/internal/prefix"
)

// runTest handles the `keg test` subcommand: re-run the smoke test for an
// already installed package.
func runTest(args []string) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: keg test <package>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p := prefix.Resolve()

	keg, err := cellar.New(p.Cellar()).Load(fs.Arg(0))
	if err != nil {
		return err
	}

	f, err := loadFormula(ctx, p, fs.Arg(0))
	if err != nil {
		return err
	}

	if err := cellar.SmokeTest(ctx, keg.BinPath, f); err != nil {
		return err
	}

	fmt.Printf("%s %s: OK\n", keg.Name, keg.Version)
	return nil
}
