package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kegworks/keg/internal/cellar"
	"github.com/kegworks/keg/internal/prefix"
)

// runInfo handles the `keg info` subcommand.
func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: keg info <package>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := prefix.Resolve()

	f, err := loadFormula(ctx, p, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", f.Name, f.Version)
	if f.Description != "" {
		fmt.Println(f.Description)
	}
	if f.Homepage != "" {
		fmt.Println(f.Homepage)
	}
	if f.License != "" {
		fmt.Printf("License: %s\n", f.License)
	}
	if len(f.Dependencies) > 0 {
		fmt.Printf("Dependencies: %s\n", strings.Join(f.Dependencies, ", "))
	}

	arches := make([]string, 0, len(f.Bottles))
	for arch := range f.Bottles {
		arches = append(arches, arch)
	}
	sort.Strings(arches)
	fmt.Printf("Bottles: %s\n", strings.Join(arches, ", "))

	if f.Service != nil {
		fmt.Printf("Service: %s (keep_alive=%t)\n", strings.Join(f.Service.Run, " "), f.Service.KeepAlive)
	}

	keg, err := cellar.New(p.Cellar()).Load(f.Name)
	switch {
	case err == nil:
		fmt.Printf("Installed: %s (%s) at %s\n", keg.Version, keg.Arch, keg.BinPath)
	case errors.Is(err, cellar.ErrNotInstalled):
		fmt.Println("Not installed.")
	default:
		return err
	}
	return nil
}
