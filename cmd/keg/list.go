package main

import (
	"fmt"

	"github.com/kegworks/keg/internal/cellar"
	"github.com/kegworks/keg/internal/prefix"
)

// runList handles the `keg list` subcommand.
func runList(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: keg list")
	}

	p := prefix.Resolve()
	kegs, err := cellar.New(p.Cellar()).List()
	if err != nil {
		return err
	}

	if len(kegs) == 0 {
		fmt.Println("No packages installed.")
		return nil
	}

	for _, k := range kegs {
		fmt.Printf("%-24s %-12s %s\n", k.Name, k.Version, k.Arch)
	}
	return nil
}
