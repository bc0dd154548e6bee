package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kegworks/keg/internal/prefix"
	"github.com/kegworks/keg/internal/tap"
)

// runTap handles the `keg tap` subcommand.
func runTap(action string, args []string) error {
	p := prefix.Resolve()
	manager := tap.NewManager(p.Taps())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch action {
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: keg tap add <name> <url>")
		}
		t, err := manager.Add(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Tapped %s\n", t.Name)
		return nil

	case "update":
		switch len(args) {
		case 0:
			if err := manager.UpdateAll(ctx); err != nil {
				return err
			}
			fmt.Println("All taps updated.")
		case 1:
			if err := manager.Update(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", args[0])
		default:
			return fmt.Errorf("usage: keg tap update [name]")
		}
		return nil

	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: keg tap remove <name>")
		}
		if err := manager.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil

	case "list":
		if len(args) != 0 {
			return fmt.Errorf("usage: keg tap list")
		}
		taps, err := manager.List()
		if err != nil {
			return err
		}
		if len(taps) == 0 {
			fmt.Println("No taps added.")
			return nil
		}
		for _, t := range taps {
			fmt.Println(t.Name)
		}
		return nil

	default:
		return fmt.Errorf("unknown tap action: %s", action)
	}
}
