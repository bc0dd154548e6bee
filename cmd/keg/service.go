package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/kegworks/keg/internal/prefix"
	"github.com/kegworks/keg/internal/service"
)

// runService handles the `keg service` subcommand.
func runService(action string, args []string) error {
	p := prefix.Resolve()
	registry := service.NewRegistry(p, runtime.GOOS)

	switch action {
	case "register":
		if len(args) != 1 {
			return fmt.Errorf("usage: keg service register <package>")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		f, err := loadFormula(ctx, p, args[0])
		if err != nil {
			return err
		}
		if f.Service == nil {
			return fmt.Errorf("formula %s declares no service", f.Name)
		}

		unit, err := registry.Register(f)
		if err != nil {
			return err
		}

		fmt.Printf("Registered %s\n", unit.Label)
		fmt.Printf("Unit file: %s\n", unit.UnitPath)
		printLoadHint(unit)
		return nil

	case "unregister":
		if len(args) != 1 {
			return fmt.Errorf("usage: keg service unregister <package>")
		}
		if err := registry.Unregister(args[0]); err != nil {
			return err
		}
		fmt.Printf("Unregistered keg.%s\n", args[0])
		return nil

	case "list":
		if len(args) != 0 {
			return fmt.Errorf("usage: keg service list")
		}
		units, err := registry.List()
		if err != nil {
			return err
		}
		if len(units) == 0 {
			fmt.Println("No services registered.")
			return nil
		}
		for _, u := range units {
			keepAlive := ""
			if u.KeepAlive {
				keepAlive = " keep-alive"
			}
			fmt.Printf("%-32s%s\n  %s\n", u.Label, keepAlive, u.UnitPath)
		}
		return nil

	default:
		return fmt.Errorf("unknown service action: %s", action)
	}
}

// printLoadHint tells the user how to hand the rendered unit to the
// platform's service manager.
func printLoadHint(u *service.Unit) {
	switch runtime.GOOS {
	case "darwin":
		fmt.Printf("Load it with: launchctl load -w %s\n", u.UnitPath)
	case "linux":
		fmt.Printf("Load it with: systemctl --user link %s && systemctl --user start %s\n", u.UnitPath, u.Label)
	}
}
