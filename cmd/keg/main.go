package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0-dev"

func main() {
	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("keg %s\n", Version)
			fmt.Println("Formula-driven prebuilt binary installer")
			return
		case "install":
			if err := runInstall(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "uninstall":
			if err := runUninstall(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "list":
			if err := runList(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "info":
			if err := runInfo(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "test":
			if err := runTest(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "service":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "Error: service subcommand requires an action")
				fmt.Fprintln(os.Stderr, "Usage: keg service register <package>")
				fmt.Fprintln(os.Stderr, "       keg service unregister <package>")
				fmt.Fprintln(os.Stderr, "       keg service list")
				os.Exit(1)
			}
			if err := runService(os.Args[2], os.Args[3:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "tap":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "Error: tap subcommand requires an action")
				fmt.Fprintln(os.Stderr, "Usage: keg tap add <name> <url>")
				fmt.Fprintln(os.Stderr, "       keg tap update [name]")
				fmt.Fprintln(os.Stderr, "       keg tap remove <name>")
				fmt.Fprintln(os.Stderr, "       keg tap list")
				os.Exit(1)
			}
			if err := runTap(os.Args[2], os.Args[3:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("keg - formula-driven prebuilt binary installer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  keg --version                    Show version information")
	fmt.Println("  keg install [options] <package>  Install a package from a formula")
	fmt.Println("  keg uninstall <package>          Remove an installed package")
	fmt.Println("  keg list                         List installed packages")
	fmt.Println("  keg info <package>               Show formula details")
	fmt.Println("  keg test <package>               Re-run the install smoke test")
	fmt.Println("  keg service register <package>   Render a service unit")
	fmt.Println("  keg service unregister <package> Remove a service unit")
	fmt.Println("  keg service list                 List registered services")
	fmt.Println("  keg tap add <name> <url>         Clone a formula collection")
	fmt.Println("  keg tap update [name]            Pull latest formulae")
	fmt.Println("  keg tap remove <name>            Delete a tap")
	fmt.Println("  keg tap list                     List cloned taps")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %-16s Override the installation prefix\n", "KEG_PREFIX")
	fmt.Printf("  %-16s Override the download cache directory\n", "KEG_CACHE_DIR")
}
