package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/seatgenie/library/internal/cli"
	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every CLI subcommand.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	config.LoadEnvFile()

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "migrate":
		cmd = cli.NewMigrateCommand(config.NewConfig())
	case "seed":
		cmd = cli.NewSeedCommand(config.NewConfig())
	case "overdue-report":
		cmd = cli.NewOverdueReportCommand(config.NewConfig())
	case "create-staff":
		cmd = cli.NewCreateStaffCommand(config.NewConfig())
	case "version":
		fmt.Printf("library %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve           Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  migrate         Create or update the database schema\n")
	fmt.Fprintf(os.Stderr, "  seed            Load a demo catalogue into an empty database\n")
	fmt.Fprintf(os.Stderr, "  overdue-report  Print overdue loans as JSON\n")
	fmt.Fprintf(os.Stderr, "  create-staff    Create a staff account for AUTH_MODE=basic\n")
	fmt.Fprintf(os.Stderr, "  version         Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
