package main

import (
	"fmt"
	"os"

	"github.com/aldendirks/mycotool/cmd"
	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/logging"
)

// version and buildDate are injected at build time via ldflags
var version = "unknown"
var buildDate = "unknown"

func main() {
	// Initialize structured logging before anything can log
	logging.Init()

	// Load the configuration
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Set runtime values
	settings.Version = version
	settings.BuildDate = buildDate

	rootCmd := cmd.RootCommand(settings)

	// If no arguments are provided, show help and exit
	if len(os.Args) == 1 {
		if err := rootCmd.Help(); err != nil {
			fmt.Fprintf(os.Stderr, "Error displaying help: %v\n", err)
		}
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
