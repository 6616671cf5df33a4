package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aldendirks/mycotool/cmd/fasta"
	"github.com/aldendirks/mycotool/cmd/genbank"
	"github.com/aldendirks/mycotool/cmd/inat"
	"github.com/aldendirks/mycotool/cmd/resolve"
	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mycotool",
		Short: "MycoTool CLI",
		Long:  "Command line tools for fungal taxonomy and sequence retrieval.",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		resolve.Command(settings),
		genbank.Command(settings),
		inat.Command(settings),
		fasta.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Raise log verbosity before any subcommand runs
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
