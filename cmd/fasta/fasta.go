package fasta

import (
	"github.com/spf13/cobra"

	"github.com/aldendirks/mycotool/internal/conf"
)

// Command creates the fasta parent command
func Command(settings *conf.Settings) *cobra.Command {
	fastaCmd := &cobra.Command{
		Use:   "fasta",
		Short: "Inspect and filter FASTA sequence files",
	}

	// Add subcommands here
	fastaCmd.AddCommand(PrintCommand(settings))
	fastaCmd.AddCommand(FilterCommand(settings))

	return fastaCmd
}
