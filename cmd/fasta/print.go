package fasta

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/fasta"
)

// PrintCommand creates the print subcommand
func PrintCommand(settings *conf.Settings) *cobra.Command {
	printCmd := &cobra.Command{
		Use:   "print [file.fasta] [positions...]",
		Short: "Print sequences from a FASTA file by position",
		Long:  "Print the sequences at the given 1-based positions, where a position is a number or a range like 5-7.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fasta.PrintFile(os.Stdout, args[0], args[1:])
		},
	}

	return printCmd
}
