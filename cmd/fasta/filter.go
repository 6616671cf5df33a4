package fasta

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/fasta"
)

// FilterCommand creates the filter subcommand
func FilterCommand(settings *conf.Settings) *cobra.Command {
	filterCmd := &cobra.Command{
		Use:   "filter [file.fasta] [min-length]",
		Short: "Drop sequences shorter than a minimum length",
		Long:  "Write a copy of the FASTA file without sequences shorter than min-length, named <file>_length-filtered.fasta.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minLength, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid minimum length %q: %v", args[1], err)
			}
			return fasta.FilterFile(os.Stdout, args[0], minLength)
		},
	}

	return filterCmd
}
