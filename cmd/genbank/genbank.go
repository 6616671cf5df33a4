package genbank

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/entrez"
)

// typeOnly and output hold the flag values
var typeOnly bool
var output string

// Command creates a new command for downloading ITS sequences from GenBank.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genbank [taxon]",
		Short: "Download ITS sequences for a taxon from GenBank",
		Long:  "Search the NCBI nucleotide database for ITS sequences of a taxon and write a FASTA file with headers rewritten to Genus_species_ACCESSION_GEO.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenbank(cmd.Context(), settings, args[0])
		},
	}

	cmd.Flags().BoolVar(&typeOnly, "type-only", false, "Only download sequences derived from type material")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination FASTA file, defaults to <taxon>_ITS_genbank.fasta")

	return cmd
}

// runGenbank downloads ITS sequences for the taxon and writes the FASTA file.
func runGenbank(ctx context.Context, settings *conf.Settings, taxon string) error {
	client := entrez.NewClient(entrez.Config{
		Email:     settings.Entrez.Email,
		APIKey:    settings.Entrez.APIKey,
		BaseURL:   settings.Entrez.BaseURL,
		BatchSize: settings.Entrez.BatchSize,
		Timeout:   time.Duration(settings.Entrez.Timeout) * time.Second,
	})
	defer client.Close()

	opts := entrez.FetchOptions{
		Taxon:    taxon,
		TypeOnly: typeOnly,
		Output:   output,
		Confirm:  confirmLargeDownload,
	}
	return entrez.FetchITS(ctx, client, opts, os.Stdout)
}

// confirmLargeDownload asks on the terminal before starting a large download.
func confirmLargeDownload(count int) bool {
	fmt.Printf("Downloading %d sequences may take a while. Continue? (y/n): ", count)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}
