package inat

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/inaturalist"
)

// output and maxPages hold the flag values
var output string
var maxPages int

// Command creates a new command for downloading ITS sequences from iNaturalist.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inat [taxon-id]",
		Short: "Download ITS sequences for a taxon from iNaturalist",
		Long:  "Download every observation of a taxon that carries the DNA Barcode ITS observation field and write a FASTA file plus a metadata TSV.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInat(cmd.Context(), settings, args[0])
		},
	}

	// Set up flags specific to the 'inat' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// runInat downloads barcoded observations and writes the FASTA and TSV files.
func runInat(ctx context.Context, settings *conf.Settings, taxonID string) error {
	perPage := settings.INaturalist.PerPage
	if perPage > inaturalist.MaxPerPage {
		fmt.Printf("[WARN] per_page > %d; using %d (API limit).\n", inaturalist.MaxPerPage, inaturalist.MaxPerPage)
		perPage = inaturalist.MaxPerPage
	}

	client := inaturalist.NewClient(inaturalist.Config{
		BaseURL: settings.INaturalist.BaseURL,
		PerPage: perPage,
		Delay:   time.Duration(settings.INaturalist.Delay) * time.Millisecond,
		Timeout: time.Duration(settings.INaturalist.Timeout) * time.Second,
	})
	defer client.Close()

	opts := inaturalist.FetchOptions{
		TaxonID:  taxonID,
		MaxPages: maxPages,
		Output:   output,
	}
	return inaturalist.FetchITS(ctx, client, opts, os.Stdout)
}

// setupFlags configures flags specific to the inat command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&output, "output", "o", "inat.fasta", "Path to write FASTA output, the metadata TSV lands next to it")
	cmd.Flags().IntVar(&settings.INaturalist.PerPage, "per-page", viper.GetInt("inaturalist.perpage"), "Number of observations to request per page (max 200)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Maximum number of pages to fetch, zero fetches everything")
	cmd.Flags().IntVar(&settings.INaturalist.Delay, "delay", viper.GetInt("inaturalist.delay"), "Delay in milliseconds between page requests")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
