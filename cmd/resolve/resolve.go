package resolve

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/mycobank"
	"github.com/aldendirks/mycotool/internal/resolve"
)

// Command creates a new command for resolving species names against MycoBank.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [species.txt]",
		Short: "Resolve species names to their current MycoBank names",
		Long:  "Query the MycoBank web service for each species in a list and report the current name, resolving synonyms through the nomenclature database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), settings, args[0])
		},
	}

	// Set up flags specific to the 'resolve' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// runResolve drives the pipeline: read the species list, query MycoBank in
// batches, write the results TSV and print the final summary.
func runResolve(ctx context.Context, settings *conf.Settings, inputPath string) error {
	client, err := mycobank.NewClient(mycobank.Config{
		AccessToken:    settings.MycoBank.AccessToken,
		BaseURL:        settings.MycoBank.BaseURL,
		NameDetailsURL: settings.MycoBank.DetailsURL,
		Timeout:        time.Duration(settings.MycoBank.Timeout) * time.Second,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	defer resolve.CloseLogger()

	var excludedNames []string
	if settings.Resolve.Exclude != "" {
		excludedNames, err = resolve.ReadNameList(settings.Resolve.Exclude)
		if err != nil {
			return err
		}
	}

	obs := resolve.NewConsoleObserver(settings.Resolve.Verbose)

	toCheck, userExcluded, ambiguous, err := resolve.ReadSpeciesList(inputPath, excludedNames, settings.Resolve.ExcludedOutput, obs)
	if err != nil {
		return err
	}

	results, summary, err := resolve.Run(ctx, client, toCheck, settings.Resolve.BatchSize, obs)
	if err != nil {
		return err
	}

	if err := resolve.WriteResults(settings.Resolve.Output, results); err != nil {
		return err
	}
	obs.Notice("\n\nResults written to %s\n", settings.Resolve.Output)

	totalInput := len(toCheck) + userExcluded + ambiguous
	resolve.PrintSummary(os.Stdout, totalInput, userExcluded, ambiguous, len(toCheck), summary)

	return nil
}

// setupFlags configures flags specific to the resolve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Resolve.Exclude, "exclude", viper.GetString("resolve.exclude"), "Path to a txt file of species names to exclude from the query, one per line")
	cmd.Flags().IntVar(&settings.Resolve.BatchSize, "batch-size", viper.GetInt("resolve.batchsize"), "Number of species per API request")
	cmd.Flags().StringVarP(&settings.Resolve.Output, "output", "o", viper.GetString("resolve.output"), "Path to write MycoBank query output TSV file")
	cmd.Flags().StringVar(&settings.Resolve.ExcludedOutput, "excluded-output", viper.GetString("resolve.excludedoutput"), "Path to write TSV file for excluded species")
	cmd.Flags().BoolVarP(&settings.Resolve.Verbose, "verbose", "v", viper.GetBool("resolve.verbose"), "Print detailed output")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
