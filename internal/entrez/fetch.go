package entrez

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
	"github.com/aldendirks/mycotool/internal/fasta"
)

// largeDownloadThreshold is the hit count above which the user is asked to
// confirm before downloading.
const largeDownloadThreshold = 1000

// fastaLineWidth is the sequence wrap column for output files.
const fastaLineWidth = 60

// FetchOptions controls a GenBank ITS download.
type FetchOptions struct {
	Taxon    string
	TypeOnly bool   // restrict to sequences from type material
	Output   string // output FASTA path, empty derives one from the taxon

	// Confirm is asked before downloading large result sets. A nil func
	// accepts everything.
	Confirm func(count int) bool
}

// BuildQuery constructs the Entrez query for ITS sequences of a taxon.
func BuildQuery(taxon string, typeOnly bool) string {
	query := fmt.Sprintf("%s[Organism] AND internal[All Fields]", taxon)
	if typeOnly {
		query += " AND type_material[Properties]"
	}
	return query
}

// FetchITS downloads all ITS sequences for a taxon, annotates each record
// with its geographic origin and writes a FASTA file with headers rewritten
// to Genus_species_ACCESSION_GEO. Progress messages go to out.
func FetchITS(ctx context.Context, client *Client, opts FetchOptions, out io.Writer) error {
	query := BuildQuery(opts.Taxon, opts.TypeOnly)

	fmt.Fprintf(out, "\nSearching GenBank for '%s'...\n\n", opts.Taxon)
	logger.Info("Starting GenBank ITS download",
		"taxon", opts.Taxon,
		"type_only", opts.TypeOnly,
		"query", query)

	probe, err := client.ESearch(ctx, query, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d sequences.\n", probe.Count)

	if probe.Count > largeDownloadThreshold && opts.Confirm != nil && !opts.Confirm(probe.Count) {
		logger.Info("Download declined by user", "taxon", opts.Taxon, "count", probe.Count)
		return errors.Newf("download of %d sequences declined", probe.Count).
			Category(errors.CategoryValidation).
			Context("taxon", opts.Taxon).
			Component("entrez").
			Build()
	}
	if probe.Count == 0 {
		return errors.Newf("no sequences found for this query").
			Category(errors.CategoryNotFound).
			Context("taxon", opts.Taxon).
			Context("query", query).
			Component("entrez").
			Build()
	}

	result, err := client.ESearch(ctx, query, probe.Count)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Fetching %d sequences...\n", len(result.IDs))
	fastaText, err := client.EFetch(ctx, result.IDs, "fasta", "text")
	if err != nil {
		return err
	}

	records, err := fasta.Read(strings.NewReader(fastaText))
	if err != nil {
		return err
	}

	accessions := make([]string, len(records))
	for i := range records {
		accessions[i] = Accession(firstField(records[i].Header))
	}

	geo := client.GeoMetadata(ctx, accessions)

	for i := range records {
		location, ok := geo[accessions[i]]
		if !ok {
			location = "NA"
		}
		records[i].Header = reformatHeader(records[i].Header, location, accessions[i])
	}

	outputPath := opts.Output
	if outputPath == "" {
		outputPath = strings.ReplaceAll(opts.Taxon, " ", "_") + "_ITS_genbank.fasta"
	}
	if err := writeFASTA(outputPath, records); err != nil {
		return err
	}

	displayPath := outputPath
	if abs, err := filepath.Abs(outputPath); err == nil {
		displayPath = abs
	}
	fmt.Fprintf(out, "Sequences written to %s\n", displayPath)

	logger.Info("GenBank ITS download complete",
		"taxon", opts.Taxon,
		"sequences", len(records),
		"output", outputPath)

	return nil
}

// firstField returns the id portion of a FASTA description line.
func firstField(header string) string {
	if fields := strings.Fields(header); len(fields) > 0 {
		return fields[0]
	}
	return header
}

// reformatHeader rebuilds a GenBank FASTA header as Genus_species_ACCESSION_GEO.
// GenBank description lines read "AB123456.1 Genus species <rest>", so the
// second and third fields carry the binomial.
func reformatHeader(description, geo, acc string) string {
	parts := strings.Fields(description)

	var species string
	switch {
	case len(parts) >= 3:
		species = parts[1] + "_" + parts[2]
	case len(parts) == 2:
		species = parts[1]
	default:
		species = "Unknown_sp"
	}

	return fmt.Sprintf("%s_%s_%s", species, acc, geo)
}

// writeFASTA writes records wrapped at fastaLineWidth, creating parent
// directories as needed.
func writeFASTA(path string, records []fasta.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Category(errors.CategoryFileIO).
				Context("operation", "create_output_dir").
				FileContext(path, 0).
				Component("entrez").
				Build()
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_fasta").
			FileContext(path, 0).
			Component("entrez").
			Build()
	}
	if err := fasta.Write(f, records, fastaLineWidth); err != nil {
		f.Close()
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_fasta").
			FileContext(path, 0).
			Component("entrez").
			Build()
	}
	if err := f.Close(); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_fasta").
			FileContext(path, 0).
			Component("entrez").
			Build()
	}
	return nil
}
