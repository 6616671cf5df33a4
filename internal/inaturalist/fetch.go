package inaturalist

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
	"github.com/aldendirks/mycotool/internal/fasta"
)

// FetchOptions controls an iNaturalist ITS download.
type FetchOptions struct {
	TaxonID  string
	MaxPages int    // stop after this many pages, zero fetches everything
	Output   string // output FASTA path, a metadata TSV is written next to it
}

// validSequenceRun matches a stretch of at least 20 IUPAC DNA characters,
// which marks where real sequence data starts in a pasted barcode value.
var validSequenceRun = regexp.MustCompile(`[ACGTRYWSMKHBVDN]{20,}`)

// CleanSequence strips whitespace from a raw barcode value, uppercases it
// and drops everything before the first run of 20 or more IUPAC DNA
// characters. It returns an empty string when no such run exists.
func CleanSequence(raw string) string {
	seq := strings.TrimSpace(raw)
	seq = strings.ReplaceAll(seq, " ", "")
	seq = strings.ReplaceAll(seq, "\n", "")
	seq = strings.ToUpper(seq)

	loc := validSequenceRun.FindStringIndex(seq)
	if loc == nil {
		return ""
	}
	return seq[loc[0]:]
}

// CollectObservations pages through the observation search for a taxon and
// keeps the observations that carry an ITS barcode field. It returns the
// total observation count reported by the API and the kept observations.
// A failed page request stops the walk but keeps what was fetched so far.
func CollectObservations(ctx context.Context, client *Client, taxonID string, maxPages int, out io.Writer) (int, []Observation) {
	var observations []Observation
	total := 0

	for page := 1; ; page++ {
		result, err := client.Observations(ctx, taxonID, page)
		if err != nil {
			fmt.Fprintf(out, "An error occurred on page %d: %v\n", page, err)
			break
		}
		total = result.TotalResults

		sequenced := 0
		for i := range result.Results {
			if result.Results[i].HasBarcode() {
				observations = append(observations, result.Results[i])
				sequenced++
			}
		}
		fmt.Fprintf(out, "Fetched page %d: %d observations, %d with ITS\n", page, len(result.Results), sequenced)

		if maxPages > 0 && page >= maxPages {
			fmt.Fprintln(out, "Max pages limit reached.")
			break
		}
		if len(result.Results) < client.config.PerPage {
			fmt.Fprintln(out, "Last page reached.")
			break
		}
	}

	return total, observations
}

// SpeciesLabel builds the species part of a FASTA header from a taxon.
// Species names join their epithets with hyphens, genus level taxa get an
// "-sp." suffix and other ranks are prefixed with the rank itself.
func SpeciesLabel(taxon Taxon) (label, rank string) {
	rank = strings.TrimSpace(strings.ToLower(taxon.Rank))
	switch rank {
	case "species":
		label = strings.ReplaceAll(taxon.Name, " ", "-")
	case "genus":
		label = taxon.Name + "-sp."
	default:
		label = rank + "_" + taxon.Name
	}
	return label, rank
}

// CountryState walks an observation's place ids and returns the names of the
// first country level and first state level places found, with "United
// States" shortened to "USA". Levels that never turn up come back as "NA".
func (c *Client) CountryState(ctx context.Context, obs *Observation) (country, state string) {
	for _, placeID := range obs.PlaceIDs {
		place, err := c.Place(ctx, placeID)
		if err != nil || place == nil || place.AdminLevel == nil {
			continue
		}

		switch {
		case *place.AdminLevel == adminLevelCountry && country == "":
			country = place.Name
			if country == "United States" {
				country = "USA"
			}
		case *place.AdminLevel == adminLevelState && state == "":
			state = place.Name
		}

		// Stop early once both levels are resolved
		if country != "" && state != "" {
			break
		}
	}

	if country == "" {
		country = "NA"
	}
	if state == "" {
		state = "NA"
	}
	return country, state
}

// Metadata is one row of the provenance table written next to the FASTA
// output. Latitude and longitude stay empty when the observation carries no
// coordinates.
type Metadata struct {
	Header        string
	Species       string
	SpeciesRank   string
	Country       string
	State         string
	INatID        string
	Latitude      string
	Longitude     string
	ObservedOn    string
	User          string
	RawLength     int
	CleanedLength int
}

// metadataColumns fixes the TSV column order.
var metadataColumns = []string{
	"header", "species", "species_rank", "country", "state", "inat_id",
	"latitude", "longitude", "observed_on", "user",
	"raw_seq_length", "cleaned_seq_length",
}

// BuildRecords turns barcoded observations into FASTA records and metadata
// rows, resolving each observation's country and state along the way.
// Observations whose barcode value contains no usable DNA are skipped with
// a warning.
func BuildRecords(ctx context.Context, client *Client, observations []Observation, out io.Writer) ([]fasta.Record, []Metadata) {
	records := make([]fasta.Record, 0, len(observations))
	rows := make([]Metadata, 0, len(observations))

	for i := range observations {
		obs := &observations[i]
		if !obs.HasBarcode() {
			continue
		}

		raw := obs.Barcode()
		cleaned := CleanSequence(raw)
		if cleaned == "" {
			fmt.Fprintf(out, "[WARN] Sequence for observation %d contains no valid DNA, skipping.\n", obs.ID)
			continue
		}

		label, rank := SpeciesLabel(obs.Taxon)

		inatID := "NA"
		if obs.ID != 0 {
			inatID = strconv.Itoa(obs.ID)
		}

		country, state := client.CountryState(ctx, obs)

		// GeoJSON points are [longitude, latitude]
		latitude, longitude := "", ""
		if obs.GeoJSON != nil && len(obs.GeoJSON.Coordinates) >= 2 {
			longitude = strconv.FormatFloat(obs.GeoJSON.Coordinates[0], 'f', -1, 64)
			latitude = strconv.FormatFloat(obs.GeoJSON.Coordinates[1], 'f', -1, 64)
		}

		header := fmt.Sprintf("%s_iNat%s_%s-%s", label, inatID, country, state)
		header = strings.ReplaceAll(header, " ", "_")

		records = append(records, fasta.Record{Header: header, Sequence: cleaned})
		rows = append(rows, Metadata{
			Header:        header,
			Species:       label,
			SpeciesRank:   rank,
			Country:       country,
			State:         state,
			INatID:        inatID,
			Latitude:      latitude,
			Longitude:     longitude,
			ObservedOn:    obs.ObservedOn,
			User:          obs.User.Login,
			RawLength:     len(raw),
			CleanedLength: len(cleaned),
		})
	}

	return records, rows
}

// MetadataPath derives the metadata TSV path from the FASTA output path.
func MetadataPath(fastaPath string) string {
	if strings.HasSuffix(fastaPath, ".fasta") {
		return strings.TrimSuffix(fastaPath, ".fasta") + ".tsv"
	}
	return fastaPath + ".tsv"
}

// WriteMetadataTSV writes the provenance table with a header row. An empty
// table produces a warning instead of a file.
func WriteMetadataTSV(path string, rows []Metadata, out io.Writer) error {
	if len(rows) == 0 {
		fmt.Fprintln(out, "[WARN] No metadata to write.")
		return nil
	}

	table := make([][]string, 0, len(rows)+1)
	table = append(table, metadataColumns)
	for i := range rows {
		r := &rows[i]
		table = append(table, []string{
			r.Header, r.Species, r.SpeciesRank, r.Country, r.State, r.INatID,
			r.Latitude, r.Longitude, r.ObservedOn, r.User,
			strconv.Itoa(r.RawLength), strconv.Itoa(r.CleanedLength),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_metadata").
			FileContext(path, 0).
			Component("inaturalist").
			Build()
	}
	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.WriteAll(table); err != nil {
		f.Close()
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_metadata").
			FileContext(path, 0).
			Component("inaturalist").
			Build()
	}
	if err := f.Close(); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_metadata").
			FileContext(path, 0).
			Component("inaturalist").
			Build()
	}

	fmt.Fprintf(out, "Wrote metadata TSV: %s\n", path)
	return nil
}

// writeFASTA writes records unwrapped, one sequence line per record,
// creating parent directories as needed.
func writeFASTA(path string, records []fasta.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Category(errors.CategoryFileIO).
				Context("operation", "create_output_dir").
				FileContext(path, 0).
				Component("inaturalist").
				Build()
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_fasta").
			FileContext(path, 0).
			Component("inaturalist").
			Build()
	}
	if err := fasta.Write(f, records, 0); err != nil {
		f.Close()
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_fasta").
			FileContext(path, 0).
			Component("inaturalist").
			Build()
	}
	if err := f.Close(); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_fasta").
			FileContext(path, 0).
			Component("inaturalist").
			Build()
	}
	return nil
}

// FetchITS downloads all ITS barcoded observations for a taxon and writes a
// FASTA file plus a metadata TSV describing each record. Progress and
// summary lines go to out.
func FetchITS(ctx context.Context, client *Client, opts FetchOptions, out io.Writer) error {
	output := opts.Output
	if output == "" {
		output = "inat.fasta"
	}

	fmt.Fprintf(out, "\nDownloading taxon_id=%s (per_page=%d)...\n\n", opts.TaxonID, client.config.PerPage)
	logger.Info("Starting iNaturalist ITS download",
		"taxon_id", opts.TaxonID,
		"per_page", client.config.PerPage,
		"max_pages", opts.MaxPages)

	total, observations := CollectObservations(ctx, client, opts.TaxonID, opts.MaxPages, out)
	fmt.Fprintf(out, "\nTotal number of observations: %d\n", total)
	fmt.Fprintf(out, "Observations with ITS sequence data: %d\n", len(observations))

	fmt.Fprintln(out, "\nParsing FASTA and fetching location information.")
	records, rows := BuildRecords(ctx, client, observations, out)

	if err := writeFASTA(output, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nWrote %d records to FASTA: %s\n", len(records), output)

	if err := WriteMetadataTSV(MetadataPath(output), rows, out); err != nil {
		return err
	}

	logger.Info("iNaturalist ITS download complete",
		"taxon_id", opts.TaxonID,
		"records", len(records),
		"output", output)

	fmt.Fprint(out, "\nDone.\n\n")
	return nil
}
