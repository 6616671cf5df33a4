package inaturalist

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSequence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain sequence", "acgtacgtacgtacgtacgt", "ACGTACGTACGTACGTACGT"},
		{"whitespace removed", " acgt acgt\nacgt acgt acgt ", "ACGTACGTACGTACGTACGT"},
		{"leading junk dropped", "5'-ITS1: acgtacgtacgtacgtacgtacgt", "ACGTACGTACGTACGTACGTACGT"},
		{"trailing text kept", "acgtacgtacgtacgtacgtXYZ", "ACGTACGTACGTACGTACGTXYZ"},
		{"ambiguity codes count", "ryswmkhbvdnacgtacgta", "RYSWMKHBVDNACGTACGTA"},
		{"run too short", "acgtacgtacgtacgtacg", ""},
		{"no sequence data", "sequence pending", ""},
		{"empty value", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSequence(tt.raw))
		})
	}
}

func TestSpeciesLabel(t *testing.T) {
	tests := []struct {
		name      string
		taxon     Taxon
		wantLabel string
		wantRank  string
	}{
		{"species", Taxon{Name: "Morchella esculenta", Rank: "species"}, "Morchella-esculenta", "species"},
		{"genus", Taxon{Name: "Morchella", Rank: "genus"}, "Morchella-sp.", "genus"},
		{"family", Taxon{Name: "Morchellaceae", Rank: "family"}, "family_Morchellaceae", "family"},
		{"rank normalized", Taxon{Name: "Gyromitra korfii", Rank: " Species "}, "Gyromitra-korfii", "species"},
		{"infraspecific", Taxon{Name: "Gyromitra esculenta alpina", Rank: "variety"}, "variety_Gyromitra esculenta alpina", "variety"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, rank := SpeciesLabel(tt.taxon)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantRank, rank)
		})
	}
}

// registerPlaceResponders mocks the gazetteer lookups used by the
// country/state tests.
func registerPlaceResponders(t *testing.T) {
	t.Helper()
	httpmock.RegisterResponder("GET", placeURL("1"),
		httpmock.NewStringResponder(200,
			`{"results": [{"id": 1, "name": "United States", "admin_level": 0}]}`))
	httpmock.RegisterResponder("GET", placeURL("97394"),
		httpmock.NewStringResponder(200,
			`{"results": [{"id": 97394, "name": "Michigan", "admin_level": 10}]}`))
	httpmock.RegisterResponder("GET", placeURL("3"),
		httpmock.NewStringResponder(200,
			`{"results": [{"id": 3, "name": "Huron National Forest", "admin_level": null}]}`))
	httpmock.RegisterResponder("GET", placeURL("4"),
		httpmock.NewStringResponder(200,
			`{"results": [{"id": 4, "name": "Norway", "admin_level": 0}]}`))
}

func TestCountryState(t *testing.T) {
	setupHTTPMock(t)
	registerPlaceResponders(t)
	client := NewClient(createTestConfig())

	tests := []struct {
		name        string
		placeIDs    []int
		wantCountry string
		wantState   string
	}{
		{"united states shortened", []int{3, 1, 97394}, "USA", "Michigan"},
		{"country only", []int{4}, "Norway", "NA"},
		{"no places", nil, "NA", "NA"},
		{"first country wins", []int{4, 1}, "Norway", "NA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &Observation{PlaceIDs: tt.placeIDs}
			country, state := client.CountryState(t.Context(), obs)
			assert.Equal(t, tt.wantCountry, country)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestCountryStateStopsEarly(t *testing.T) {
	setupHTTPMock(t)
	registerPlaceResponders(t)
	httpmock.RegisterResponder("GET", placeURL("999"),
		httpmock.NewStringResponder(200,
			`{"results": [{"id": 999, "name": "Oslo", "admin_level": 10}]}`))

	client := NewClient(createTestConfig())
	obs := &Observation{PlaceIDs: []int{1, 97394, 999}}

	country, state := client.CountryState(t.Context(), obs)
	assert.Equal(t, "USA", country)
	assert.Equal(t, "Michigan", state)

	info := httpmock.GetCallCountInfo()
	assert.Zero(t, info["GET "+placeURL("999")], "walk should stop once both levels are found")
}

// observationsPageResponder serves canned bodies keyed by page number.
func observationsPageResponder(pages map[string]string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		body, ok := pages[req.URL.Query().Get("page")]
		if !ok {
			return httpmock.NewStringResponse(500, `{"error": "no such page"}`), nil
		}
		return httpmock.NewStringResponse(200, body), nil
	}
}

func TestCollectObservations(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", observationsURL, observationsPageResponder(map[string]string{
		"1": `{
			"total_results": 3,
			"results": [
				{"id": 11, "ofvs": [{"name": "DNA Barcode ITS", "value": "acgt"}]},
				{"id": 12}
			]
		}`,
		"2": `{
			"total_results": 3,
			"results": [
				{"id": 13, "ofvs": [{"name": "DNA Barcode ITS", "value": "acgt"}]}
			]
		}`,
	}))

	client := NewClient(createTestConfig(func(c *Config) { c.PerPage = 2 }))
	var out bytes.Buffer

	total, observations := CollectObservations(t.Context(), client, "951406", 0, &out)

	assert.Equal(t, 3, total)
	require.Len(t, observations, 2)
	assert.Equal(t, 11, observations[0].ID)
	assert.Equal(t, 13, observations[1].ID)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())

	assert.Contains(t, out.String(), "Fetched page 1: 2 observations, 1 with ITS\n")
	assert.Contains(t, out.String(), "Fetched page 2: 1 observations, 1 with ITS\n")
	assert.Contains(t, out.String(), "Last page reached.\n")
}

func TestCollectObservationsMaxPages(t *testing.T) {
	setupHTTPMock(t)
	fullPage := `{
		"total_results": 100,
		"results": [
			{"id": 11, "ofvs": [{"name": "DNA Barcode ITS", "value": "acgt"}]},
			{"id": 12, "ofvs": [{"name": "DNA Barcode ITS", "value": "acgt"}]}
		]
	}`
	httpmock.RegisterResponder("GET", observationsURL, observationsPageResponder(map[string]string{
		"1": fullPage, "2": fullPage, "3": fullPage,
	}))

	client := NewClient(createTestConfig(func(c *Config) { c.PerPage = 2 }))
	var out bytes.Buffer

	total, observations := CollectObservations(t.Context(), client, "951406", 1, &out)

	assert.Equal(t, 100, total)
	assert.Len(t, observations, 2)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "max pages should stop after one request")
	assert.Contains(t, out.String(), "Max pages limit reached.\n")
}

func TestCollectObservationsKeepsPartialOnError(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", observationsURL, observationsPageResponder(map[string]string{
		"1": `{
			"total_results": 5,
			"results": [
				{"id": 11, "ofvs": [{"name": "DNA Barcode ITS", "value": "acgt"}]},
				{"id": 12}
			]
		}`,
	}))

	client := NewClient(createTestConfig(func(c *Config) { c.PerPage = 2 }))
	var out bytes.Buffer

	total, observations := CollectObservations(t.Context(), client, "951406", 0, &out)

	assert.Equal(t, 5, total)
	require.Len(t, observations, 1)
	assert.Equal(t, 11, observations[0].ID)
	assert.Contains(t, out.String(), "An error occurred on page 2:")
}

func TestBuildRecords(t *testing.T) {
	setupHTTPMock(t)
	registerPlaceResponders(t)
	client := NewClient(createTestConfig())

	observations := []Observation{
		{
			ID:         11,
			ObservedOn: "2024-05-01",
			PlaceIDs:   []int{1, 97394},
			Taxon:      Taxon{Name: "Morchella esculenta", Rank: "species"},
			User:       User{Login: "alden"},
			GeoJSON:    &GeoJSON{Coordinates: []float64{-83.7, 42.2}},
			Ofvs:       []FieldValue{{Name: BarcodeFieldName, Value: "acgt acgt acgt acgt acgt acgt"}},
		},
		{
			ID:    13,
			Taxon: Taxon{Name: "Morchella", Rank: "genus"},
			Ofvs:  []FieldValue{{Name: BarcodeFieldName, Value: "acgtacgtacgtacgtacgtacgt"}},
		},
		{
			ID:    14,
			Taxon: Taxon{Name: "Gyromitra esculenta alpina", Rank: "variety"},
			Ofvs:  []FieldValue{{Name: BarcodeFieldName, Value: "acgtacgtacgtacgtacgtacgt"}},
		},
	}

	var out bytes.Buffer
	records, rows := BuildRecords(t.Context(), client, observations, &out)

	require.Len(t, records, 3)
	assert.Equal(t, "Morchella-esculenta_iNat11_USA-Michigan", records[0].Header)
	assert.Equal(t, "ACGTACGTACGTACGTACGTACGT", records[0].Sequence)
	assert.Equal(t, "Morchella-sp._iNat13_NA-NA", records[1].Header)
	assert.Equal(t, "variety_Gyromitra_esculenta_alpina_iNat14_NA-NA", records[2].Header)

	require.Len(t, rows, 3)
	first := rows[0]
	assert.Equal(t, "Morchella-esculenta_iNat11_USA-Michigan", first.Header)
	assert.Equal(t, "Morchella-esculenta", first.Species)
	assert.Equal(t, "species", first.SpeciesRank)
	assert.Equal(t, "USA", first.Country)
	assert.Equal(t, "Michigan", first.State)
	assert.Equal(t, "11", first.INatID)
	assert.Equal(t, "42.2", first.Latitude)
	assert.Equal(t, "-83.7", first.Longitude)
	assert.Equal(t, "2024-05-01", first.ObservedOn)
	assert.Equal(t, "alden", first.User)
	assert.Equal(t, 29, first.RawLength)
	assert.Equal(t, 24, first.CleanedLength)

	second := rows[1]
	assert.Equal(t, "NA", second.Country)
	assert.Equal(t, "NA", second.State)
	assert.Empty(t, second.Latitude)
	assert.Empty(t, second.Longitude)

	// Metadata keeps the label unmangled, only headers replace spaces
	assert.Equal(t, "variety_Gyromitra esculenta alpina", rows[2].Species)
}

func TestBuildRecordsSkipsInvalidDNA(t *testing.T) {
	setupHTTPMock(t)
	client := NewClient(createTestConfig())

	observations := []Observation{
		{ID: 12, Ofvs: []FieldValue{{Name: BarcodeFieldName, Value: "too short"}}},
		{ID: 15}, // no barcode field at all
	}

	var out bytes.Buffer
	records, rows := BuildRecords(t.Context(), client, observations, &out)

	assert.Empty(t, records)
	assert.Empty(t, rows)
	assert.Equal(t, "[WARN] Sequence for observation 12 contains no valid DNA, skipping.\n", out.String())
}

func TestMetadataPath(t *testing.T) {
	tests := []struct {
		fastaPath string
		want      string
	}{
		{"inat.fasta", "inat.tsv"},
		{"seqs/out.fasta", "seqs/out.tsv"},
		{"data.txt", "data.txt.tsv"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MetadataPath(tt.fastaPath))
	}
}

func TestWriteMetadataTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.tsv")
	rows := []Metadata{{
		Header:        "Morchella-esculenta_iNat11_USA-Michigan",
		Species:       "Morchella-esculenta",
		SpeciesRank:   "species",
		Country:       "USA",
		State:         "Michigan",
		INatID:        "11",
		Latitude:      "42.2",
		Longitude:     "-83.7",
		ObservedOn:    "2024-05-01",
		User:          "alden",
		RawLength:     29,
		CleanedLength: 24,
	}}

	var out bytes.Buffer
	require.NoError(t, WriteMetadataTSV(path, rows, &out))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "header\tspecies\tspecies_rank\tcountry\tstate\tinat_id\tlatitude\tlongitude\tobserved_on\tuser\traw_seq_length\tcleaned_seq_length\n" +
		"Morchella-esculenta_iNat11_USA-Michigan\tMorchella-esculenta\tspecies\tUSA\tMichigan\t11\t42.2\t-83.7\t2024-05-01\talden\t29\t24\n"
	assert.Equal(t, want, string(content))
	assert.Contains(t, out.String(), "Wrote metadata TSV: "+path)
}

func TestWriteMetadataTSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.tsv")

	var out bytes.Buffer
	require.NoError(t, WriteMetadataTSV(path, nil, &out))

	assert.Equal(t, "[WARN] No metadata to write.\n", out.String())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty table should not create a file")
}

func TestFetchITS(t *testing.T) {
	setupHTTPMock(t)
	registerPlaceResponders(t)
	httpmock.RegisterResponder("GET", observationsURL, observationsPageResponder(map[string]string{
		"1": `{
			"total_results": 2,
			"results": [
				{
					"id": 11,
					"observed_on": "2024-05-01",
					"place_ids": [1, 97394],
					"taxon": {"name": "Morchella esculenta", "rank": "species"},
					"user": {"login": "alden"},
					"geojson": {"coordinates": [-83.7, 42.2]},
					"ofvs": [{"name": "DNA Barcode ITS", "value": "acgt acgt acgt acgt acgt acgt"}]
				},
				{"id": 12}
			]
		}`,
	}))

	client := NewClient(createTestConfig())
	output := filepath.Join(t.TempDir(), "seqs", "inat.fasta")
	var out bytes.Buffer

	err := FetchITS(t.Context(), client, FetchOptions{TaxonID: "951406", Output: output}, &out)
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, ">Morchella-esculenta_iNat11_USA-Michigan\nACGTACGTACGTACGTACGTACGT\n", string(content))

	meta, err := os.ReadFile(MetadataPath(output))
	require.NoError(t, err)
	assert.Contains(t, string(meta), "Morchella-esculenta_iNat11_USA-Michigan\tMorchella-esculenta\tspecies\tUSA\tMichigan\t11")

	text := out.String()
	assert.Contains(t, text, "\nDownloading taxon_id=951406 (per_page=200)...\n\n")
	assert.Contains(t, text, "Fetched page 1: 2 observations, 1 with ITS\n")
	assert.Contains(t, text, "Last page reached.\n")
	assert.Contains(t, text, "\nTotal number of observations: 2\n")
	assert.Contains(t, text, "Observations with ITS sequence data: 1\n")
	assert.Contains(t, text, "\nParsing FASTA and fetching location information.\n")
	assert.Contains(t, text, "\nWrote 1 records to FASTA: "+output)
	assert.Contains(t, text, "Wrote metadata TSV: "+MetadataPath(output))
	assert.Contains(t, text, "\nDone.\n\n")
}

func TestFetchITSDefaultOutput(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", observationsURL, observationsPageResponder(map[string]string{
		"1": `{"total_results": 0, "results": []}`,
	}))

	t.Chdir(t.TempDir())
	client := NewClient(createTestConfig())
	var out bytes.Buffer

	err := FetchITS(t.Context(), client, FetchOptions{TaxonID: "951406"}, &out)
	require.NoError(t, err)

	_, err = os.Stat("inat.fasta")
	require.NoError(t, err, "default output should land in the working directory")
	assert.Contains(t, out.String(), "Wrote 0 records to FASTA: inat.fasta")
	assert.Contains(t, out.String(), "[WARN] No metadata to write.")
}
