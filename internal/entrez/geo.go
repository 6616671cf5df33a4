package entrez

import (
	"context"
	"regexp"
	"strings"
)

// usStates maps US state names to postal abbreviations. Only the keys are
// used, to recognize state names inside GenBank geo qualifiers.
var usStates = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID", "Illinois": "IL",
	"Indiana": "IN", "Iowa": "IA", "Kansas": "KS", "Kentucky": "KY", "Louisiana": "LA",
	"Maine": "ME", "Maryland": "MD", "Massachusetts": "MA", "Michigan": "MI",
	"Minnesota": "MN", "Mississippi": "MS", "Missouri": "MO", "Montana": "MT",
	"Nebraska": "NE", "Nevada": "NV", "New Hampshire": "NH", "New Jersey": "NJ",
	"New Mexico": "NM", "New York": "NY", "North Carolina": "NC", "North Dakota": "ND",
	"Ohio": "OH", "Oklahoma": "OK", "Oregon": "OR", "Pennsylvania": "PA",
	"Rhode Island": "RI", "South Carolina": "SC", "South Dakota": "SD",
	"Tennessee": "TN", "Texas": "TX", "Utah": "UT", "Vermont": "VT",
	"Virginia": "VA", "Washington": "WA", "West Virginia": "WV",
	"Wisconsin": "WI", "Wyoming": "WY",
}

// canadianProvinces maps Canadian province and territory names to
// abbreviations, used like usStates.
var canadianProvinces = map[string]string{
	"Alberta":                   "AB",
	"British Columbia":          "BC",
	"Manitoba":                  "MB",
	"New Brunswick":             "NB",
	"Newfoundland and Labrador": "NL",
	"Nova Scotia":               "NS",
	"Ontario":                   "ON",
	"Prince Edward Island":      "PE",
	"Quebec":                    "QC",
	"Saskatchewan":              "SK",
	"Northwest Territories":     "NT",
	"Nunavut":                   "NU",
	"Yukon":                     "YT",
}

var (
	geoLocRe  = regexp.MustCompile(`/geo_loc_name="([^"]+)"`)
	countryRe = regexp.MustCompile(`/country="([^"]+)"`)
)

// Accession strips the version suffix from a sequence id (AB123456.1 becomes
// AB123456).
func Accession(id string) string {
	acc, _, _ := strings.Cut(id, ".")
	return acc
}

// splitFlatfile indexes a multi-record GenBank flatfile by primary accession.
func splitFlatfile(text string) map[string]string {
	records := make(map[string]string)

	var (
		accession string
		current   strings.Builder
	)
	flush := func() {
		if accession != "" {
			records[accession] = current.String()
		}
		accession = ""
		current.Reset()
	}

	for line := range strings.Lines(text) {
		if strings.HasPrefix(line, "LOCUS") {
			flush()
		}
		if accession == "" && strings.HasPrefix(line, "ACCESSION") {
			if fields := strings.Fields(line); len(fields) > 1 {
				accession = fields[1]
			}
		}
		current.WriteString(line)
	}
	flush()

	return records
}

// extractGeo pulls the geographic origin out of one GenBank record,
// preferring /geo_loc_name over the retired /country qualifier.
func extractGeo(record string) string {
	if m := geoLocRe.FindStringSubmatch(record); m != nil {
		return normalizeGeo(m[1])
	}
	if m := countryRe.FindStringSubmatch(record); m != nil {
		return normalizeGeo(m[1])
	}
	return "NA"
}

// normalizeGeo rewrites a raw qualifier value into a header-safe token.
// US and Canadian records keep the state or province when it is recognized,
// everything else is reduced to the country with spaces underscored.
func normalizeGeo(geo string) string {
	switch {
	case strings.HasPrefix(geo, "USA:") || strings.HasPrefix(geo, "United States:"):
		state := strings.TrimSpace(strings.Split(geo, ":")[1])
		if _, ok := usStates[state]; ok {
			return "USA-" + state
		}
		return "USA"
	case strings.HasPrefix(geo, "Canada:"):
		province := strings.TrimSpace(strings.Split(geo, ":")[1])
		if _, ok := canadianProvinces[province]; ok {
			return "Canada-" + province
		}
		return "Canada"
	default:
		country, _, _ := strings.Cut(geo, ":")
		return strings.ReplaceAll(strings.TrimSpace(country), " ", "_")
	}
}

// GeoMetadata resolves the geographic origin for each accession by fetching
// GenBank flatfiles in batches. A failed batch degrades to "NA" for all its
// accessions so a metadata outage never aborts a download.
func (c *Client) GeoMetadata(ctx context.Context, accessions []string) map[string]string {
	geo := make(map[string]string, len(accessions))

	for start := 0; start < len(accessions); start += c.config.BatchSize {
		end := min(start+c.config.BatchSize, len(accessions))
		batch := accessions[start:end]

		text, err := c.EFetch(ctx, batch, "gb", "text")
		if err != nil {
			logger.Warn("GenBank flatfile fetch failed, geographic origin unavailable",
				"accessions", len(batch),
				"error", err)
			for _, acc := range batch {
				geo[acc] = "NA"
			}
			continue
		}

		records := splitFlatfile(text)
		for _, acc := range batch {
			record, ok := records[acc]
			if !ok {
				geo[acc] = "NA"
				continue
			}
			geo[acc] = extractGeo(record)
		}
	}

	return geo
}
