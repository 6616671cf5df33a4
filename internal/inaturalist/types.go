package inaturalist

import "time"

// MaxPerPage is the hard page size limit of the iNaturalist API.
const MaxPerPage = 200

// BarcodeFieldName is the observation field carrying ITS sequence data.
const BarcodeFieldName = "DNA Barcode ITS"

// Config holds iNaturalist client configuration
type Config struct {
	BaseURL string        // API endpoint
	PerPage int           // observations per page, the API caps this at MaxPerPage
	Delay   time.Duration // pause between observation page requests
	Timeout time.Duration // HTTP request timeout
}

// DefaultConfig returns the default iNaturalist configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.inaturalist.org/v1",
		PerPage: MaxPerPage,
		Delay:   500 * time.Millisecond,
		Timeout: 45 * time.Second,
	}
}

// Observation is a single iNaturalist observation record, reduced to the
// fields the sequence pipeline needs.
type Observation struct {
	ID         int          `json:"id"`
	ObservedOn string       `json:"observed_on"`
	PlaceIDs   []int        `json:"place_ids"`
	Taxon      Taxon        `json:"taxon"`
	User       User         `json:"user"`
	GeoJSON    *GeoJSON     `json:"geojson"`
	Ofvs       []FieldValue `json:"ofvs"`
}

// Taxon identifies the organism an observation was made of.
type Taxon struct {
	Name string `json:"name"`
	Rank string `json:"rank"`
}

// User is the account that submitted an observation.
type User struct {
	Login string `json:"login"`
}

// GeoJSON carries the observation point as [longitude, latitude].
type GeoJSON struct {
	Coordinates []float64 `json:"coordinates"`
}

// FieldValue is a custom observation field such as the DNA barcode entry.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Place is a gazetteer entry from the places endpoint. AdminLevel is a
// pointer because the API returns null for informal places.
type Place struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	AdminLevel *int   `json:"admin_level"`
}

// Admin levels used by the place walk.
const (
	adminLevelCountry = 0
	adminLevelState   = 10
)

// ObservationsPage is one page of observation search results.
type ObservationsPage struct {
	TotalResults int           `json:"total_results"`
	Results      []Observation `json:"results"`
}

// placesResponse mirrors the envelope of the places endpoint
type placesResponse struct {
	Results []Place `json:"results"`
}

// Barcode returns the raw ITS sequence value, empty when the observation
// carries no barcode field.
func (o *Observation) Barcode() string {
	for i := range o.Ofvs {
		if o.Ofvs[i].Name == BarcodeFieldName {
			return o.Ofvs[i].Value
		}
	}
	return ""
}

// HasBarcode reports whether the observation carries an ITS barcode field.
func (o *Observation) HasBarcode() bool {
	for i := range o.Ofvs {
		if o.Ofvs[i].Name == BarcodeFieldName {
			return true
		}
	}
	return false
}
