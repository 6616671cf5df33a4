package entrez

import "time"

// Config holds NCBI Entrez client configuration
type Config struct {
	Email     string        // contact email sent with every request, NCBI etiquette
	APIKey    string        // optional API key, raises the request allowance
	BaseURL   string        // E-utilities endpoint
	BatchSize int           // accessions per GenBank flatfile request
	Timeout   time.Duration // HTTP request timeout
}

// DefaultConfig returns the default Entrez configuration
func DefaultConfig() Config {
	return Config{
		Email:     "aldendirks@gmail.com",
		BaseURL:   "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		BatchSize: 20,
		Timeout:   60 * time.Second,
	}
}

// SearchResult holds the outcome of an ESearch call.
type SearchResult struct {
	Count int      // total records matching the query
	IDs   []string // matching sequence ids, up to retmax
}

// esearchResponse mirrors the JSON envelope returned by esearch.fcgi.
// Numeric fields arrive as strings.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}
