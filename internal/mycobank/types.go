// Package mycobank provides a client for the MycoBank taxon names web service
package mycobank

import (
	"encoding/json"
	"time"
)

// TaxonName represents a single name record from the taxon names endpoint.
// Identifier fields are json.Number so numeric payloads survive decoding
// without float conversion and can be embedded in URLs as-is.
type TaxonName struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"name"`
	NameStatus string      `json:"nameStatus"` // Legitimate, Illegitimate, Invalid, ...
	MycobankNr json.Number `json:"mycobankNr"` // public MycoBank number shown on the website
	Synonymy   Synonymy    `json:"synonymy"`
}

// Synonymy links a record to the name currently accepted for its taxon.
type Synonymy struct {
	CurrentNameID json.Number `json:"currentNameId"`
}

// Name status values that disqualify a record from representing a usable name.
const (
	NameStatusIllegitimate = "Illegitimate"
	NameStatusInvalid      = "Invalid"
)

// HasCurrentName reports whether the record links to a current name.
// Missing, empty and zero identifiers all count as absent.
func (t *TaxonName) HasCurrentName() bool {
	id := t.Synonymy.CurrentNameID.String()
	return id != "" && id != "0"
}

// IsCurrent reports whether the record is itself the current name for its taxon.
func (t *TaxonName) IsCurrent() bool {
	return t.HasCurrentName() && t.ID == t.Synonymy.CurrentNameID
}

// Config holds configuration for the MycoBank client
type Config struct {
	AccessToken    string        `json:"access_token"`
	BaseURL        string        `json:"base_url"`
	NameDetailsURL string        `json:"name_details_url"` // web page prefix for MycoBank numbers
	Timeout        time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://webservices.bio-aware.com/cbsdatabase_new/mycobank/taxonnames",
		NameDetailsURL: "https://www.mycobank.org/page/Name%20details%20page/field/Mycobank%20%23/",
		Timeout:        30 * time.Second,
	}
}
