package resolve

import (
	"strings"

	"github.com/aldendirks/mycotool/internal/mycobank"
)

// Status classifies the outcome of resolving one queried name.
type Status string

const (
	StatusCurrent         Status = "current"          // queried name is the accepted name
	StatusNotCurrent      Status = "not_current"      // superseded, accepted name resolved through synonymy
	StatusNoRecords       Status = "no_records"       // authority returned nothing for this name
	StatusNoValid         Status = "no_valid"         // name exists only as illegitimate or invalid
	StatusNoCurrent       Status = "no_current"       // record carries no current name link
	StatusMultipleRecords Status = "multiple_records" // valid records disagree on the current name
	StatusError           Status = "error"            // batch query failed
)

// statusOrder fixes the order of the summary breakdown.
var statusOrder = []Status{
	StatusCurrent,
	StatusNotCurrent,
	StatusNoRecords,
	StatusNoValid,
	StatusNoCurrent,
	StatusMultipleRecords,
	StatusError,
}

// Outcome is the classification of one queried name against one batch response.
type Outcome struct {
	Status Status
	// Canonical is the record chosen to represent the name. Set for
	// StatusCurrent, StatusNotCurrent and StatusNoCurrent.
	Canonical *mycobank.TaxonName
	// Options holds the competing records when Status is StatusMultipleRecords.
	Options []mycobank.TaxonName
}

// matchesFor narrows a batch response to the records that can represent the
// queried name: exact name match ignoring case and surrounding whitespace,
// with illegitimate and invalid entries removed.
func matchesFor(query string, records []mycobank.TaxonName) []mycobank.TaxonName {
	var matches []mycobank.TaxonName
	for _, record := range records {
		if !strings.EqualFold(strings.TrimSpace(record.Name), strings.TrimSpace(query)) {
			continue
		}
		if record.NameStatus == mycobank.NameStatusIllegitimate || record.NameStatus == mycobank.NameStatusInvalid {
			continue
		}
		matches = append(matches, record)
	}
	return matches
}

// classify assigns a queried name its outcome given the records matching it
// and the full batch response. Conditions are evaluated in priority order and
// the first match wins; batch transport failures are handled by the caller
// before classification.
func classify(query string, matches, records []mycobank.TaxonName) Outcome {
	if len(matches) == 0 {
		// Distinguish a name the authority has never indexed from one that
		// exists only under an excluded status.
		for i := range records {
			if strings.EqualFold(records[i].Name, query) {
				return Outcome{Status: StatusNoValid}
			}
		}
		return Outcome{Status: StatusNoRecords}
	}

	if len(matches) > 1 {
		// Duplicates that agree on the current name collapse to the first
		// record; disagreement is held for operator review.
		first := matches[0].Synonymy.CurrentNameID
		for _, match := range matches[1:] {
			if match.Synonymy.CurrentNameID != first {
				return Outcome{Status: StatusMultipleRecords, Options: matches}
			}
		}
	}

	canonical := &matches[0]
	switch {
	case !canonical.HasCurrentName():
		return Outcome{Status: StatusNoCurrent, Canonical: canonical}
	case canonical.IsCurrent():
		return Outcome{Status: StatusCurrent, Canonical: canonical}
	default:
		return Outcome{Status: StatusNotCurrent, Canonical: canonical}
	}
}
