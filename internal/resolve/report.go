package resolve

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/aldendirks/mycotool/internal/errors"
)

// Result is the final disposition of one queried name.
type Result struct {
	Query       string
	Status      Status
	CurrentName string // accepted name, or "NA" when none applies
}

// Summary counts results by status.
type Summary map[Status]int

// NewSummary returns a Summary with every status present at zero, so the
// report always shows the full breakdown.
func NewSummary() Summary {
	s := make(Summary, len(statusOrder))
	for _, status := range statusOrder {
		s[status] = 0
	}
	return s
}

// Add counts one result.
func (s Summary) Add(status Status) {
	s[status]++
}

// Total returns the number of counted results.
func (s Summary) Total() int {
	total := 0
	for _, count := range s {
		total += count
	}
	return total
}

// WriteResults writes the resolution report as a TSV with a header row, one
// row per queried name in input order.
func WriteResults(path string, results []Result) error {
	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, []string{"species_query", "status", "current_name"})
	for _, r := range results {
		rows = append(rows, []string{r.Query, string(r.Status), r.CurrentName})
	}
	return writeTSV(path, rows)
}

// WriteExclusions writes the excluded species report as a TSV with a header row.
func WriteExclusions(path string, exclusions []ExclusionRecord) error {
	rows := make([][]string, 0, len(exclusions)+1)
	rows = append(rows, []string{"species", "reason"})
	for _, e := range exclusions {
		rows = append(rows, []string{e.Name, e.Reason})
	}
	return writeTSV(path, rows)
}

func writeTSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_report").
			FileContext(path, 0).
			Build()
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_report").
			FileContext(path, 0).
			Build()
	}

	if err := f.Close(); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_report").
			FileContext(path, 0).
			Build()
	}
	return nil
}

// PrintSummary prints the final run summary: input accounting first, then the
// per-status breakdown in the fixed status order.
func PrintSummary(w io.Writer, totalInput, userExcluded, ambiguous, queried int, summary Summary) {
	fmt.Fprintln(w, "\n\n=========== FINAL SUMMARY ===========")
	fmt.Fprintf(w, "Total species in input file:      %d\n", totalInput)
	fmt.Fprintf(w, "Excluded (user list):             %d\n", userExcluded)
	fmt.Fprintf(w, "Excluded (ambiguous):             %d\n", ambiguous)
	fmt.Fprintf(w, "Queried:                          %d\n\n", queried)

	fmt.Fprintln(w, "Query Results:")
	for _, status := range statusOrder {
		fmt.Fprintf(w, "%20s: %d\n", status, summary[status])
	}
	fmt.Fprintln(w, "=====================================")
	fmt.Fprintln(w)
}
