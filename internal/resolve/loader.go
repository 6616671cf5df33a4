package resolve

import (
	"bufio"
	"os"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
)

// ambiguityMarkers withhold provisional or uncertain identifications such as
// "Amanita sp." or "Boletus cf. edulis" from querying. The test is a plain
// substring match; loosening or tightening it changes which names reach the
// authority at all.
var ambiguityMarkers = []string{"[", "]", "sp.", "cf.", "aff."}

// Exclusion reasons recorded in the excluded species report.
const (
	ReasonUserExcluded = "user_excluded"
	ReasonAmbiguous    = "ambiguous"
)

// ExclusionRecord is one withheld input name and the reason it was withheld.
type ExclusionRecord struct {
	Name   string
	Reason string
}

// ReadNameList reads a newline-delimited name list, trimming whitespace and
// skipping blank lines.
func ReadNameList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "read_name_list").
			FileContext(path, 0).
			Build()
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "read_name_list").
			FileContext(path, 0).
			Build()
	}

	return names, nil
}

// ReadSpeciesList reads the input species list and splits it into names to
// query and names to withhold. The user exclusion list is checked before the
// ambiguity markers, so each name gets exactly one disposition. When at least
// one name is withheld, the exclusions are also written to excludedOutput as
// a two-column TSV.
func ReadSpeciesList(path string, excludedNames []string, excludedOutput string, obs Observer) (toCheck []string, userExcluded, ambiguous int, err error) {
	if obs == nil {
		obs = NopObserver{}
	}

	lines, err := ReadNameList(path)
	if err != nil {
		return nil, 0, 0, err
	}

	excluded := make(map[string]struct{}, len(excludedNames))
	for _, name := range excludedNames {
		excluded[name] = struct{}{}
	}

	var exclusions []ExclusionRecord
	for _, sp := range lines {
		reason := ""
		if _, ok := excluded[sp]; ok {
			reason = ReasonUserExcluded
			userExcluded++
		} else if containsAmbiguityMarker(sp) {
			reason = ReasonAmbiguous
			ambiguous++
		}

		if reason != "" {
			obs.Notice("Skipping '%s' (%s)", sp, reason)
			exclusions = append(exclusions, ExclusionRecord{Name: sp, Reason: reason})
			continue
		}
		obs.Notice("Will check '%s'", sp)
		toCheck = append(toCheck, sp)
	}

	if len(exclusions) > 0 {
		if err := WriteExclusions(excludedOutput, exclusions); err != nil {
			return nil, 0, 0, err
		}
		obs.Notice("Excluded species written to %s\n", excludedOutput)
	}

	logger.Debug("species list loaded",
		"path", path,
		"to_check", len(toCheck),
		"user_excluded", userExcluded,
		"ambiguous", ambiguous)

	return toCheck, userExcluded, ambiguous, nil
}

func containsAmbiguityMarker(name string) bool {
	for _, marker := range ambiguityMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
