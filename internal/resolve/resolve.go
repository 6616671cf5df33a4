// Package resolve implements the MycoBank current-name resolution pipeline:
// loading and filtering species lists, batched authority queries,
// per-name classification and the final report.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
	"github.com/aldendirks/mycotool/internal/mycobank"
)

// NameService is the slice of the MycoBank client the resolution pipeline
// depends on. *mycobank.Client satisfies it.
type NameService interface {
	SearchNames(ctx context.Context, names []string) ([]mycobank.TaxonName, error)
	GetName(ctx context.Context, id json.Number) (*mycobank.TaxonName, error)
	NameDetailsPage(mycobankNr json.Number) string
}

// unknownValue is recorded when a synonym lookup cannot produce a usable value.
const unknownValue = "<unknown>"

// valueNA marks report cells that carry no accepted name.
const valueNA = "NA"

// Run resolves every species against the authority, one batch at a time, in
// input order. A failed batch query marks that whole batch as errored and the
// run continues with the next batch. The returned results preserve input
// order and cover every input name exactly once.
func Run(ctx context.Context, svc NameService, species []string, batchSize int, obs Observer) ([]Result, Summary, error) {
	if batchSize < 1 {
		return nil, nil, errors.Newf("batch size must be at least 1, got %d", batchSize).
			Category(errors.CategoryValidation).
			Context("batch_size", batchSize).
			Component("resolve").
			Build()
	}
	if obs == nil {
		obs = NopObserver{}
	}

	summary := NewSummary()
	results := make([]Result, 0, len(species))
	total := len(species)
	processed := 0

	logger.Info("name resolution started",
		"species", total,
		"batch_size", batchSize)

	for batch := range Batches(species, batchSize) {
		records, err := svc.SearchNames(ctx, batch)
		if err != nil {
			logger.Error("batch query failed",
				"batch_size", len(batch),
				"error", err)
			for _, sp := range batch {
				results = append(results, Result{Query: sp, Status: StatusError, CurrentName: valueNA})
				summary.Add(StatusError)
				processed++
			}
			obs.Notice("❌ API error for batch %v: %v", batch, err)
			obs.Progress(processed, total)
			continue
		}

		for _, sp := range batch {
			outcome := classify(sp, matchesFor(sp, records), records)
			currentName := valueNA

			switch outcome.Status {
			case StatusNoRecords:
				obs.Notice("⚠️ No records found for '%s'", sp)
			case StatusNoValid:
				obs.Notice("⚠️ No valid records for '%s'", sp)
			case StatusMultipleRecords:
				obs.Notice("%s", multipleRecordsNotice(svc, sp, outcome.Options))
			case StatusNoCurrent:
				obs.Notice("⚠️ No current name ID found for '%s'", sp)
			case StatusCurrent:
				currentName = outcome.Canonical.Name
				obs.Notice("✅ '%s' is the current MycoBank name.", sp)
			case StatusNotCurrent:
				name, mycobankNr := resolveCurrent(ctx, svc, outcome.Canonical.Synonymy.CurrentNameID)
				currentName = name
				obs.Notice("🔄 The current MycoBank name for '%s' is '%s' with MycoBank number '%s': \n        %s",
					sp, name, mycobankNr, svc.NameDetailsPage(json.Number(mycobankNr)))
			}

			results = append(results, Result{Query: sp, Status: outcome.Status, CurrentName: currentName})
			summary.Add(outcome.Status)
			processed++
			obs.Progress(processed, total)
		}
	}

	logger.Info("name resolution finished",
		"species", total,
		"current", summary[StatusCurrent],
		"not_current", summary[StatusNotCurrent],
		"errors", summary[StatusError])

	return results, summary, nil
}

// resolveCurrent follows a synonymy link to the accepted name. Lookup
// failures degrade to placeholder values so one broken link cannot fail the
// whole batch; no retries are attempted.
func resolveCurrent(ctx context.Context, svc NameService, currentID json.Number) (name, mycobankNr string) {
	record, err := svc.GetName(ctx, currentID)
	if err != nil {
		logger.Warn("synonym lookup failed, recording placeholders",
			"current_name_id", currentID.String(),
			"error", err)
		return unknownValue, unknownValue
	}

	name = record.Name
	if name == "" {
		name = unknownValue
	}
	mycobankNr = record.MycobankNr.String()
	if mycobankNr == "" {
		mycobankNr = unknownValue
	}
	return name, mycobankNr
}

// multipleRecordsNotice formats the operator-facing listing of competing
// records, one per line with its MycoBank page.
func multipleRecordsNotice(svc NameService, query string, options []mycobank.TaxonName) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Multiple valid records with different current names found for '%s':", query)
	for i := range options {
		fmt.Fprintf(&b, "\n        %s (%s)", options[i].Name, svc.NameDetailsPage(options[i].MycobankNr))
	}
	return b.String()
}
