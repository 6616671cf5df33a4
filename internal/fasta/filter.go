package fasta

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
)

// FilterPath derives the output path for a length-filtered copy of a FASTA
// file: the extension is replaced with "_length-filtered.fasta".
func FilterPath(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "_length-filtered.fasta"
}

// FilterFile removes sequences shorter than minLength from a multi-FASTA
// file and writes the survivors to FilterPath(path). Summary lines go to w.
func FilterFile(w io.Writer, path string, minLength int) error {
	records, err := ReadFile(path)
	if err != nil {
		return err
	}

	var kept []Record
	for i := range records {
		if len(records[i].Sequence) >= minLength {
			kept = append(kept, records[i])
		}
	}

	outputPath := FilterPath(path)
	f, err := os.Create(outputPath)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_filtered").
			FileContext(outputPath, 0).
			Build()
	}
	if err := Write(f, kept, 0); err != nil {
		f.Close()
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_filtered").
			FileContext(outputPath, 0).
			Build()
	}
	if err := f.Close(); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_filtered").
			FileContext(outputPath, 0).
			Build()
	}

	fmt.Fprintf(w, "Input file: %s\n", path)
	fmt.Fprintf(w, "Output file: %s\n", outputPath)
	fmt.Fprintf(w, "Minimum length: %d\n", minLength)
	fmt.Fprintf(w, "Total sequences: %d\n", len(records))
	fmt.Fprintf(w, "Kept: %d\n", len(kept))
	fmt.Fprintf(w, "Removed: %d\n", len(records)-len(kept))

	return nil
}
