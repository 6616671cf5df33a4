// Package fasta reads, writes and filters multi-FASTA sequence files.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
)

// maxLineBytes caps the scanner token size. Single-line FASTA files can
// carry whole sequences on one line, well past the bufio default.
const maxLineBytes = 16 * 1024 * 1024

// Record is a single FASTA entry. Header holds the description line without
// the leading '>', Sequence the concatenated sequence lines.
type Record struct {
	Header   string
	Sequence string
}

// Read parses multi-FASTA data from r. Sequence lines are trimmed and
// concatenated. Lines before the first header are ignored.
func Read(r io.Reader) ([]Record, error) {
	var (
		records []Record
		header  string
		seq     strings.Builder
		open    bool
	)

	flush := func() {
		if open {
			records = append(records, Record{Header: header, Sequence: seq.String()})
			seq.Reset()
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ">") {
			flush()
			header = strings.TrimPrefix(line, ">")
			open = true
			continue
		}
		if !open {
			continue
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "read_fasta").
			Build()
	}
	flush()

	return records, nil
}

// ReadFile reads all records from a FASTA file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "read_fasta").
			FileContext(path, 0).
			Build()
	}
	defer f.Close()

	return Read(f)
}

// Write writes records to w, wrapping sequence lines at width characters.
// A width of zero or less writes each sequence on a single line.
func Write(w io.Writer, records []Record, width int) error {
	for i := range records {
		if _, err := fmt.Fprintf(w, ">%s\n", records[i].Header); err != nil {
			return err
		}
		seq := records[i].Sequence
		if width <= 0 || len(seq) <= width {
			if _, err := fmt.Fprintf(w, "%s\n", seq); err != nil {
				return err
			}
			continue
		}
		for start := 0; start < len(seq); start += width {
			end := min(start+width, len(seq))
			if _, err := fmt.Fprintf(w, "%s\n", seq[start:end]); err != nil {
				return err
			}
		}
	}
	return nil
}
