package fasta

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/aldendirks/mycotool/internal/errors"
)

// ParsePositions converts position arguments into a sorted list of unique
// 1-based positions. Each argument is a single position or an inclusive
// range such as "5-7".
func ParsePositions(args []string) ([]int, error) {
	seen := make(map[int]struct{})
	for _, arg := range args {
		if lo, hi, ok := strings.Cut(arg, "-"); ok {
			start, err := strconv.Atoi(lo)
			if err != nil {
				return nil, invalidPosition(arg)
			}
			end, err := strconv.Atoi(hi)
			if err != nil {
				return nil, invalidPosition(arg)
			}
			for p := start; p <= end; p++ {
				seen[p] = struct{}{}
			}
			continue
		}

		p, err := strconv.Atoi(arg)
		if err != nil {
			return nil, invalidPosition(arg)
		}
		seen[p] = struct{}{}
	}

	return slices.Sorted(maps.Keys(seen)), nil
}

func invalidPosition(arg string) error {
	return errors.Newf("invalid position %q, expected a number or a range like 5-7", arg).
		Category(errors.CategoryValidation).
		Context("operation", "parse_positions").
		Build()
}

// PrintByPositions writes the selected records to w in position order.
// Out-of-range positions produce a note instead of a record.
func PrintByPositions(w io.Writer, records []Record, positions []int) {
	for _, pos := range positions {
		if pos >= 1 && pos <= len(records) {
			fmt.Fprintf(w, ">%s\n", records[pos-1].Header)
			fmt.Fprintln(w, records[pos-1].Sequence)
		} else {
			fmt.Fprintf(w, "Position %d is out of range. There are only %d sequences.\n", pos, len(records))
		}
	}
}

// PrintFile prints sequences from a multi-FASTA file selected by their
// 1-based positions in the file.
func PrintFile(w io.Writer, path string, positionArgs []string) error {
	positions, err := ParsePositions(positionArgs)
	if err != nil {
		return err
	}

	records, err := ReadFile(path)
	if err != nil {
		return err
	}

	PrintByPositions(w, records, positions)
	return nil
}
