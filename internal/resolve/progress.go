package resolve

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Observer receives progress updates and per-name notices while a run is in
// flight. Runs are sequential, so implementations are called from a single
// goroutine.
type Observer interface {
	// Progress reports that processed of total names have been classified.
	Progress(processed, total int)
	// Notice reports a human-readable event such as a skipped name or a
	// resolved synonym. Suppressed unless the observer is verbose.
	Notice(format string, args ...any)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Progress(processed, total int)     {}
func (NopObserver) Notice(format string, args ...any) {}

// ConsoleObserver renders an in-place progress bar and prints notices over
// the bar line so both can share the terminal.
type ConsoleObserver struct {
	out       io.Writer
	verbose   bool
	barLength int
}

// NewConsoleObserver returns an observer writing to stdout.
func NewConsoleObserver(verbose bool) *ConsoleObserver {
	return &ConsoleObserver{out: os.Stdout, verbose: verbose, barLength: 20}
}

// Progress redraws the in-place progress bar.
func (o *ConsoleObserver) Progress(processed, total int) {
	if total < 1 {
		return
	}
	filled := o.barLength * processed / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", o.barLength-filled)
	fmt.Fprintf(o.out, "\rProcessed %d/%d species: [%s]", processed, total, bar)
}

// Notice prints one verbose line, clearing progress bar residue first.
func (o *ConsoleObserver) Notice(format string, args ...any) {
	if !o.verbose {
		return
	}
	fmt.Fprintf(o.out, "\r\033[K"+format+"\n", args...)
}
