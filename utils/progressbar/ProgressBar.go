// Package progressbar implements functionality of printing a progress
// bar to the terminal window during long offline training runs
package progressbar

import (
	"fmt"
	"strings"
	"time"

	"flapdqn/utils/intutils"
)

// Bar is a single-line terminal progress bar. It is manually managed:
// call Add() as work completes and Display() whenever the bar should be
// redrawn. Bar does not use concurrency.
type Bar struct {
	width    int
	max      int
	current  int
	suffix   string
	bar      strings.Builder
	start    time.Time
	rendered bool
}

// New returns a Bar that is width characters wide and reaches 100%
// after max units of work
func New(width, max int) *Bar {
	if width < 1 {
		width = 1
	}
	if max < 1 {
		max = 1
	}
	return &Bar{
		width: width,
		max:   max,
		start: time.Now(),
	}
}

// Add advances the progress counter by n completed units
func (b *Bar) Add(n int) {
	b.current = intutils.Clamp(b.current+n, 0, b.max)
}

// SetSuffix sets a short status string rendered after the bar, e.g.
// the current epsilon or average reward
func (b *Bar) SetSuffix(suffix string) {
	b.suffix = suffix
}

// Display redraws the bar in place on the current terminal line
func (b *Bar) Display() {
	b.bar.Reset()
	b.bar.WriteString("|")

	filled := b.current * b.width / b.max
	for i := 0; i < filled; i++ {
		b.bar.WriteString("█")
	}
	for i := filled; i < b.width; i++ {
		b.bar.WriteString(" ")
	}
	fmt.Fprintf(&b.bar, "| [%.2f%% | elapsed: %v]",
		float64(b.current)/float64(b.max)*100,
		time.Since(b.start).Truncate(time.Second))
	if b.suffix != "" {
		fmt.Fprintf(&b.bar, " %v", b.suffix)
	}

	if b.rendered {
		fmt.Printf("\r\033[K%v", b.bar.String())
	} else {
		fmt.Print(b.bar.String())
		b.rendered = true
	}
}

// Finish completes the bar and moves the cursor to the next line
func (b *Bar) Finish() {
	b.current = b.max
	b.Display()
	fmt.Println()
}
