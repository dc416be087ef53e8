// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements progress bar functionality that must be
// manually managed. That is, Display must be called whenever an
// updated progress bar should be printed.
//
// ProgressBar does not use concurrency and is not safe for concurrent
// use.
type ProgressBar struct {
	out             io.Writer
	width           int
	maxProgress     int
	currentProgress int
	label           string
	bar             strings.Builder
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide, writes
// to out, and reaches 100% after max calls to Increment
func New(out io.Writer, width, max int) *ProgressBar {
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		out:         out,
		width:       width,
		maxProgress: max,
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// SetLabel sets a short text displayed after the bar
func (p *ProgressBar) SetLabel(label string) {
	p.label = label
}

// Progress returns the fraction of work done, in [0, 1]
func (p *ProgressBar) Progress() float64 {
	return float64(p.currentProgress) / float64(p.maxProgress)
}

// String returns the current bar without terminal control sequences
func (p *ProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := int(p.Progress() * float64(p.width))
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", p.width-filled))

	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]", p.Progress()*100,
		time.Since(p.startTime).Truncate(time.Second))
	if p.label != "" {
		fmt.Fprintf(&p.bar, " %v", p.label)
	}
	return p.bar.String()
}

// Display redraws the progress bar over the current terminal line
func (p *ProgressBar) Display() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// Finish displays the bar one last time and moves to the next line
func (p *ProgressBar) Finish() {
	p.Display()
	fmt.Fprintln(p.out)
}
