// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// NewManualProgressBar returns a new ManualProgressBar which prints
// to out and reaches 100% after max calls to Increment
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	if max < 1 {
		max = 1
	}
	return &ManualProgressBar{
		out:             out,
		width:           float64(width),
		maxProgress:     float64(max),
		currentProgress: 0,
		startTime:       time.Now(),
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Progress returns the fraction of the progress bar that is filled
func (p *ManualProgressBar) Progress() float64 {
	return p.currentProgress / p.maxProgress
}

// String returns the progress bar without any terminal control
// sequences
func (p *ManualProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.Progress() * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	p.bar.WriteString(fmt.Sprintf("| [%.2f%v | elapsed: %v]",
		p.Progress()*100, "%",
		time.Since(p.startTime).Truncate(time.Second)))

	return p.bar.String()
}

// Display overwrites the current terminal line with the progress bar
func (p *ManualProgressBar) Display() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// Clear erases the progress bar from the current terminal line
func (p *ManualProgressBar) Clear() {
	fmt.Fprint(p.out, "\r\033[K")
}
