package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker shows progress through a batch of tables.
type Tracker struct {
	bar       *progressbar.ProgressBar
	out       io.Writer
	total     int64
	current   atomic.Int64
	failed    atomic.Int64
	startTime time.Time
}

// New creates a tracker writing to out. A nil out disables output.
func New(out io.Writer) *Tracker {
	if out == nil {
		out = io.Discard
	}
	return &Tracker{
		out:       out,
		startTime: time.Now(),
	}
}

// SetTotal sets the number of tables to profile
func (t *Tracker) SetTotal(total int64) {
	t.total = total
	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription("Profiling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("tables"),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Describe shows the table currently being profiled.
func (t *Tracker) Describe(table string) {
	if t.bar != nil {
		t.bar.Describe("Profiling " + table)
	}
}

// Done records one finished table.
func (t *Tracker) Done(failed bool) {
	t.current.Add(1)
	if failed {
		t.failed.Add(1)
	}
	if t.bar != nil {
		t.bar.Add64(1)
	}
}

// Current returns the number of finished tables
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Failed returns the number of failed tables
func (t *Tracker) Failed() int64 {
	return t.failed.Load()
}

// Finish marks the progress as complete
func (t *Tracker) Finish() {
	if t.bar != nil {
		t.bar.Finish()
	}

	elapsed := time.Since(t.startTime)
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "Profiled %d tables in %s (%d failed)\n",
		t.current.Load(), elapsed.Round(time.Millisecond), t.failed.Load())
}
