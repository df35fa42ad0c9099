// Package progress renders the compile scheduler's "[completed/total]"
// status line, adapted from the teacher's byte-count download progress
// bar to a task-count one.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// Counter tracks completed and failed task counts against a known total
// and renders a throbbing single-line status to W.
type Counter struct {
	Total     int64
	Indent    int
	W         io.Writer
	completed atomic.Int64
	failed    atomic.Int64
	start     time.Time
	lastPrint atomic.Int64 // unix nano of last render, for throttling
}

var throbbers = []rune{'|', '/', '-', '\\'}

func NewCounter(total int64, indent int, w io.Writer) *Counter {
	return &Counter{Total: total, Indent: indent, W: w, start: time.Now()}
}

// Advance records one task's completion (success or failure) and
// re-renders the status line, throttled to avoid flooding the terminal.
func (c *Counter) Advance(ok bool) {
	completed := c.completed.Add(1)
	if !ok {
		c.failed.Add(1)
	}

	now := time.Now().UnixNano()
	last := c.lastPrint.Load()
	if now-last < int64(40*time.Millisecond) && completed != c.Total {
		return
	}
	c.lastPrint.Store(now)
	c.render(completed, false)
}

func (c *Counter) render(completed int64, finish bool) {
	throb := throbbers[completed%int64(len(throbbers))]
	if finish {
		throb = ' '
	}

	failed := c.failed.Load()
	status := fmt.Sprintf("[%d/%d]", completed, c.Total)
	if failed > 0 {
		status += fmt.Sprintf(" (%d failed)", failed)
	}

	fmt.Fprintf(c.W, "\r%s%s %c", strings.Repeat(" ", c.Indent), status, throb)
}

// Finish prints the final state and a trailing newline.
func (c *Counter) Finish() {
	c.render(c.completed.Load(), true)
	fmt.Fprintln(c.W)
}
