package worker

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress tracks and draws a single-line progress bar for a pyramid run.
type Progress struct {
	startTime time.Time
	output    io.Writer // nil disables drawing
	total     int
	completed int
	failed    int
	skipped   int
	mu        sync.RWMutex
}

// NewProgress creates a new progress tracker. Pass a nil writer to track
// counts without drawing.
func NewProgress(total int, output io.Writer) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    output,
	}
}

// Update records the completion of a task.
func (p *Progress) Update(completed, total, failed, skipped int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.skipped = skipped
	p.mu.Unlock()

	if p.output != nil {
		fmt.Fprint(p.output, "\r"+p.Line())
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Line renders the current state without the carriage return.
func (p *Progress) Line() string {
	p.mu.RLock()
	completed, total := p.completed, p.total
	failed, skipped := p.failed, p.skipped
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var rate float64
	var eta time.Duration
	if completed > 0 && elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		eta = time.Duration(float64(total-completed) / rate * float64(time.Second))
	}

	filled := 0
	if total > 0 {
		filled = min(barWidth, completed*barWidth/total)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s%s] %d/%d tiles",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), completed, total)
	if skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", skipped)
	}
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	fmt.Fprintf(&b, " - %.1f tiles/sec", rate)
	switch {
	case completed >= total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case eta > 0:
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	// Pad to clear previous line content
	b.WriteString("          ")
	return b.String()
}

// Done terminates the progress line.
func (p *Progress) Done() {
	if p.output != nil {
		fmt.Fprintln(p.output)
	}
}

// Summary returns a summary string of the completed work.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed, total := p.completed, p.total
	failed, skipped := p.failed, p.skipped
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	return fmt.Sprintf("Rendered %d/%d tiles (%d skipped, %d failed) in %s (%.1f tiles/sec)",
		completed-failed-skipped, total, skipped, failed, formatDuration(elapsed), rate)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, mins)
}
