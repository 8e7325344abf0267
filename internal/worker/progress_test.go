package worker

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgress_Update(t *testing.T) {
	p := NewProgress(10, nil)

	p.Update(5, 10, 0, 2)

	if p.completed != 5 {
		t.Errorf("Expected completed=5, got %d", p.completed)
	}
	if p.total != 10 {
		t.Errorf("Expected total=10, got %d", p.total)
	}
	if p.skipped != 2 {
		t.Errorf("Expected skipped=2, got %d", p.skipped)
	}
}

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, &buf)
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(5, 10, 1, 2)

	output := buf.String()
	for _, want := range []string{"\r[", "█", "5/10 tiles", "(2 skipped)", "(1 failed)", "tiles/sec", "ETA:"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestProgress_Finished(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(3, &buf)
	p.startTime = time.Now().Add(-3 * time.Second)

	p.Update(3, 3, 0, 0)
	if !strings.Contains(buf.String(), "Done in") {
		t.Errorf("Expected 'Done in' in output, got: %s", buf.String())
	}
	if strings.Contains(buf.String(), "ETA") {
		t.Errorf("Finished line should not carry an ETA: %s", buf.String())
	}

	buf.Reset()
	p.Done()
	if buf.String() != "\n" {
		t.Errorf("Done() wrote %q", buf.String())
	}
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(10, nil)
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(10, 10, 2, 3)

	summary := p.Summary()
	for _, want := range []string{"5/10 tiles", "3 skipped", "2 failed"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected %q in summary, got: %s", want, summary)
		}
	}
}

func TestProgress_ZeroTotal(t *testing.T) {
	p := NewProgress(0, nil)
	if !strings.Contains(p.Line(), "0/0 tiles") {
		t.Errorf("unexpected line %q", p.Line())
	}
}

func TestProgress_Callback(t *testing.T) {
	p := NewProgress(10, nil)

	p.Callback()(5, 10, 1, 0)

	if p.completed != 5 {
		t.Errorf("Expected completed=5, got %d", p.completed)
	}
	if p.failed != 1 {
		t.Errorf("Expected failed=1, got %d", p.failed)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		expected string
		duration time.Duration
	}{
		{duration: 30 * time.Second, expected: "30s"},
		{duration: 90 * time.Second, expected: "1m30s"},
		{duration: 5 * time.Minute, expected: "5m0s"},
		{duration: 65 * time.Minute, expected: "1h5m"},
		{duration: 2*time.Hour + 30*time.Minute, expected: "2h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("formatDuration(%v) = %s, want %s", tt.duration, result, tt.expected)
			}
		})
	}
}
