package monitoring

import (
	"fmt"
	"log"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(log.Printf)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("cycle %d", 7)
	if got != "cycle 7" {
		t.Errorf("Logf output = %q, want %q", got, "cycle 7")
	}

	SetLogger(nil)
	got = ""
	Logf("muted")
	if got != "" {
		t.Errorf("nil logger should mute output, got %q", got)
	}
}

func TestWriter(t *testing.T) {
	defer SetLogger(log.Printf)

	var lines []string
	w := Writer()
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	// A standard logger writes one line per call, newline terminated.
	l := log.New(w, "[planner] ", 0)
	l.Printf("budget %s exceeded", "40ms")

	if len(lines) != 1 || lines[0] != "[planner] budget 40ms exceeded" {
		t.Errorf("forwarded lines = %q", lines)
	}
}
