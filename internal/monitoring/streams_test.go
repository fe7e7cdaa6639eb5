package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestStreams(t *testing.T) {
	var s Streams
	s.Opsf("dropped before configuration")
	if s.Tracing() {
		t.Fatal("zero Streams should not trace")
	}

	var ops, diag bytes.Buffer
	s.Set("[loop] ", &ops, &diag, nil)
	s.Opsf("drive failed: %v", "timeout")
	s.Diagf("running at %d Hz", 30)
	s.Tracef("cycle %d", 1)

	if !strings.Contains(ops.String(), "[loop] ") || !strings.HasSuffix(ops.String(), "drive failed: timeout\n") {
		t.Errorf("ops = %q", ops.String())
	}
	if !strings.HasSuffix(diag.String(), "running at 30 Hz\n") {
		t.Errorf("diag = %q", diag.String())
	}
	if s.Tracing() {
		t.Error("nil trace writer should disable tracing")
	}

	var trace bytes.Buffer
	s.Set("[loop] ", nil, nil, &trace)
	s.Opsf("muted")
	s.Tracef("cycle %d", 2)
	if strings.Contains(ops.String(), "muted") {
		t.Error("ops stream should be disabled")
	}
	if !s.Tracing() || !strings.HasSuffix(trace.String(), "cycle 2\n") {
		t.Errorf("trace = %q", trace.String())
	}
}
