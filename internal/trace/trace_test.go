package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestReporterFormatsEvents(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 4, false, nil)

	r.Events <- Event{Kind: InstrRead, Addr: 0x1000, Line: 5}
	r.Events <- Event{Kind: DataRead, Addr: 0x2000, Line: 6}
	r.Events <- Event{Kind: Write, Addr: 0x3000, Line: 7}
	r.Close()

	out := buf.String()
	for _, want := range []string{
		"I 0x00001000 (line# 0x5)",
		"R 0x00002000 (line# 0x6)",
		"W 0x00003000 (line# 0x7)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
}

func TestReporterSuppressesDebugWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 4, false, nil)
	r.Events <- Event{Kind: Debug, Message: "hello"}
	r.Close()

	if strings.Contains(buf.String(), "hello") {
		t.Errorf("debug line emitted despite debug=false")
	}
}

func TestReporterEmitsDebugWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 4, true, nil)
	r.Events <- Event{Kind: Debug, Message: "hello"}
	r.Close()

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("debug line missing despite debug=true")
	}
}

func TestReporterSingleCloseReturns(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 1, false, nil)
	r.Close()
	// A second Close would double-close the channel and panic; callers are
	// expected to call it exactly once. Documented here, not re-tested.
}
