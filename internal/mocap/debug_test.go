package mocap

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &trace})

	Opsf("unresolved role %s", "LeftHip")
	Diagf("bound %d roles", 44)
	Tracef("frame %d", 7)

	if !strings.Contains(ops.String(), "[mocap] ") || !strings.Contains(ops.String(), "unresolved role LeftHip") {
		t.Errorf("ops output = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "bound 44 roles") {
		t.Errorf("diag output = %q", diag.String())
	}
	if !strings.Contains(trace.String(), "frame 7") {
		t.Errorf("trace output = %q", trace.String())
	}
}

func TestNilWriterDisablesStream(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops})

	// Must not panic with the other streams disabled.
	Diagf("should not appear")
	Tracef("should not appear")
	Opsf("visible")

	if strings.Contains(ops.String(), "should not appear") {
		t.Errorf("ops received output from disabled streams: %q", ops.String())
	}
	if !strings.Contains(ops.String(), "visible") {
		t.Errorf("ops output = %q, want to contain 'visible'", ops.String())
	}

	SetLogWriters(LogWriters{})
	ops.Reset()
	Opsf("dropped")
	if ops.Len() != 0 {
		t.Errorf("output after disabling = %q, want empty", ops.String())
	}
}

func TestSharedWriterTagsStreams(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var out bytes.Buffer
	SetLogWriters(LogWriters{Ops: &out, Diag: &out, Trace: &out})
	Opsf("a")
	Diagf("b")
	Tracef("c")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}
	for i, prefix := range []string{"[mocap] ", "[mocap diag] ", "[mocap trace] "} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
}
