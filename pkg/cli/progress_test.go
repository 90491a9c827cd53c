package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgress_RecordParse(t *testing.T) {
	tests := []struct {
		name        string
		instances   int
		diagnostics map[string]int
		fatal       bool
		want        string
	}{
		{"clean", 3, map[string]int{}, false, "✓ weapons.xml: 3 prototype(s) (2ms)"},
		{"problems", 1, map[string]int{"missing_field": 1, "unknown_field": 2}, false, "⚠  weapons.xml: 1 prototype(s), 3 problem(s) (2ms)"},
		{"fatal", 0, nil, true, "✗ weapons.xml: unreadable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			p := NewProgress(buf)
			p.RecordParse("weapons.xml", tt.instances, tt.diagnostics, 2*time.Millisecond, tt.fatal)

			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
			if p.Documents() != 1 {
				t.Errorf("Documents() = %d, want 1", p.Documents())
			}
		})
	}
}

func TestProgress_RecordLoad(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(buf)
	p.RecordParse("a.xml", 1, nil, time.Millisecond, false)
	p.RecordLoad("reload", 1, 1, 1500*time.Microsecond, false)

	if !strings.Contains(buf.String(), "reload load: 1 document(s), 1 prototype(s), not applied in 2ms") {
		t.Errorf("output = %q", buf.String())
	}
	if p.Documents() != 0 {
		t.Errorf("Documents() = %d after load, want 0", p.Documents())
	}
}

func TestMultiRecorder(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	m := MultiRecorder{NewProgress(a), NewProgress(b)}
	m.RecordParse("a.xml", 1, nil, time.Millisecond, false)
	m.RecordLoad("initial", 1, 1, time.Millisecond, true)

	if a.String() == "" || a.String() != b.String() {
		t.Errorf("recorders saw %q and %q, want the same non-empty output", a.String(), b.String())
	}
}

func TestNewProgress_DefaultWriter(t *testing.T) {
	if p := NewProgress(nil); p.writer == nil {
		t.Error("NewProgress(nil) should default to stderr")
	}
}
