package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"unitytk/protokit/pkg/catalog"
)

// Progress prints one line per parsed document and one per finished load. It
// implements catalog.Recorder, so it can be passed to Manager.WithRecorder in
// place of (or next to) the metrics collector.
type Progress struct {
	mu        sync.Mutex
	writer    io.Writer
	documents int
}

var _ catalog.Recorder = (*Progress)(nil)

// NewProgress creates a progress printer that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = os.Stderr
	}
	return &Progress{writer: w}
}

// RecordParse prints the outcome of one document.
func (p *Progress) RecordParse(source string, instances int, diagnostics map[string]int, duration time.Duration, fatal bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.documents++
	problems := 0
	for _, n := range diagnostics {
		problems += n
	}

	switch {
	case fatal:
		fmt.Fprintf(p.writer, "✗ %s: unreadable\n", source)
	case problems > 0:
		fmt.Fprintf(p.writer, "⚠  %s: %d prototype(s), %d problem(s) (%s)\n", source, instances, problems, roundDuration(duration))
	default:
		fmt.Fprintf(p.writer, "✓ %s: %d prototype(s) (%s)\n", source, instances, roundDuration(duration))
	}
}

// RecordLoad prints the load summary line.
func (p *Progress) RecordLoad(trigger string, documents, instances int, duration time.Duration, applied bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := "applied"
	if !applied {
		state = "not applied"
	}
	fmt.Fprintf(p.writer, "%s load: %d document(s), %d prototype(s), %s in %s\n",
		trigger, documents, instances, state, roundDuration(duration))
	p.documents = 0
}

// Documents returns how many documents were reported since the last load summary.
func (p *Progress) Documents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.documents
}

// MultiRecorder fans measurements out to several recorders.
type MultiRecorder []catalog.Recorder

var _ catalog.Recorder = MultiRecorder(nil)

// RecordParse implements catalog.Recorder.
func (m MultiRecorder) RecordParse(source string, instances int, diagnostics map[string]int, duration time.Duration, fatal bool) {
	for _, r := range m {
		r.RecordParse(source, instances, diagnostics, duration, fatal)
	}
}

// RecordLoad implements catalog.Recorder.
func (m MultiRecorder) RecordLoad(trigger string, documents, instances int, duration time.Duration, applied bool) {
	for _, r := range m {
		r.RecordLoad(trigger, documents, instances, duration, applied)
	}
}

func roundDuration(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return d.Round(time.Microsecond)
	}
	return d.Round(time.Millisecond)
}
