package catalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"unitytk/protokit/pkg/config"
	"unitytk/protokit/pkg/content"
	"unitytk/protokit/pkg/prototype/parser"
)

const baseDocument = `<?xml version="1.0"?>
<PrototypeContainer Type="Weapon">
  <Prototype Id="BaseSword" Abstract="true">
    <name>Sword</name>
    <damage>10</damage>
  </Prototype>
  <Prototype Id="Arrow" Type="Item">
    <name>Arrow</name>
  </Prototype>
</PrototypeContainer>
`

// Sorts before base.xml, so it only loads correctly if ordering works.
const swordsDocument = `<?xml version="1.0"?>
<PrototypeContainer Type="Weapon">
  <Prototype Id="IronSword" Inherits="BaseSword">
    <damage>12</damage>
  </Prototype>
  <Prototype Id="Bow">
    <name>Bow</name>
    <damage>4</damage>
    <ammo>Arrow</ammo>
  </Prototype>
</PrototypeContainer>
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Content.Path = dir
	cfg.Parser.StandardNamespace = content.Namespace
	return cfg
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	p := parser.NewParser(content.Universe()).WithLogger(discardLogger())
	m, err := NewManager(cfg, p, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

type parseCall struct {
	source      string
	instances   int
	diagnostics map[string]int
	fatal       bool
}

type loadCall struct {
	trigger   string
	documents int
	instances int
	applied   bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	parses []parseCall
	loads  []loadCall
}

func (r *fakeRecorder) RecordParse(source string, instances int, diagnostics map[string]int, _ time.Duration, fatal bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parses = append(r.parses, parseCall{source, instances, diagnostics, fatal})
}

func (r *fakeRecorder) RecordLoad(trigger string, documents, instances int, _ time.Duration, applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, loadCall{trigger, documents, instances, applied})
}
