package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/config"
	"unitytk/protokit/pkg/content"
	"unitytk/protokit/pkg/prototype/parser"
)

const weaponsDocument = `<?xml version="1.0"?>
<PrototypeContainer Type="Weapon">
  <Prototype Id="Arrow" Type="Item">
    <name>Arrow</name>
  </Prototype>
  <Prototype Id="Bow">
    <name>Bow</name>
    <damage>4</damage>
    <ammo>Arrow</ammo>
  </Prototype>
  <Prototype Id="Stick">
    <name>Stick</name>
  </Prototype>
</PrototypeContainer>
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, retain int) *Store {
	t.Helper()
	cfg := &config.SnapshotConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "nested", "snap.db"),
		Retain:  retain,
	}
	s, err := Open(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loadCatalog(t *testing.T, document string) (*catalog.LoadResult, *catalog.Catalog) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "weapons.xml"), []byte(document), 0o644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}

	cfg := config.Default()
	cfg.Content.Path = dir
	cfg.Parser.StandardNamespace = content.Namespace

	m, err := catalog.NewManager(cfg, parser.NewParser(content.Universe()).WithLogger(discardLogger()), discardLogger())
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	res, err := m.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return res, m.Catalog()
}

func TestStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)
	res, cat := loadCatalog(t, weaponsDocument)

	if err := s.Save(ctx, res, cat); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	run, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() failed: %v", err)
	}
	if run.ID != res.RunID || run.Version != cat.Version() || !run.Applied {
		t.Errorf("Latest() = %+v", run)
	}
	if run.Instances != 2 || run.Documents != 1 || run.Errors != 1 || run.Warnings != 0 {
		t.Errorf("run counts = %+v, want 2 instances, 1 document, 1 error", run)
	}
	if run.Trigger != string(catalog.TriggerInitial) {
		t.Errorf("Trigger = %q, want %q", run.Trigger, catalog.TriggerInitial)
	}

	protos, err := s.Prototypes(ctx, "")
	if err != nil {
		t.Fatalf("Prototypes() failed: %v", err)
	}
	if len(protos) != 2 || protos[0].ID != "Arrow" || protos[1].ID != "Bow" {
		t.Fatalf("Prototypes() = %+v, want Arrow, Bow", protos)
	}

	bow, err := s.Get(ctx, res.RunID, "Bow")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if bow.Type != "Game.Weapon" || bow.Source != "weapons.xml" {
		t.Errorf("Get(Bow) = %+v", bow)
	}
	var payload struct {
		ID     string `json:"id"`
		Damage int    `json:"damage"`
		Ammo   string `json:"ammo"`
	}
	if err := json.Unmarshal(bow.Payload, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.ID != "Bow" || payload.Damage != 4 || payload.Ammo != "Arrow" {
		t.Errorf("payload = %+v", payload)
	}

	diags, err := s.Diagnostics(ctx, res.RunID)
	if err != nil {
		t.Fatalf("Diagnostics() failed: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("Diagnostics() = %+v, want 1", diags)
	}
	if d := diags[0]; d.Kind != "missing_field" || d.PrototypeID != "Stick" || d.Severity != "error" || d.Line == 0 {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)

	if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "", "Bow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}
	if _, err := s.Run(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}

	res, cat := loadCatalog(t, weaponsDocument)
	if err := s.Save(ctx, res, cat); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := s.Get(ctx, "", "Stick"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(Stick) error = %v, want ErrNotFound", err)
	}
}

func TestStore_SaveValidation(t *testing.T) {
	s := openStore(t, 0)
	if err := s.Save(context.Background(), nil, nil); err == nil {
		t.Error("Save(nil) should fail")
	}
	if err := s.Save(context.Background(), &catalog.LoadResult{}, nil); err == nil {
		t.Error("Save() without run id should fail")
	}
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)
	res, cat := loadCatalog(t, weaponsDocument)

	if err := s.Save(ctx, res, cat); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.Save(ctx, res, cat); err == nil {
		t.Fatal("second Save() of the same run should fail")
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("List() = %d runs, want 1", len(runs))
	}
}

func TestStore_ListAndPrune(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)

	var ids []string
	for i := 0; i < 3; i++ {
		res, cat := loadCatalog(t, weaponsDocument)
		if err := s.Save(ctx, res, cat); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
		ids = append(ids, res.RunID)
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("List(2) = %v, want newest first", runs)
	}

	if _, err := s.Prune(ctx, 0); err == nil {
		t.Error("Prune(0) should fail")
	}
	deleted, err := s.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2", deleted)
	}
	if _, err := s.Get(ctx, ids[0], "Bow"); !errors.Is(err, ErrNotFound) {
		t.Errorf("pruned run prototypes should be gone, got %v", err)
	}
	if diags, _ := s.Diagnostics(ctx, ids[0]); len(diags) != 0 {
		t.Errorf("pruned run diagnostics = %v, want none", diags)
	}
}

func TestStore_Retain(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 2)

	for i := 0; i < 4; i++ {
		res, cat := loadCatalog(t, weaponsDocument)
		if err := s.Save(ctx, res, cat); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	runs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("List() = %d runs, want 2", len(runs))
	}
}

func TestStore_Hook(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)
	res, cat := loadCatalog(t, weaponsDocument)

	if err := s.Hook(ctx)(res, cat); err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if run, err := s.Run(ctx, res.RunID); err != nil || run.Instances != 2 {
		t.Errorf("Run() = %+v, %v", run, err)
	}
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	cfg := &config.SnapshotConfig{Path: filepath.Join(t.TempDir(), "snap.db")}

	s, err := Open(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	res, cat := loadCatalog(t, weaponsDocument)
	if err := s.Save(ctx, res, cat); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	s, err = Open(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if run, err := s.Latest(ctx); err != nil || run.ID != res.RunID {
		t.Errorf("Latest() after reopen = %+v, %v", run, err)
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := Open(context.Background(), nil, nil); err == nil {
		t.Error("Open(nil) should fail")
	}
	if _, err := Open(context.Background(), &config.SnapshotConfig{}, nil); err == nil {
		t.Error("Open() without path should fail")
	}
}
