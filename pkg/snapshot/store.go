package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/config"
	protoErrors "unitytk/protokit/pkg/prototype/errors"
)

// ErrNotFound is returned when a run or prototype does not exist.
var ErrNotFound = errors.New("snapshot: not found")

// Run describes one stored catalog load.
type Run struct {
	ID        string        `json:"run_id"`
	Trigger   string        `json:"trigger"`
	Root      string        `json:"root"`
	Version   string        `json:"version"`
	Documents int           `json:"documents"`
	Instances int           `json:"instances"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
	Applied   bool          `json:"applied"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	StoredAt  time.Time     `json:"stored_at"`
}

// Prototype is one stored instance. Payload is the instance encoded as JSON.
type Prototype struct {
	RunID   string          `json:"run_id"`
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Source  string          `json:"source"`
	Payload json.RawMessage `json:"payload"`
}

// Diagnostic is one stored parse error or warning.
type Diagnostic struct {
	RunID       string `json:"run_id"`
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Source      string `json:"source,omitempty"`
	PrototypeID string `json:"prototype_id,omitempty"`
	Field       string `json:"field,omitempty"`
	Line        int    `json:"line,omitempty"`
	Column      int    `json:"column,omitempty"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Store persists catalog loads to a SQLite database.
//
// Every Save writes one run row, one row per catalog instance and one row per
// diagnostic inside a single transaction, so a run is either stored completely
// or not at all.
type Store struct {
	db        *sql.DB
	path      string
	retain    int
	logger    *slog.Logger
	mu        sync.Mutex
	closeOnce sync.Once
}

// Open opens (creating if needed) the snapshot database described by cfg.
func Open(ctx context.Context, cfg *config.SnapshotConfig, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("snapshot config cannot be nil")
	}
	if cfg.Path == "" {
		return nil, errors.New("snapshot path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	busyTimeout := cfg.BusyTimeout.Duration
	if busyTimeout <= 0 {
		busyTimeout = config.DefaultSnapshotBusyTimeout
	}
	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = config.DefaultSnapshotMaxOpenConns
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		cfg.Path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		path:   cfg.Path,
		retain: cfg.Retain,
		logger: logger.With("component", "snapshot"),
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Debug("Snapshot store opened", "path", cfg.Path)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save stores a load result and the catalog it produced. cat may be nil, in
// which case only the run and its diagnostics are stored.
func (s *Store) Save(ctx context.Context, res *catalog.LoadResult, cat *catalog.Catalog) error {
	if res == nil {
		return errors.New("load result cannot be nil")
	}
	if res.RunID == "" {
		return errors.New("load result has no run id")
	}

	var entries []*catalog.Entry
	if cat != nil {
		entries = cat.All()
	}

	payloads := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e.Prototype)
		if err != nil {
			return fmt.Errorf("failed to marshal prototype %q: %w", e.ID, err)
		}
		payloads[i] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, trigger, root, version, documents, instances, errors, warnings, applied, started_at, duration_ms, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		string(res.Trigger),
		res.Root,
		res.Version,
		len(res.Documents),
		res.Instances,
		count(res.Diagnostics),
		count(res.Warnings),
		boolToInt(res.Applied),
		res.StartedAt.UnixNano(),
		res.Duration.Milliseconds(),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	protoStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prototypes (run_id, id, type, source, position, payload)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare prototype statement: %w", err)
	}
	defer protoStmt.Close()

	for i, e := range entries {
		typeName := ""
		if e.Type != nil {
			typeName = e.Type.FullName()
		}
		if _, err := protoStmt.ExecContext(ctx, res.RunID, e.ID, typeName, e.Source, i, string(payloads[i])); err != nil {
			return fmt.Errorf("failed to insert prototype %q: %w", e.ID, err)
		}
	}

	diagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics (run_id, seq, kind, severity, source, prototype_id, field, line, col, message, suggestion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare diagnostic statement: %w", err)
	}
	defer diagStmt.Close()

	seq := 0
	for _, list := range []*protoErrors.ErrorList{res.Diagnostics, res.Warnings} {
		if list == nil {
			continue
		}
		for _, d := range list.Errors {
			_, err := diagStmt.ExecContext(ctx, res.RunID, seq,
				string(d.Kind), string(d.Severity), d.Source, d.PrototypeID, d.Field,
				d.Location.Line, d.Location.Column, d.Message, d.Suggestion)
			if err != nil {
				return fmt.Errorf("failed to insert diagnostic: %w", err)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Info("Snapshot stored",
		"run_id", res.RunID,
		"version", res.Version,
		"prototypes", len(entries),
		"diagnostics", seq,
	)

	if s.retain > 0 {
		if _, err := s.prune(ctx, s.retain); err != nil {
			s.logger.Warn("Failed to prune old snapshots", "error", err)
		}
	}
	return nil
}

// Hook returns a catalog load hook that saves every applied load.
func (s *Store) Hook(ctx context.Context) catalog.LoadHook {
	return func(res *catalog.LoadResult, cat *catalog.Catalog) error {
		return s.Save(ctx, res, cat)
	}
}

// Latest returns the most recently stored run.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

// Run returns the stored run with the given id.
func (s *Store) Run(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, trigger, root, version, documents, instances, errors, warnings, applied, started_at, duration_ms, stored_at
		FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return r, nil
}

// List returns stored runs, newest first. limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, trigger, root, version, documents, instances, errors, warnings, applied, started_at, duration_ms, stored_at
		FROM runs ORDER BY stored_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns one prototype of a run. An empty runID means the latest run.
func (s *Store) Get(ctx context.Context, runID, id string) (*Prototype, error) {
	runID, err := s.resolveRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	var (
		p       = Prototype{RunID: runID}
		payload string
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT id, type, source, payload FROM prototypes WHERE run_id = ? AND id = ?`, runID, id).
		Scan(&p.ID, &p.Type, &p.Source, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prototype: %w", err)
	}
	p.Payload = json.RawMessage(payload)
	return &p, nil
}

// Prototypes returns every prototype of a run in load order. An empty runID
// means the latest run.
func (s *Store) Prototypes(ctx context.Context, runID string) ([]Prototype, error) {
	runID, err := s.resolveRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, source, payload FROM prototypes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prototypes: %w", err)
	}
	defer rows.Close()

	var out []Prototype
	for rows.Next() {
		p := Prototype{RunID: runID}
		var payload string
		if err := rows.Scan(&p.ID, &p.Type, &p.Source, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan prototype: %w", err)
		}
		p.Payload = json.RawMessage(payload)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prototypes: %w", err)
	}
	return out, nil
}

// Diagnostics returns the errors then warnings recorded for a run. An empty
// runID means the latest run.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	runID, err := s.resolveRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, severity, source, prototype_id, field, line, col, message, suggestion
		FROM diagnostics WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		d := Diagnostic{RunID: runID}
		if err := rows.Scan(&d.Kind, &d.Severity, &d.Source, &d.PrototypeID, &d.Field,
			&d.Line, &d.Column, &d.Message, &d.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diagnostics: %w", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, errors.New("keep must be at least 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(ctx, keep)
}

// prune must be called with mu held.
func (s *Store) prune(ctx context.Context, keep int) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY stored_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if deleted > 0 {
		s.logger.Debug("Pruned snapshots", "deleted", deleted, "kept", keep)
	}
	return int(deleted), nil
}

// Close releases the database. It is safe to call more than once.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		closeErr = s.db.Close()
	})
	return closeErr
}

func (s *Store) resolveRun(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	r, err := s.Latest(ctx)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r                   Run
		applied             int
		startedAt, storedAt int64
		durationMS          int64
	)
	if err := row.Scan(&r.ID, &r.Trigger, &r.Root, &r.Version, &r.Documents, &r.Instances,
		&r.Errors, &r.Warnings, &applied, &startedAt, &durationMS, &storedAt); err != nil {
		return nil, err
	}
	r.Applied = applied != 0
	r.StartedAt = time.Unix(0, startedAt)
	r.StoredAt = time.Unix(0, storedAt)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return &r, nil
}

func count(l *protoErrors.ErrorList) int {
	if l == nil {
		return 0
	}
	return l.Count()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
