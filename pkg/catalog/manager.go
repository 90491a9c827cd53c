package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"unitytk/protokit/pkg/config"
	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/parser"
	"unitytk/protokit/pkg/telemetry/tracing"
)

// LoadHook runs after a load replaced the catalog. Hook errors are logged and do
// not undo the load.
type LoadHook func(result *LoadResult, catalog *Catalog) error

// Source provides the content directory from somewhere other than the local
// file system. Sync runs before every load; a failed Sync fails the load.
type Source interface {
	Sync(ctx context.Context) error
	Root() string
}

// Manager coordinates document loading, ordering, parsing and hot reload for one
// content directory. Loads are serialized; readers use the live Catalog.
type Manager struct {
	config   *config.Config
	loader   *Loader
	parser   *parser.Parser
	catalog  *Catalog
	recorder Recorder
	tracer   trace.Tracer
	source   Source
	logger   *slog.Logger
	hooks    []LoadHook

	// Serializes loads.
	loadMu sync.Mutex

	mu           sync.RWMutex
	lastResult   *LoadResult
	lastLoadTime time.Time
	lastErr      error
	applied      bool

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

// NewManager creates a manager for cfg.Content.Path. The parser must have a
// registry with serializers registered.
func NewManager(cfg *config.Config, p *parser.Parser, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if p == nil {
		return nil, errors.New("parser cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config:   cfg,
		loader:   NewLoader(LoaderConfigFrom(&cfg.Content)),
		parser:   p,
		catalog:  New(),
		recorder: nopRecorder{},
		tracer:   noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		logger:   logger.With("component", "catalog"),
	}, nil
}

// WithRecorder sets the measurement sink.
func (m *Manager) WithRecorder(r Recorder) *Manager {
	if r != nil {
		m.recorder = r
	}
	return m
}

// WithTracer sets the tracer used for load and parse spans.
func (m *Manager) WithTracer(t trace.Tracer) *Manager {
	if t != nil {
		m.tracer = t
	}
	return m
}

// WithSource makes every load sync src first and read documents from src.Root().
func (m *Manager) WithSource(src Source) *Manager {
	m.source = src
	return m
}

// Root returns the directory or file documents are loaded from.
func (m *Manager) Root() string {
	if m.source != nil {
		return m.source.Root()
	}
	return m.config.Content.Path
}

// OnLoad registers a hook run after every applied load.
func (m *Manager) OnLoad(hook LoadHook) *Manager {
	m.hooks = append(m.hooks, hook)
	return m
}

// Load reads, orders and parses every document and replaces the catalog.
// Descriptor-level diagnostics are reported in the result without failing the
// load. If any document cannot be read or parsed at all, the previous catalog is
// kept and an error is returned along with the result.
func (m *Manager) Load() (*LoadResult, error) {
	return m.load(TriggerInitial, true)
}

// Reload is Load started by something other than program start.
func (m *Manager) Reload() (*LoadResult, error) {
	return m.load(TriggerReload, true)
}

// Check runs a full load without touching the live catalog.
func (m *Manager) Check() (*LoadResult, error) {
	return m.load(TriggerInitial, false)
}

func (m *Manager) load(trigger Trigger, apply bool) (*LoadResult, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	root := m.Root()
	res := &LoadResult{
		RunID:       uuid.NewString(),
		Trigger:     trigger,
		Root:        root,
		Diagnostics: protoErrors.NewErrorList(),
		Warnings:    protoErrors.NewErrorList(),
		StartedAt:   time.Now(),
	}
	logger := m.logger.With("run_id", res.RunID)
	logger.Info("Loading catalog", "path", root, "trigger", string(trigger))

	ctx, span := m.tracer.Start(context.Background(), tracing.SpanCatalogLoad, trace.WithAttributes(
		tracing.AttrRunID.String(res.RunID),
		tracing.AttrTrigger.String(string(trigger)),
		tracing.AttrRoot.String(root),
	))
	defer span.End()

	staging, documents := m.build(ctx, res, logger)

	res.Instances = staging.Count()
	res.Version = staging.Version()
	res.Duration = time.Since(res.StartedAt)

	var err error
	switch {
	case res.HasFatal():
		err = fmt.Errorf("catalog load failed, keeping previous catalog: %w", errors.Join(res.Fatal...))
		logger.Error("Failed to load catalog, keeping previous catalog",
			"error", err,
			"fatal", len(res.Fatal),
			"duration_ms", res.Duration.Milliseconds(),
		)
	case apply:
		m.catalog.Replace(staging)
		res.Applied = true
		logger.Info("Catalog loaded",
			"documents", documents,
			"instances", res.Instances,
			"errors", res.Diagnostics.Count(),
			"warnings", res.Warnings.Count(),
			"version", res.Version,
			"duration_ms", res.Duration.Milliseconds(),
		)
	default:
		logger.Info("Catalog checked",
			"documents", documents,
			"instances", res.Instances,
			"errors", res.Diagnostics.Count(),
			"warnings", res.Warnings.Count(),
			"duration_ms", res.Duration.Milliseconds(),
		)
	}

	m.recorder.RecordLoad(string(trigger), documents, res.Instances, res.Duration, res.Applied)
	span.SetAttributes(tracing.LoadAttributes(documents, res.Instances, res.Diagnostics.Count(), res.Warnings.Count(), res.Applied, res.Version)...)
	tracing.SetStatus(span, err)

	if apply {
		m.mu.Lock()
		m.lastResult = res
		m.lastErr = err
		if res.Applied {
			m.lastLoadTime = time.Now()
			m.applied = true
		}
		m.mu.Unlock()
	}

	if res.Applied {
		for _, hook := range m.hooks {
			if herr := hook(res, m.catalog); herr != nil {
				logger.Error("Load hook failed", "error", herr)
			}
		}
	}

	return res, err
}

// build parses every document into a staging catalog, returning it and the number
// of documents read.
func (m *Manager) build(ctx context.Context, res *LoadResult, logger *slog.Logger) (*Catalog, int) {
	staging := New()

	if m.source != nil {
		if err := m.source.Sync(ctx); err != nil {
			res.Fatal = append(res.Fatal, &LoadError{Path: res.Root, Message: "failed to sync content source", Cause: err})
			return staging, 0
		}
	}

	docs, failures, err := m.loader.Load(res.Root)
	if err != nil {
		res.Fatal = append(res.Fatal, err)
		return staging, 0
	}
	for _, f := range failures {
		logger.Warn("Skipping unreadable document", "error", f)
	}
	res.Fatal = append(res.Fatal, failures...)
	if len(docs) == 0 {
		logger.Warn("No prototype documents found", "path", res.Root)
	}

	ordered, cycles := Order(docs)
	res.Cycles = cycles
	for _, c := range cycles {
		logger.Warn("Documents inherit from each other in a cycle", "cycle", strings.Join(c.Cycle, " -> "))
	}

	params := parser.Parameters{
		StandardNamespace: m.config.Parser.StandardNamespace,
		Linker:            staging,
		IncludeContext:    m.config.Parser.IncludeContext,
	}

	for _, doc := range ordered {
		_, span := m.tracer.Start(ctx, tracing.SpanDocumentParse, trace.WithAttributes(tracing.AttrSource.String(doc.Name)))
		result, err := m.parser.Parse(doc.Data, doc.Name, params)
		tracing.SetStatus(span, err)
		if err != nil {
			span.End()
			derr := &DocumentError{Name: doc.Name, Cause: err}
			res.Fatal = append(res.Fatal, derr)
			res.Documents = append(res.Documents, DocumentResult{Name: doc.Name, Err: derr})
			var pe *protoErrors.Error
			if errors.As(err, &pe) {
				res.Diagnostics.Add(pe)
			}
			m.recorder.RecordParse(doc.Name, 0, map[string]int{string(protoErrors.KindMalformedDocument): 1}, 0, true)
			continue
		}

		staging.Add(result, doc.Data)
		res.Documents = append(res.Documents, DocumentResult{Name: doc.Name, Result: result})
		res.Diagnostics.Merge(result.Errors)
		res.Warnings.Merge(result.Warnings)

		m.recorder.RecordParse(doc.Name, result.Len(), countKinds(result.Errors, result.Warnings), result.Duration, false)
		span.SetAttributes(tracing.ParseAttributes(result.Len(), result.Errors.Count(), result.Warnings.Count())...)
		span.End()
	}

	return staging, len(docs)
}

// Catalog returns the live catalog. Its contents change on every applied load.
func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// Get retrieves a single entry by identifier.
func (m *Manager) Get(id string) (*Entry, error) {
	e, ok := m.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("prototype %q not found", id)
	}
	return e, nil
}

// All returns every entry in load order.
func (m *Manager) All() []*Entry {
	return m.catalog.All()
}

// Version returns the version of the live catalog.
func (m *Manager) Version() string {
	return m.catalog.Version()
}

// LastResult returns the result of the most recent Load or Reload, nil before the first.
func (m *Manager) LastResult() *LoadResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastResult
}

// LastLoadTime returns when the catalog was last replaced.
func (m *Manager) LastLoadTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadTime
}

// LastError returns the error of the most recent Load or Reload.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Ready reports whether a load has been applied at least once.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}

// Watch reloads the catalog on file changes (watch.enabled) and on the rescan
// schedule (watch.rescan_schedule). It blocks until ctx is cancelled or Close is called.
func (m *Manager) Watch(ctx context.Context) error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return errors.New("watch already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchMu.Unlock()

	defer func() {
		m.watchMu.Lock()
		m.watchCancel = nil
		m.watchMu.Unlock()
		cancel()
	}()

	wc := m.config.Watch
	if !wc.Enabled && wc.RescanSchedule == "" {
		return errors.New("content watching is not enabled in configuration")
	}

	if wc.RescanSchedule != "" {
		scheduler := NewScheduler(wc.RescanSchedule, func(context.Context) error {
			_, err := m.load(TriggerSchedule, true)
			return err
		}, m.logger)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	if wc.Enabled {
		watcher, err := NewFileWatcher(WatcherConfig{
			Path:          m.Root(),
			Debounce:      wc.Debounce.Duration,
			Extensions:    m.config.Content.Extensions,
			IncludeHidden: m.config.Content.IncludeHidden,
		}, m.logger)
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				m.logger.Error("Failed to stop file watcher", "error", err)
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			errCh <- watcher.Watch(ctx, func() error {
				_, err := m.load(TriggerWatch, true)
				return err
			})
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return err
			}
		}
		return nil
	}

	<-ctx.Done()
	return nil
}

// Close stops any active watch.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchMu.Unlock()

	m.logger.Info("Catalog manager closed")
	return nil
}
