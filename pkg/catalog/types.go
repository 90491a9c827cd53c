package catalog

import (
	"time"

	"unitytk/protokit/pkg/config"
	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/parser"
)

// LoaderConfig contains configuration for reading prototype documents from disk.
type LoaderConfig struct {
	// Extensions lists the file extensions treated as documents (default: ".xml").
	Extensions []string

	// MaxFileSize is the largest document read, in bytes (default: 16MB).
	MaxFileSize int64

	// IncludeHidden loads dot-files and descends into dot-directories.
	IncludeHidden bool

	// FollowSymlinks follows symbolic links to documents.
	FollowSymlinks bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Extensions:  []string{config.DefaultContentExtension},
		MaxFileSize: config.DefaultMaxFileSize,
	}
}

// LoaderConfigFrom derives a loader configuration from the content section.
func LoaderConfigFrom(cfg *config.ContentConfig) *LoaderConfig {
	lc := DefaultLoaderConfig()
	if len(cfg.Extensions) > 0 {
		lc.Extensions = cfg.Extensions
	}
	if cfg.MaxFileSize > 0 {
		lc.MaxFileSize = cfg.MaxFileSize
	}
	lc.IncludeHidden = cfg.IncludeHidden
	lc.FollowSymlinks = cfg.FollowSymlinks
	return lc
}

// Document is one prototype document read from disk.
type Document struct {
	// Path is the file system path the document was read from.
	Path string

	// Name is Path relative to the content root, slash separated. It is the
	// source name attached to every diagnostic.
	Name string

	Data    []byte
	ModTime time.Time
}

// Trigger names what started a load.
type Trigger string

const (
	TriggerInitial  Trigger = "initial"
	TriggerReload   Trigger = "reload"
	TriggerWatch    Trigger = "watch"
	TriggerSchedule Trigger = "schedule"
)

// DocumentResult is the outcome of parsing one document during a load.
type DocumentResult struct {
	Name   string
	Result *parser.Result // nil when Err is set
	Err    error          // fatal: the document could not be read or parsed at all
}

// LoadResult summarizes one catalog load.
type LoadResult struct {
	// RunID identifies this load in logs and snapshots.
	RunID   string
	Trigger Trigger
	Root    string

	// Documents holds one entry per document, in load order.
	Documents []DocumentResult

	// Diagnostics and Warnings merge the per-document lists.
	Diagnostics *protoErrors.ErrorList
	Warnings    *protoErrors.ErrorList

	// Fatal lists load, order and malformed-document errors. Any fatal error
	// keeps the previous catalog in place.
	Fatal []error

	// Cycles lists documents that inherit from each other in a loop. Their
	// prototypes surface as unresolved_inheritance diagnostics.
	Cycles []*OrderError

	// Applied reports whether the new catalog replaced the previous one.
	Applied bool

	Version   string
	Instances int
	StartedAt time.Time
	Duration  time.Duration
}

// HasFatal reports whether the load hit a document-level failure.
func (r *LoadResult) HasFatal() bool {
	return len(r.Fatal) > 0
}

// DiagnosticCounts counts errors and warnings by kind.
func (r *LoadResult) DiagnosticCounts() map[string]int {
	return countKinds(r.Diagnostics, r.Warnings)
}

func countKinds(lists ...*protoErrors.ErrorList) map[string]int {
	counts := make(map[string]int)
	for _, l := range lists {
		for kind, n := range l.CountByKind() {
			counts[string(kind)] += n
		}
	}
	return counts
}

// Recorder receives load and parse measurements. The metrics collector implements it.
type Recorder interface {
	RecordParse(source string, instances int, diagnostics map[string]int, duration time.Duration, fatal bool)
	RecordLoad(trigger string, documents, instances int, duration time.Duration, applied bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordParse(string, int, map[string]int, time.Duration, bool) {}
func (nopRecorder) RecordLoad(string, int, int, time.Duration, bool) {}
