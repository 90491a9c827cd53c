package metrics

import (
	"sync"
	"time"

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxSources bounds the number of distinct document labels.
const DefaultMaxSources = 1000

// OtherSource replaces document names once the source cardinality limit is reached.
const OtherSource = "other"

// Collector owns every protokit Prometheus metric. It implements catalog.Recorder,
// so a Manager reports parse and load measurements to it directly.
//
// Label cardinality is bounded: document names beyond DefaultMaxSources are
// aggregated under the "other" source label.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	parseMetrics   *ParseMetrics
	catalogMetrics *CatalogMetrics

	cardinalityLimiter *CardinalityLimiter
}

var _ catalog.Recorder = (*Collector)(nil)

// NewCollector creates a collector registering its metrics with registry. A nil
// registry gets a fresh one.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	manager.WithRecorder(collector).OnLoad(collector.CatalogHook())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsPrefix
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		parseMetrics:       NewParseMetrics(cfg, registry),
		catalogMetrics:     NewCatalogMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxSources),
	}
}

// RecordParse records one document parse.
//
// Parameters:
//   - source: document name relative to the content root
//   - instances: prototypes built from the document
//   - diagnostics: error and warning counts keyed by kind
//   - duration: parse duration
//   - fatal: the document could not be parsed at all
func (c *Collector) RecordParse(source string, instances int, diagnostics map[string]int, duration time.Duration, fatal bool) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(source) {
		source = OtherSource
	}

	c.parseMetrics.RecordParse(source, instances, diagnostics, duration, fatal)
}

// RecordLoad records one catalog load.
//
// Parameters:
//   - trigger: what started the load ("initial", "reload", "watch", "schedule")
//   - documents: documents read
//   - instances: prototypes built
//   - duration: total load duration
//   - applied: the load replaced the live catalog
func (c *Collector) RecordLoad(trigger string, documents, instances int, duration time.Duration, applied bool) {
	if !c.config.Enabled {
		return
	}

	c.catalogMetrics.RecordLoad(trigger, documents, instances, duration, applied)
}

// UpdateCatalog publishes the shape of the live catalog.
func (c *Collector) UpdateCatalog(stats catalog.Stats) {
	if !c.config.Enabled {
		return
	}

	c.catalogMetrics.Update(stats)
}

// CatalogHook returns a load hook that keeps the catalog gauges current.
func (c *Collector) CatalogHook() catalog.LoadHook {
	return func(_ *catalog.LoadResult, cat *catalog.Catalog) error {
		c.UpdateCatalog(cat.Stats())
		return nil
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label. Known values are always
// allowed; new values only while the limit has not been reached.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
