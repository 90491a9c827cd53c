package metrics

import (
	"time"

	"unitytk/protokit/pkg/catalog"
	"unitytk/protokit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks catalog loads and the shape of the live catalog.
//
// Metrics:
//   - protokit_catalog_loads_total: Loads by trigger and result
//   - protokit_catalog_load_duration_seconds: Load duration by trigger
//   - protokit_catalog_documents: Documents read by the last load
//   - protokit_catalog_prototypes: Prototypes in the live catalog by type
//   - protokit_catalog_last_load_timestamp_seconds: Unix time of the last applied load
type CatalogMetrics struct {
	loadsTotal   *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	documents    prometheus.Gauge
	prototypes   *prometheus.GaugeVec
	lastLoadTime prometheus.Gauge
}

// NewCatalogMetrics creates and registers catalog metrics with the provided registry.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "loads_total",
				Help:      "Total number of catalog loads",
			},
			[]string{"trigger", "result"},
		),

		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "load_duration_seconds",
				Help:      "Duration of a full catalog load in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"trigger"},
		),

		documents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "documents",
				Help:      "Number of documents read by the last load",
			},
		),

		prototypes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "prototypes",
				Help:      "Number of prototypes in the live catalog",
			},
			[]string{"type"},
		),

		lastLoadTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "last_load_timestamp_seconds",
				Help:      "Unix time of the last applied catalog load",
			},
		),
	}

	registry.MustRegister(
		cm.loadsTotal,
		cm.loadDuration,
		cm.documents,
		cm.prototypes,
		cm.lastLoadTime,
	)

	return cm
}

// RecordLoad records a finished load.
func (cm *CatalogMetrics) RecordLoad(trigger string, documents, _ int, duration time.Duration, applied bool) {
	result := "applied"
	if !applied {
		result = "rejected"
	}

	cm.loadsTotal.WithLabelValues(trigger, result).Inc()
	cm.loadDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	cm.documents.Set(float64(documents))
}

// Update replaces the per-type gauges with the live catalog's counts.
func (cm *CatalogMetrics) Update(stats catalog.Stats) {
	cm.prototypes.Reset()
	for typeName, n := range stats.ByType {
		cm.prototypes.WithLabelValues(typeName).Set(float64(n))
	}
	if !stats.LoadTime.IsZero() {
		cm.lastLoadTime.Set(float64(stats.LoadTime.Unix()))
	}
}
