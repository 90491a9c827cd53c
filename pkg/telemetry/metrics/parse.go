package metrics

import (
	"time"

	"unitytk/protokit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ParseMetrics tracks per-document parser activity.
//
// Metrics:
//   - protokit_parser_documents_total: Documents parsed by source and status
//   - protokit_parser_duration_seconds: Parse duration per document
//   - protokit_parser_prototypes_total: Prototypes built
//   - protokit_parser_diagnostics_total: Diagnostics reported by kind
type ParseMetrics struct {
	documentsTotal   *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	prototypesTotal  prometheus.Counter
	diagnosticsTotal *prometheus.CounterVec
}

// NewParseMetrics creates and registers parser metrics with the provided registry.
func NewParseMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ParseMetrics {
	pm := &ParseMetrics{
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "parser",
				Name:      "documents_total",
				Help:      "Total number of prototype documents parsed",
			},
			[]string{"source", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "parser",
				Name:      "duration_seconds",
				Help:      "Duration of parsing one document in seconds",
				// 100µs to ~3s
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"status"},
		),

		prototypesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "parser",
				Name:      "prototypes_total",
				Help:      "Total number of prototype instances built",
			},
		),

		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "parser",
				Name:      "diagnostics_total",
				Help:      "Total number of parser diagnostics by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		pm.documentsTotal,
		pm.duration,
		pm.prototypesTotal,
		pm.diagnosticsTotal,
	)

	return pm
}

// RecordParse records one document parse. Status is "fatal" when the document
// could not be parsed, "error" when it produced error diagnostics and "ok"
// otherwise.
func (pm *ParseMetrics) RecordParse(source string, instances int, diagnostics map[string]int, duration time.Duration, fatal bool) {
	status := parseStatus(diagnostics, fatal)

	pm.documentsTotal.WithLabelValues(source, status).Inc()
	pm.duration.WithLabelValues(status).Observe(duration.Seconds())
	pm.prototypesTotal.Add(float64(instances))

	for kind, n := range diagnostics {
		if n > 0 {
			pm.diagnosticsTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// warningKinds are diagnostic kinds that never fail a document.
var warningKinds = map[string]bool{
	"type_not_found": true,
}

func parseStatus(diagnostics map[string]int, fatal bool) string {
	if fatal {
		return "fatal"
	}
	for kind, n := range diagnostics {
		if n > 0 && !warningKinds[kind] {
			return "error"
		}
	}
	return "ok"
}
