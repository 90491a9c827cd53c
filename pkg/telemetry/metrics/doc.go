// Package metrics provides Prometheus metrics for prototype parsing and catalog
// loading.
//
// # Metrics Categories
//
//   - Parser metrics: documents parsed, parse duration, prototypes built and
//     diagnostics by kind
//   - Catalog metrics: loads by trigger and result, load duration, and the
//     number of live prototypes by type
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	manager.WithRecorder(collector).OnLoad(collector.CatalogHook())
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Document names are used as the "source" label; past DefaultMaxSources
// distinct names they are folded into "other".
package metrics
