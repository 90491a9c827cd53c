// Package telemetry groups the observability packages used by protokit.
//
//   - logging: slog logger construction from configuration
//   - metrics: Prometheus metrics fed by catalog loads
//   - health: liveness, readiness and version endpoints
//   - tracing: OpenTelemetry spans around catalog loads, exported over OTLP
package telemetry
