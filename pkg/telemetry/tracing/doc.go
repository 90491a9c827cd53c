// Package tracing exports OpenTelemetry spans for catalog loads.
//
// Each load produces a "catalog.load" span carrying the run id and trigger,
// with one "prototype.parse" child per document. Spans are exported over OTLP
// gRPC; a disabled configuration installs a noop tracer.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//	manager.WithTracer(tracer.Tracer())
package tracing
