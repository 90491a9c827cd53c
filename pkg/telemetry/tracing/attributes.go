package tracing

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanCatalogLoad   = "catalog.load"
	SpanDocumentParse = "prototype.parse"
)

// Attribute keys set on protokit spans.
const (
	AttrRunID          = attribute.Key("protokit.run_id")
	AttrTrigger        = attribute.Key("protokit.trigger")
	AttrRoot           = attribute.Key("protokit.content.root")
	AttrSource         = attribute.Key("protokit.document")
	AttrDocuments      = attribute.Key("protokit.documents")
	AttrInstances      = attribute.Key("protokit.instances")
	AttrErrors         = attribute.Key("protokit.diagnostics.errors")
	AttrWarnings       = attribute.Key("protokit.diagnostics.warnings")
	AttrApplied        = attribute.Key("protokit.catalog.applied")
	AttrCatalogVersion = attribute.Key("protokit.catalog.version")
)

// LoadAttributes describes a finished catalog load.
func LoadAttributes(documents, instances, errors, warnings int, applied bool, version string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrDocuments.Int(documents),
		AttrInstances.Int(instances),
		AttrErrors.Int(errors),
		AttrWarnings.Int(warnings),
		AttrApplied.Bool(applied),
		AttrCatalogVersion.String(version),
	}
}

// ParseAttributes describes a parsed document.
func ParseAttributes(instances, errors, warnings int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInstances.Int(instances),
		AttrErrors.Int(errors),
		AttrWarnings.Int(warnings),
	}
}
