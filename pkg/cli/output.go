package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"unitytk/protokit/pkg/catalog"
	protoErrors "unitytk/protokit/pkg/prototype/errors"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is one CSV row per diagnostic.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json or csv)", s)
	}
}

// Diagnostic is the printable form of one parse error or warning.
type Diagnostic struct {
	Severity    string `json:"severity"`
	Kind        string `json:"kind"`
	Source      string `json:"source,omitempty"`
	Line        int    `json:"line,omitempty"`
	Column      int    `json:"column,omitempty"`
	PrototypeID string `json:"prototype_id,omitempty"`
	Field       string `json:"field,omitempty"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion,omitempty"`
	Context     string `json:"context,omitempty"`
}

// Report is the printable summary of a catalog load.
type Report struct {
	RunID       string       `json:"run_id"`
	Root        string       `json:"root"`
	Version     string       `json:"version,omitempty"`
	Documents   int          `json:"documents"`
	Instances   int          `json:"instances"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	Applied     bool         `json:"applied"`
	DurationMS  int64        `json:"duration_ms"`
	Fatal       []string     `json:"fatal,omitempty"`
	Cycles      [][]string   `json:"cycles,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// NewReport converts a load result. Errors are listed before warnings.
func NewReport(res *catalog.LoadResult) *Report {
	r := &Report{
		RunID:       res.RunID,
		Root:        res.Root,
		Version:     res.Version,
		Documents:   len(res.Documents),
		Instances:   res.Instances,
		Applied:     res.Applied,
		DurationMS:  res.Duration.Milliseconds(),
		Diagnostics: make([]Diagnostic, 0),
	}
	for _, err := range res.Fatal {
		r.Fatal = append(r.Fatal, err.Error())
	}
	for _, c := range res.Cycles {
		r.Cycles = append(r.Cycles, c.Cycle)
	}
	for _, list := range []*protoErrors.ErrorList{res.Diagnostics, res.Warnings} {
		if list == nil {
			continue
		}
		for _, e := range list.Errors {
			r.Diagnostics = append(r.Diagnostics, newDiagnostic(e))
			if e.IsWarning() {
				r.Warnings++
			} else {
				r.Errors++
			}
		}
	}
	return r
}

func newDiagnostic(e *protoErrors.Error) Diagnostic {
	return Diagnostic{
		Severity:    string(e.Severity),
		Kind:        string(e.Kind),
		Source:      e.Source,
		Line:        e.Location.Line,
		Column:      e.Location.Column,
		PrototypeID: e.PrototypeID,
		Field:       e.Field,
		Message:     e.Message,
		Suggestion:  e.Suggestion,
		Context:     e.Context,
	}
}

// Failed reports whether the load should fail a CI run. In strict mode warnings
// count as errors.
func (r *Report) Failed(strict bool) bool {
	if len(r.Fatal) > 0 || r.Errors > 0 {
		return true
	}
	return strict && r.Warnings > 0
}

// Formatter formats command output.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text. Reports are rendered as one line
// per diagnostic followed by a summary.
type TextFormatter struct {
	// Verbose adds the document excerpt under each located diagnostic.
	Verbose bool
}

// Format converts data to text format.
func (f *TextFormatter) Format(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	report, ok := data.(*Report)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	var sb strings.Builder
	for _, msg := range report.Fatal {
		fmt.Fprintf(&sb, "✗ %s\n", msg)
	}
	for _, cycle := range report.Cycles {
		fmt.Fprintf(&sb, "⚠  documents inherit from each other: %s\n", strings.Join(cycle, " -> "))
	}
	for _, d := range report.Diagnostics {
		f.writeDiagnostic(&sb, d)
	}
	if len(report.Fatal)+len(report.Cycles)+len(report.Diagnostics) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  %d document(s), %d prototype(s)\n", report.Documents, report.Instances)
	fmt.Fprintf(&sb, "  %d error(s), %d warning(s)\n", report.Errors, report.Warnings)
	if len(report.Fatal) > 0 {
		fmt.Fprintf(&sb, "  %d fatal error(s), previous catalog kept\n", len(report.Fatal))
	} else if report.Version != "" {
		fmt.Fprintf(&sb, "  catalog version %s\n", report.Version)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TextFormatter) writeDiagnostic(sb *strings.Builder, d Diagnostic) {
	mark := "✗"
	if d.Severity == string(protoErrors.SeverityWarning) {
		mark = "⚠ "
	}
	sb.WriteString(mark)
	sb.WriteString(" ")
	if where := d.where(); where != "" {
		sb.WriteString(where)
		sb.WriteString(": ")
	}
	fmt.Fprintf(sb, "%s [%s]", d.Severity, d.Kind)
	if d.PrototypeID != "" {
		fmt.Fprintf(sb, " prototype %q", d.PrototypeID)
	}
	if d.Field != "" {
		fmt.Fprintf(sb, " field %q", d.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	if f.Verbose && d.Context != "" {
		sb.WriteString(d.Context)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(sb, "    = suggestion: %s\n", d.Suggestion)
	}
}

func (d Diagnostic) where() string {
	switch {
	case d.Source == "":
		return ""
	case d.Line > 0:
		return fmt.Sprintf("%s:%d:%d", d.Source, d.Line, d.Column)
	default:
		return d.Source
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data any) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// DefaultCSVHeaders are the columns written for diagnostics.
var DefaultCSVHeaders = []string{"severity", "kind", "source", "line", "column", "prototype_id", "field", "message"}

// CSVFormatter formats diagnostics as CSV. It accepts a *Report or a []Diagnostic.
type CSVFormatter struct {
	Headers []string
}

// Format converts data to CSV format.
func (f *CSVFormatter) Format(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	var diags []Diagnostic
	switch v := data.(type) {
	case *Report:
		diags = v.Diagnostics
	case []Diagnostic:
		diags = v
	default:
		return fmt.Errorf("CSV output does not support %T", data)
	}

	headers := f.Headers
	if len(headers) == 0 {
		headers = DefaultCSVHeaders
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(headers); err != nil {
		return err
	}
	for _, d := range diags {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = d.column(h)
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (d Diagnostic) column(name string) string {
	switch name {
	case "severity":
		return d.Severity
	case "kind":
		return d.Kind
	case "source":
		return d.Source
	case "line":
		return strconv.Itoa(d.Line)
	case "column":
		return strconv.Itoa(d.Column)
	case "prototype_id":
		return d.PrototypeID
	case "field":
		return d.Field
	case "message":
		return d.Message
	case "suggestion":
		return d.Suggestion
	default:
		return ""
	}
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
