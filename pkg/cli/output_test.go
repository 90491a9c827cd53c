package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"unitytk/protokit/pkg/catalog"
	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/xmltree"
)

func sampleResult() *catalog.LoadResult {
	res := &catalog.LoadResult{
		RunID:       "run-1",
		Root:        "content",
		Diagnostics: protoErrors.NewErrorList(),
		Warnings:    protoErrors.NewErrorList(),
		Documents:   []catalog.DocumentResult{{Name: "weapons.xml"}},
		Instances:   2,
		Version:     "0123456789abcdef",
		Applied:     true,
		Duration:    15 * time.Millisecond,
	}

	e := res.Diagnostics.AddError(protoErrors.KindMissingField, "Stick", xmltree.Location{Line: 12, Column: 3}, "required field %q has no value", "damage")
	e.Source = "weapons.xml"
	e.Field = "damage"
	e.Suggestion = "add a <damage> element"
	e.Context = "-> 12 | <Prototype Id=\"Stick\">\n"

	w := protoErrors.Warning(protoErrors.KindTypeNotFound, "type %q not found", "Brain")
	w.Source = "chars.xml"
	res.Warnings.Add(w)
	return res
}

func TestNewReport(t *testing.T) {
	res := sampleResult()
	res.Cycles = []*catalog.OrderError{{Cycle: []string{"a.xml", "b.xml", "a.xml"}}}

	r := NewReport(res)
	if r.Errors != 1 || r.Warnings != 1 || len(r.Diagnostics) != 2 {
		t.Fatalf("NewReport() = %+v", r)
	}
	if r.Documents != 1 || r.Instances != 2 || r.DurationMS != 15 {
		t.Errorf("counts = %+v", r)
	}
	if d := r.Diagnostics[0]; d.Kind != "missing_field" || d.Line != 12 || d.PrototypeID != "Stick" {
		t.Errorf("first diagnostic = %+v", d)
	}
	if r.Diagnostics[1].Severity != "warning" {
		t.Errorf("warnings should follow errors, got %+v", r.Diagnostics[1])
	}
	if len(r.Cycles) != 1 || len(r.Cycles[0]) != 3 {
		t.Errorf("Cycles = %v", r.Cycles)
	}
}

func TestReport_Failed(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		strict bool
		want   bool
	}{
		{"clean", Report{}, false, false},
		{"clean strict", Report{}, true, false},
		{"errors", Report{Errors: 1}, false, true},
		{"warnings", Report{Warnings: 1}, false, false},
		{"warnings strict", Report{Warnings: 1}, true, true},
		{"fatal", Report{Fatal: []string{"boom"}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Failed(tt.strict); got != tt.want {
				t.Errorf("Failed(%v) = %v, want %v", tt.strict, got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format("test message")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(output) != "test message\n" {
		t.Errorf("Format() = %q, want %q", string(output), "test message\n")
	}
}

func TestTextFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, NewReport(sampleResult())); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`✗ weapons.xml:12:3: error [missing_field] prototype "Stick" field "damage": required field "damage" has no value`,
		"= suggestion: add a <damage> element",
		"chars.xml: warning [type_not_found]",
		"1 document(s), 2 prototype(s)",
		"1 error(s), 1 warning(s)",
		"catalog version 0123456789abcdef",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "-> 12 |") {
		t.Error("context should only be printed in verbose mode")
	}

	buf.Reset()
	if err := (&TextFormatter{Verbose: true}).FormatTo(buf, NewReport(sampleResult())); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), "-> 12 |") {
		t.Errorf("verbose output missing context:\n%s", buf.String())
	}
}

func TestTextFormatter_Fatal(t *testing.T) {
	res := sampleResult()
	res.Fatal = []error{errors.New("document \"broken.xml\": unexpected EOF")}

	out, err := (&TextFormatter{}).Format(NewReport(res))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(string(out), "previous catalog kept") {
		t.Errorf("output = %s", out)
	}
	if strings.Contains(string(out), "catalog version") {
		t.Error("version should not be printed for a failed load")
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   any
		indent bool
	}{
		{"simple string", "test", false},
		{"map with indent", map[string]string{"key": "value"}, true},
		{"report", NewReport(sampleResult()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}
			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			var result any
			if err := json.Unmarshal(output, &result); err != nil {
				t.Errorf("Format() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestJSONFormatter_ReportFields(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&JSONFormatter{}).FormatTo(buf, NewReport(sampleResult())); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var got struct {
		RunID       string `json:"run_id"`
		Errors      int    `json:"errors"`
		Diagnostics []struct {
			Kind   string `json:"kind"`
			Source string `json:"source"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Errors != 1 || len(got.Diagnostics) != 2 || got.Diagnostics[1].Source != "chars.xml" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestCSVFormatter(t *testing.T) {
	out, err := (&CSVFormatter{}).Format(NewReport(sampleResult()))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(DefaultCSVHeaders, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "missing_field" || rows[1][3] != "12" || rows[1][5] != "Stick" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestCSVFormatter_CustomHeaders(t *testing.T) {
	diags := []Diagnostic{{Kind: "unknown_field", Suggestion: "did you mean damage?"}}
	out, err := (&CSVFormatter{Headers: []string{"kind", "suggestion", "bogus"}}).Format(diags)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if want := "kind,suggestion,bogus\nunknown_field,did you mean damage?,\n"; string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestCSVFormatter_Unsupported(t *testing.T) {
	if _, err := (&CSVFormatter{}).Format("text"); err == nil {
		t.Error("Format() expected error for unsupported data, got nil")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{"text formatter", FormatText, "*cli.TextFormatter"},
		{"json formatter", FormatJSON, "*cli.JSONFormatter"},
		{"csv formatter", FormatCSV, "*cli.CSVFormatter"},
		{"default to text", "unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fmt.Sprintf("%T", NewFormatter(tt.format))
			if got != tt.want {
				t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
