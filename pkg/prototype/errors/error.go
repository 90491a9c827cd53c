package errors

import (
	"fmt"
	"strings"

	"unitytk/protokit/pkg/prototype/xmltree"
)

// Kind categorizes a diagnostic produced while parsing prototypes.
type Kind string

const (
	KindMalformedDocument     Kind = "malformed_document"     // Markup cannot be parsed at all
	KindMissingIdentifier     Kind = "missing_identifier"     // <Prototype> without Id
	KindDuplicateIdentifier   Kind = "duplicate_identifier"   // Id declared twice
	KindUnresolvedInheritance Kind = "unresolved_inheritance" // Inherits names nothing (or a failed parent)
	KindCyclicInheritance     Kind = "cyclic_inheritance"     // Inherits chain loops
	KindUnknownType           Kind = "unknown_type"           // Container or prototype type not found
	KindUnknownField          Kind = "unknown_field"          // Element names no field of the type
	KindUnsupportedType       Kind = "unsupported_type"       // No serializer for the field type
	KindMalformedLiteral      Kind = "malformed_literal"      // Literal does not parse as the field type
	KindMissingField          Kind = "missing_field"          // Required field has no value
	KindUnresolvedReference   Kind = "unresolved_reference"   // Cross-reference names no prototype
	KindTypeNotFound          Kind = "type_not_found"         // Type literal resolved to nothing (warning)
)

// Severity distinguishes errors from warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is a single structured diagnostic. It carries enough information to point the
// content author at the offending prototype, field and source line.
type Error struct {
	Kind        Kind
	Severity    Severity
	Message     string
	Source      string           // Document origin (file name or other tag)
	PrototypeID string           // Affected prototype, if any
	Field       string           // Affected field, if any
	Cycle       []string         // Members of an inheritance cycle
	Location    xmltree.Location // Line and column inside Source
	Context     string           // Surrounding lines of the document
	Suggestion  string           // Suggested fix (optional)
}

// New creates an error-severity diagnostic.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warning creates a warning-severity diagnostic.
func Warning(kind Kind, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Severity = SeverityWarning
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] ", e.Kind))
	if e.PrototypeID != "" {
		sb.WriteString(fmt.Sprintf("prototype %q: ", e.PrototypeID))
	}
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf("field %q: ", e.Field))
	}
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if loc := e.Where(); loc != "" {
		sb.WriteString(fmt.Sprintf("  --> %s\n", loc))
	}

	if e.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(e.Context)
		sb.WriteString("  |\n")
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", e.Suggestion))
	}

	return sb.String()
}

// Where formats the source and location as "source:line:column".
func (e *Error) Where() string {
	if e.Source == "" {
		return ""
	}
	if !e.Location.IsValid() {
		return e.Source
	}
	return fmt.Sprintf("%s:%s", e.Source, e.Location)
}

// IsWarning reports whether the diagnostic is only a warning.
func (e *Error) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// Is matches another *Error of the same kind, so callers can use errors.Is with a
// kind template such as &Error{Kind: KindMissingField}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.PrototypeID == "" || t.PrototypeID == e.PrototypeID)
}

// ErrorList accumulates diagnostics instead of failing on the first one.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Error, 0),
	}
}

// Add appends an error to the list. Nil errors are ignored.
func (el *ErrorList) Add(err *Error) {
	if err == nil {
		return
	}
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error for the given prototype.
func (el *ErrorList) AddError(kind Kind, prototypeID string, location xmltree.Location, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.PrototypeID = prototypeID
	e.Location = location
	el.Add(e)
	return e
}

// Merge appends every error of other.
func (el *ErrorList) Merge(other *ErrorList) {
	if other == nil {
		return
	}
	el.Errors = append(el.Errors, other.Errors...)
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
// It returns all errors formatted as a single string.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n\n", el.Count()))

	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("Error %d:\n", i+1))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToError returns nil if the error list is empty, otherwise returns the error list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByKind returns all errors of the given kind.
func (el *ErrorList) ByKind(kind Kind) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Kind == kind {
			result = append(result, err)
		}
	}
	return result
}

// HasKind returns true if the list contains at least one error of the given kind.
func (el *ErrorList) HasKind(kind Kind) bool {
	for _, err := range el.Errors {
		if err.Kind == kind {
			return true
		}
	}
	return false
}

// ForPrototype returns all errors attached to the given prototype identifier.
func (el *ErrorList) ForPrototype(id string) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.PrototypeID == id {
			result = append(result, err)
		}
	}
	return result
}

// CountByKind tallies errors per kind.
func (el *ErrorList) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, err := range el.Errors {
		counts[err.Kind]++
	}
	return counts
}
