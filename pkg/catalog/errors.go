package catalog

import (
	"fmt"
	"strings"
)

// LoadError represents a failure to read a document or the content directory.
// This includes file system errors, size limits and encoding validation.
type LoadError struct {
	// Path is the file or directory that failed to load
	Path string

	// Message describes the error
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load %q: %s", e.Path, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// OrderError reports documents whose prototypes inherit from each other in a loop,
// so no document order lets every parent load before its children.
type OrderError struct {
	// Cycle lists the documents in the loop; the first entry is repeated at the end.
	Cycle []string
}

// Error implements the error interface.
func (e *OrderError) Error() string {
	return fmt.Sprintf("documents inherit from each other in a cycle: %s", strings.Join(e.Cycle, " -> "))
}

// DocumentError wraps a fatal parser error for one document.
type DocumentError struct {
	Name  string
	Cause error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q: %v", e.Name, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *DocumentError) Unwrap() error {
	return e.Cause
}
