package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"unitytk/protokit/pkg/prototype/xmltree"
)

// ExtractContext extracts the lines surrounding location from the document text.
// It returns a formatted excerpt with line numbers and a caret under the column.
func ExtractContext(document []byte, location xmltree.Location, contextLines int) string {
	if !location.IsValid() || len(document) == 0 {
		return ""
	}

	scanner := bufio.NewScanner(bytes.NewReader(document))
	scanner.Buffer(make([]byte, 0, 64*1024), len(document)+1)
	lines := make([]string, 0)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return ""
	}

	errorLine := location.Line - 1
	if errorLine >= len(lines) {
		return ""
	}
	startLine := max(errorLine-contextLines, 0)
	endLine := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	maxLineNumWidth := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s %*d | %s\n", prefix, maxLineNumWidth, i+1, lines[i]))

		if i == errorLine && location.Column > 0 {
			padding := strings.Repeat(" ", location.Column-1)
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", maxLineNumWidth), padding))
		}
	}

	return sb.String()
}

// AttachContext fills Context on every located error of the list using the document text.
func AttachContext(el *ErrorList, document []byte, contextLines int) {
	for _, e := range el.Errors {
		if e.Context == "" && e.Location.IsValid() {
			e.Context = ExtractContext(document, e.Location, contextLines)
		}
	}
}
