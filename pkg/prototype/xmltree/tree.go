// Package xmltree builds the small element tree the prototype parser works on.
//
// Only what prototype documents need is kept: element names, attributes in document
// order, child elements, concatenated character data and the source position of each
// element. Namespaces, comments and processing instructions are dropped.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Location is a position inside a document.
type Location struct {
	Line   int // 1-based
	Column int // 1-based
}

// String returns "line:column".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// IsValid returns true if the location carries line information.
func (l Location) IsValid() bool {
	return l.Line > 0
}

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the tree.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
	Location Location
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the value of the named attribute, or def when absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// ChildrenNamed returns the direct children with the given name, in document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Value returns the trimmed character data of the element.
func (e *Element) Value() string {
	return strings.TrimSpace(e.Text)
}

// Document is a parsed document.
type Document struct {
	Root *Element
}

// SyntaxError reports markup that could not be parsed.
type SyntaxError struct {
	Location Location
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Location.IsValid() {
		return fmt.Sprintf("line %d: %s", e.Location.Line, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying decoder error.
func (e *SyntaxError) Unwrap() error {
	return e.Cause
}

// ParseBytes parses a document held in memory.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// openElement is an element whose end tag has not been read yet.
type openElement struct {
	elem *Element
	text strings.Builder
}

// Parse builds the element tree from r.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var stack []*openElement
	var root *Element
	rootClosed := false

	for {
		line, col := decoder.InputPos()
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			loc := Location{Line: line, Column: col}
			if se, ok := err.(*xml.SyntaxError); ok {
				loc = Location{Line: se.Line}
			}
			return nil, &SyntaxError{Location: loc, Message: err.Error(), Cause: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			loc := Location{Line: line, Column: col}
			if rootClosed {
				return nil, &SyntaxError{
					Location: loc,
					Message:  fmt.Sprintf("unexpected element <%s> after document end", t.Name.Local),
				}
			}
			elem := &Element{
				Name:     t.Name.Local,
				Attrs:    convertAttrs(t.Attr),
				Location: loc,
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1].elem
				parent.Children = append(parent.Children, elem)
			} else {
				root = elem
			}
			stack = append(stack, &openElement{elem: elem})

		case xml.EndElement:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.elem.Text = top.text.String()
				stack = stack[:len(stack)-1]
				if len(stack) == 0 && root != nil {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isIgnorableOutsideRoot(t) {
					return nil, &SyntaxError{
						Location: Location{Line: line, Column: col},
						Message:  "unexpected character data outside root element",
					}
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if root == nil {
		return nil, &SyntaxError{Message: "document has no root element", Cause: io.ErrUnexpectedEOF}
	}

	return &Document{Root: root}, nil
}

func convertAttrs(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, Attr{Name: a.Name.Local, Value: a.Value})
	}
	return out
}

func isIgnorableOutsideRoot(data []byte) bool {
	for _, r := range string(data) {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
