package parser

import (
	"strings"

	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/xmltree"
)

// Document vocabulary.
const (
	ContainerElement = "PrototypeContainer"
	PrototypeElement = "Prototype"

	AttrType     = "Type"
	AttrID       = "Id"
	AttrInherits = "Inherits"
	AttrAbstract = "Abstract"
	AttrMerge    = "Merge"

	MergeAppend = "Append"
)

// Container is the parsed <PrototypeContainer> element.
type Container struct {
	TypeName    string
	Type        *schema.Type // nil when absent or unknown
	Descriptors []*Descriptor
	Location    xmltree.Location
}

type resolveStatus uint8

const (
	statusPending resolveStatus = iota
	statusResolving
	statusResolved
	statusFailed
)

// Descriptor is the intermediate form of one <Prototype> element.
type Descriptor struct {
	ID       string
	Parent   string
	Abstract bool
	TypeName string
	Source   string
	Location xmltree.Location

	// Fields holds the fields declared by this prototype only.
	Fields *FieldSet

	// Effective and Type are filled in by inheritance resolution.
	Effective *FieldSet
	Type      *schema.Type

	ownType *schema.Type
	status  resolveStatus

	// buildFailed is set when a resolved descriptor produced no instance. It stays
	// resolved so descendants, here and in later batches, can still inherit from it.
	buildFailed bool
}

// Resolved reports whether inheritance resolution succeeded for the descriptor.
func (d *Descriptor) Resolved() bool {
	return d.status == statusResolved
}

// Failed reports whether the descriptor was excluded during resolution.
func (d *Descriptor) Failed() bool {
	return d.status == statusFailed
}

// BuildFailed reports whether the descriptor resolved but produced no instance.
func (d *Descriptor) BuildFailed() bool {
	return d.buildFailed
}

// FieldValue is the value of one field: the elements that declared it along the
// inheritance chain, most-derived last, and the prototype that declared it last.
type FieldValue struct {
	Name     string
	Nodes    []*xmltree.Element
	Declarer string
}

// FieldSet is an insertion-ordered set of field values keyed by field name.
type FieldSet struct {
	order  []string
	values map[string]*FieldValue
}

func newFieldSet(capacity int) *FieldSet {
	return &FieldSet{
		order:  make([]string, 0, capacity),
		values: make(map[string]*FieldValue, capacity),
	}
}

// Get returns the value of the named field.
func (s *FieldSet) Get(name string) (*FieldValue, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Names returns the field names in the order they were first declared.
func (s *FieldSet) Names() []string {
	if s == nil {
		return nil
	}
	return s.order
}

// Len returns the number of fields.
func (s *FieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// set stores v, keeping the original position when the name already exists.
func (s *FieldSet) set(v *FieldValue) {
	if _, exists := s.values[v.Name]; !exists {
		s.order = append(s.order, v.Name)
	}
	s.values[v.Name] = v
}

func (s *FieldSet) clone(extra int) *FieldSet {
	out := newFieldSet(s.Len() + extra)
	if s == nil {
		return out
	}
	out.order = append(out.order, s.order...)
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

// overlay returns parent's fields overridden by own. Own values always win; a list
// element marked Merge="Append" extends the inherited items instead.
func overlay(parent, own *FieldSet) *FieldSet {
	if parent.Len() == 0 {
		return own
	}
	out := parent.clone(own.Len())
	for _, name := range own.order {
		v := own.values[name]
		if inherited, ok := parent.values[name]; ok && isAppend(v.Element()) {
			nodes := make([]*xmltree.Element, 0, len(inherited.Nodes)+len(v.Nodes))
			nodes = append(nodes, inherited.Nodes...)
			nodes = append(nodes, v.Nodes...)
			v = &FieldValue{Name: name, Nodes: nodes, Declarer: v.Declarer}
		}
		out.set(v)
	}
	return out
}

// Element returns the most-derived declaring element.
func (v *FieldValue) Element() *xmltree.Element {
	if len(v.Nodes) == 0 {
		return nil
	}
	return v.Nodes[len(v.Nodes)-1]
}

func isAppend(e *xmltree.Element) bool {
	if e == nil {
		return false
	}
	merge, ok := e.Attr(AttrMerge)
	return ok && strings.EqualFold(strings.TrimSpace(merge), MergeAppend)
}
