package serializer

import (
	"reflect"
	"sync"
	"sync/atomic"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/xmltree"
)

// Serializer converts the literal of a field into a value of the field's static type.
type Serializer interface {
	// Name identifies the serializer in diagnostics.
	Name() string

	// CanBeUsedFor reports whether the serializer handles fields of type t.
	CanBeUsedFor(t reflect.Type, ctx *Context) bool

	// Deserialize converts lit into a value assignable to t, or into a Deferred
	// value that is resolved once every prototype of the batch exists.
	Deserialize(t reflect.Type, lit Literal, ctx *Context) (any, error)
}

// Context carries what serializers may consult during one parse.
type Context struct {
	Universe          *schema.Universe
	StandardNamespace string
	Registry          *Registry

	// Resolve, when set, is used instead of Registry.Resolve so callers can cache
	// lookups for the duration of a run.
	Resolve func(t reflect.Type) (Serializer, error)
}

// serializerFor resolves the serializer for t through the run cache when present.
func (c *Context) serializerFor(t reflect.Type) (Serializer, error) {
	if c.Resolve != nil {
		return c.Resolve(t)
	}
	return c.Registry.Resolve(t, c)
}

// Literal is the effective value of one field: the elements that declared it along
// the inheritance chain, most-derived last. Scalar serializers read the last element;
// list serializers may combine items of several elements.
type Literal struct {
	Field string
	Nodes []*xmltree.Element
}

// Element returns the most-derived declaring element.
func (l Literal) Element() *xmltree.Element {
	if len(l.Nodes) == 0 {
		return nil
	}
	return l.Nodes[len(l.Nodes)-1]
}

// Text returns the trimmed character data of the most-derived element.
func (l Literal) Text() string {
	if e := l.Element(); e != nil {
		return e.Value()
	}
	return ""
}

// Location returns the position of the most-derived element.
func (l Literal) Location() xmltree.Location {
	if e := l.Element(); e != nil {
		return e.Location
	}
	return xmltree.Location{}
}

// Items returns the <li> children of every contributing element, in order.
func (l Literal) Items() []*xmltree.Element {
	var items []*xmltree.Element
	for _, n := range l.Nodes {
		items = append(items, n.ChildrenNamed(ItemElement)...)
	}
	return items
}

// ItemElement is the element name of list items.
const ItemElement = "li"

// Registry is an ordered list of serializers. Resolution returns the first candidate
// whose predicate accepts the type, so a broad serializer registered early shadows
// every narrower one registered after it.
//
// The registry is append-only. It is sealed by the first resolution; registering
// afterwards panics, which keeps concurrent parses free of locking.
type Registry struct {
	serializers []Serializer
	sealed      atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry holding the built-in serializers.
func NewDefaultRegistry() *Registry {
	return NewRegistry().Register(Builtins()...)
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry with the built-in serializers.
// Custom serializers must be registered on it before the first parse.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewDefaultRegistry()
	})
	return defaultRegistry
}

// Register appends serializers in order.
func (r *Registry) Register(serializers ...Serializer) *Registry {
	if r.sealed.Load() {
		panic("serializer: Register called after the registry was used for resolution")
	}
	r.serializers = append(r.serializers, serializers...)
	return r
}

// Seal forbids further registration.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Len returns the number of registered serializers.
func (r *Registry) Len() int {
	return len(r.serializers)
}

// Serializers returns the candidates in resolution order.
func (r *Registry) Serializers() []Serializer {
	return r.serializers
}

// Resolve returns the first serializer that can handle t.
func (r *Registry) Resolve(t reflect.Type, ctx *Context) (Serializer, error) {
	r.sealed.Store(true)
	if ctx == nil || ctx.Registry == nil {
		// Work on a copy; ctx may be shared by concurrent callers.
		local := Context{}
		if ctx != nil {
			local = *ctx
		}
		local.Registry = r
		ctx = &local
	}
	for _, s := range r.serializers {
		if s.CanBeUsedFor(t, ctx) {
			return s, nil
		}
	}
	return nil, protoErrors.New(protoErrors.KindUnsupportedType, "no serializer for type %s", t)
}
