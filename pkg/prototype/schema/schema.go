package schema

import (
	"fmt"
	"reflect"
	"sort"
)

// Prototype is implemented by every value a prototype document can instantiate.
type Prototype interface {
	Identifier() string
	SetIdentifier(id string)
}

// Base is an embeddable Prototype implementation.
type Base struct {
	ID string `json:"id"`
}

// Identifier returns the prototype identifier.
func (b *Base) Identifier() string { return b.ID }

// SetIdentifier sets the prototype identifier.
func (b *Base) SetIdentifier(id string) { b.ID = id }

// PrototypeType is the reflect.Type of the Prototype interface.
var PrototypeType = reflect.TypeFor[Prototype]()

// Field describes one deserializable member of a prototype type: its name in the
// document, its static Go type and how to assign a deserialized value to an instance.
type Field struct {
	Name       string
	Type       reflect.Type
	Required   bool
	HasDefault bool
	Default    any

	owner  reflect.Type
	assign func(Prototype, any) error
}

// Assign sets the field on p. The value must be assignable to the field type.
func (f *Field) Assign(p Prototype, v any) error {
	return f.assign(p, v)
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// Required marks a field that must have a value after inheritance.
func Required() FieldOption {
	return func(f *Field) { f.Required = true }
}

// Default assigns v when no prototype in the chain declares the field.
// A field with a default is never reported missing.
func Default(v any) FieldOption {
	return func(f *Field) {
		f.HasDefault = true
		f.Default = v
	}
}

// Define declares a field of prototype type T holding values of type V.
//
//	schema.Define("damage", func(w *Weapon, v int32) { w.Damage = v }, schema.Required())
func Define[T Prototype, V any](name string, set func(T, V), opts ...FieldOption) *Field {
	f := &Field{
		Name:  name,
		Type:  reflect.TypeFor[V](),
		owner: reflect.TypeFor[T](),
	}
	f.assign = func(p Prototype, v any) error {
		target, ok := p.(T)
		if !ok {
			return fmt.Errorf("field %q belongs to %s, not %T", name, f.owner, p)
		}
		if v == nil {
			var zero V
			set(target, zero)
			return nil
		}
		typed, ok := v.(V)
		if !ok {
			return fmt.Errorf("field %q wants %s, got %T", name, f.Type, v)
		}
		set(target, typed)
		return nil
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Type is the explicit schema of a prototype type. It is built once and used to
// instantiate any number of prototypes.
type Type struct {
	Name      string
	Namespace string

	goType reflect.Type
	newFn  func() Prototype
	fields []*Field
	index  map[string]*Field
}

// NewType declares a prototype type. newFn must return a fresh instance each call.
// It panics if a field belongs to another Go type or a name is declared twice.
func NewType[T Prototype](namespace, name string, newFn func() T, fields ...*Field) *Type {
	t := &Type{
		Name:      name,
		Namespace: namespace,
		goType:    reflect.TypeFor[T](),
		newFn:     func() Prototype { return newFn() },
		fields:    make([]*Field, 0, len(fields)),
		index:     make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		if !t.goType.AssignableTo(f.owner) {
			panic(fmt.Sprintf("schema: field %q of %s is declared on %s", f.Name, t.FullName(), f.owner))
		}
		if _, dup := t.index[f.Name]; dup {
			panic(fmt.Sprintf("schema: field %q declared twice on %s", f.Name, t.FullName()))
		}
		t.fields = append(t.fields, f)
		t.index[f.Name] = f
	}
	return t
}

// FullName returns "Namespace.Name", or Name when there is no namespace.
func (t *Type) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	return t.FullName()
}

// New returns a fresh instance.
func (t *Type) New() Prototype {
	return t.newFn()
}

// GoType returns the Go type New produces.
func (t *Type) GoType() reflect.Type {
	return t.goType
}

// Fields returns the fields in declaration order.
func (t *Type) Fields() []*Field {
	return t.fields
}

// Field looks up a field by document name.
func (t *Type) Field(name string) (*Field, bool) {
	f, ok := t.index[name]
	return f, ok
}

// FieldNames returns the sorted field names, used for suggestions.
func (t *Type) FieldNames() []string {
	names := make([]string, 0, len(t.fields))
	for _, f := range t.fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// MarshalText encodes a type reference as its full name.
func (t *Type) MarshalText() ([]byte, error) {
	return []byte(t.FullName()), nil
}
