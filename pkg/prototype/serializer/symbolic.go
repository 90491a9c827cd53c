package serializer

import (
	"fmt"
	"reflect"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/xmltree"
)

// Enum parses any enum type declared to the universe by its symbolic name.
func Enum() Serializer {
	return &enumSerializer{}
}

type enumSerializer struct{}

func (s *enumSerializer) Name() string { return "enum" }

func (s *enumSerializer) CanBeUsedFor(t reflect.Type, ctx *Context) bool {
	if ctx == nil || ctx.Universe == nil {
		return false
	}
	_, ok := ctx.Universe.Enum(t)
	return ok
}

func (s *enumSerializer) Deserialize(t reflect.Type, lit Literal, ctx *Context) (any, error) {
	enum, _ := ctx.Universe.Enum(t)
	text := lit.Text()
	v, ok := enum.Parse(text)
	if !ok {
		e := protoErrors.New(protoErrors.KindMalformedLiteral, "%q is not a member of enum %s", text, enum.Name)
		e.Suggestion = protoErrors.SuggestName(text, enum.Names())
		return nil, e
	}
	return v, nil
}

// TypeName resolves a type-name literal into a *schema.Type. A name no assembly
// declares is not an error: the field receives nil and a warning is returned.
func TypeName() Serializer {
	return &typeSerializer{}
}

var typeRefType = reflect.TypeFor[*schema.Type]()

type typeSerializer struct{}

func (s *typeSerializer) Name() string { return "type" }

func (s *typeSerializer) CanBeUsedFor(t reflect.Type, _ *Context) bool {
	return t == typeRefType
}

func (s *typeSerializer) Deserialize(_ reflect.Type, lit Literal, ctx *Context) (any, error) {
	name := lit.Text()
	if ctx != nil && ctx.Universe != nil {
		if t, ok := ctx.Universe.LookupType(name, ctx.StandardNamespace); ok {
			return t, nil
		}
	}
	w := protoErrors.Warning(protoErrors.KindTypeNotFound, "type %q not found in any assembly", name)
	if ctx != nil && ctx.Universe != nil {
		w.Suggestion = protoErrors.SuggestName(name, ctx.Universe.TypeNames())
	}
	return (*schema.Type)(nil), w
}

// Resolver looks up finished prototypes by identifier.
type Resolver interface {
	ResolvePrototype(id string) (schema.Prototype, bool)
}

// Deferred is a value that can only be produced once every prototype of the batch
// has been instantiated.
type Deferred interface {
	Resolve(r Resolver) (any, error)
}

// Reference parses a cross-reference to another prototype by identifier.
// Fields may be typed as a concrete prototype pointer or as schema.Prototype.
func Reference() Serializer {
	return &referenceSerializer{}
}

type referenceSerializer struct{}

func (s *referenceSerializer) Name() string { return "reference" }

func (s *referenceSerializer) CanBeUsedFor(t reflect.Type, _ *Context) bool {
	if t == typeRefType {
		return false
	}
	return t == schema.PrototypeType || t.Implements(schema.PrototypeType)
}

func (s *referenceSerializer) Deserialize(t reflect.Type, lit Literal, _ *Context) (any, error) {
	id := lit.Text()
	if id == "" {
		return nil, protoErrors.New(protoErrors.KindMalformedLiteral, "empty prototype reference")
	}
	return &Ref{ID: id, Type: t, Location: lit.Location()}, nil
}

// Ref is an unresolved reference to the prototype with identifier ID.
type Ref struct {
	ID       string
	Type     reflect.Type
	Location xmltree.Location
}

// Resolve looks the identifier up and checks the prototype fits the field type.
func (r *Ref) Resolve(res Resolver) (any, error) {
	p, ok := res.ResolvePrototype(r.ID)
	if !ok {
		e := protoErrors.New(protoErrors.KindUnresolvedReference, "no prototype with identifier %q", r.ID)
		e.Location = r.Location
		return nil, e
	}
	if !reflect.TypeOf(p).AssignableTo(r.Type) {
		e := protoErrors.New(protoErrors.KindMalformedLiteral,
			"prototype %q is a %T, which does not fit a %s field", r.ID, p, r.Type)
		e.Location = r.Location
		return nil, e
	}
	return p, nil
}

// List parses slices whose element type is itself serializable. Items are the
// <li> children of the field element.
func List() Serializer {
	return &listSerializer{}
}

type listSerializer struct{}

func (s *listSerializer) Name() string { return "list" }

func (s *listSerializer) CanBeUsedFor(t reflect.Type, ctx *Context) bool {
	if t.Kind() != reflect.Slice || ctx == nil || ctx.Registry == nil {
		return false
	}
	_, err := ctx.serializerFor(t.Elem())
	return err == nil
}

func (s *listSerializer) Deserialize(t reflect.Type, lit Literal, ctx *Context) (any, error) {
	elemType := t.Elem()
	elemSerializer, err := ctx.serializerFor(elemType)
	if err != nil {
		return nil, err
	}

	items := lit.Items()
	values := make([]any, 0, len(items))
	deferred := false
	for i, item := range items {
		v, err := elemSerializer.Deserialize(elemType, Literal{
			Field: fmt.Sprintf("%s[%d]", lit.Field, i),
			Nodes: []*xmltree.Element{item},
		}, ctx)
		if err != nil {
			if pe, ok := err.(*protoErrors.Error); ok {
				pe.Message = fmt.Sprintf("item %d: %s", i, pe.Message)
				if !pe.Location.IsValid() {
					pe.Location = item.Location
				}
				if pe.IsWarning() {
					values = append(values, v)
					continue
				}
			}
			return nil, err
		}
		if _, ok := v.(Deferred); ok {
			deferred = true
		}
		values = append(values, v)
	}

	if deferred {
		return &deferredList{t: t, values: values}, nil
	}
	return buildSlice(t, values)
}

type deferredList struct {
	t      reflect.Type
	values []any
}

func (d *deferredList) Resolve(r Resolver) (any, error) {
	resolved := make([]any, len(d.values))
	for i, v := range d.values {
		if dv, ok := v.(Deferred); ok {
			rv, err := dv.Resolve(r)
			if err != nil {
				if pe, ok := err.(*protoErrors.Error); ok {
					pe.Message = fmt.Sprintf("item %d: %s", i, pe.Message)
				}
				return nil, err
			}
			v = rv
		}
		resolved[i] = v
	}
	return buildSlice(d.t, resolved)
}

func buildSlice(t reflect.Type, values []any) (any, error) {
	out := reflect.MakeSlice(t, 0, len(values))
	for i, v := range values {
		if v == nil {
			out = reflect.Append(out, reflect.Zero(t.Elem()))
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(t.Elem()) {
			return nil, protoErrors.New(protoErrors.KindMalformedLiteral,
				"item %d: %T does not fit %s", i, v, t.Elem())
		}
		out = reflect.Append(out, rv)
	}
	return out.Interface(), nil
}
