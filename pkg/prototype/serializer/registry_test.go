package serializer

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/value"
	"unitytk/protokit/pkg/prototype/xmltree"
)

func literal(text string) Literal {
	return Literal{Field: "f", Nodes: []*xmltree.Element{{Name: "f", Text: text, Location: xmltree.Location{Line: 1, Column: 1}}}}
}

// anyInteger accepts every integer kind, shadowing the narrower built-ins after it.
type anyInteger struct{}

func (anyInteger) Name() string { return "any-integer" }

func (anyInteger) CanBeUsedFor(t reflect.Type, _ *Context) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func (anyInteger) Deserialize(t reflect.Type, _ Literal, _ *Context) (any, error) {
	return reflect.Zero(t).Interface(), nil
}

func TestRegistry_Resolve_FirstMatchWins(t *testing.T) {
	r := NewRegistry().Register(anyInteger{}).Register(Builtins()...)

	for _, typ := range []reflect.Type{reflect.TypeFor[int32](), reflect.TypeFor[int8](), reflect.TypeFor[int64]()} {
		s, err := r.Resolve(typ, nil)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", typ, err)
		}
		if s.Name() != "any-integer" {
			t.Errorf("Resolve(%s) = %s, want any-integer (registered first)", typ, s.Name())
		}
	}

	s, err := r.Resolve(reflect.TypeFor[float32](), nil)
	if err != nil || s.Name() != "float32" {
		t.Errorf("Resolve(float32) = %v, %v", s, err)
	}
}

func TestRegistry_Resolve_RegistrationOrder(t *testing.T) {
	r := NewRegistry().Register(Builtins()...).Register(anyInteger{})

	s, err := r.Resolve(reflect.TypeFor[int32](), nil)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if s.Name() != "int32" {
		t.Errorf("Resolve(int32) = %s, want int32", s.Name())
	}
}

func TestRegistry_Resolve_Unsupported(t *testing.T) {
	type opaque struct{}
	_, err := NewDefaultRegistry().Resolve(reflect.TypeFor[opaque](), nil)
	if err == nil {
		t.Fatal("Resolve() should fail")
	}
	if !errors.Is(err, &protoErrors.Error{Kind: protoErrors.KindUnsupportedType}) {
		t.Errorf("error = %v, want unsupported_type", err)
	}
}

func TestRegistry_Resolve_SharedContext(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := &Context{StandardNamespace: "Test"}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(reflect.TypeFor[[]int32](), ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Resolve([]int32) failed: %v", err)
	}
	if ctx.Registry != nil {
		t.Error("Resolve() should not modify the caller's context")
	}
}

func TestRegistry_RegisterAfterResolvePanics(t *testing.T) {
	r := NewDefaultRegistry()
	if _, err := r.Resolve(reflect.TypeFor[bool](), nil); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("Register() after Resolve() should panic")
		}
	}()
	r.Register(anyInteger{})
}

func TestDefault_IsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same registry")
	}
	if Default().Len() != len(Builtins()) {
		t.Errorf("Default().Len() = %d, want %d", Default().Len(), len(Builtins()))
	}
}

func TestBuiltins_Deserialize(t *testing.T) {
	ctx := &Context{Registry: NewDefaultRegistry()}

	tests := []struct {
		name    string
		typ     reflect.Type
		literal string
		want    any
	}{
		{"float32", reflect.TypeFor[float32](), "1.5", float32(1.5)},
		{"float32 exponent", reflect.TypeFor[float32](), "2e3", float32(2000)},
		{"float64", reflect.TypeFor[float64](), "0.125", 0.125},
		{"int32", reflect.TypeFor[int32](), " 32 ", int32(32)},
		{"int", reflect.TypeFor[int](), "-5", -5},
		{"int16", reflect.TypeFor[int16](), "-32768", int16(-32768)},
		{"int8", reflect.TypeFor[int8](), "127", int8(127)},
		{"uint8", reflect.TypeFor[uint8](), "0", uint8(0)},
		{"bool True", reflect.TypeFor[bool](), "True", true},
		{"bool 0", reflect.TypeFor[bool](), "0", false},
		{"vector2", reflect.TypeFor[value.Vector2](), "1, 2", value.Vector2{X: 1, Y: 2}},
		{"vector3 extra ignored", reflect.TypeFor[value.Vector3](), "1,2,3,4", value.Vector3{X: 1, Y: 2, Z: 3}},
		{"quaternion", reflect.TypeFor[value.Quaternion](), "0,0.7071,0,0.7071", value.Quaternion{Y: 0.7071, W: 0.7071}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ctx.Registry.Resolve(tt.typ, ctx)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			got, err := s.Deserialize(tt.typ, literal(tt.literal), ctx)
			if err != nil {
				t.Fatalf("Deserialize(%q) failed: %v", tt.literal, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Deserialize(%q) = %#v, want %#v", tt.literal, got, tt.want)
			}
		})
	}
}

func TestParseComponents_Arity(t *testing.T) {
	tests := []struct {
		text  string
		arity int
		got   int
	}{
		{"1.5,2.5", 3, 2},
		{"", 2, 0},
		{"1", 4, 1},
	}
	for _, tt := range tests {
		_, err := ParseComponents(tt.text, tt.arity)
		var arity *ArityError
		if !errors.As(err, &arity) {
			t.Fatalf("ParseComponents(%q) error = %v, want *ArityError", tt.text, err)
		}
		if arity.Expected != tt.arity || arity.Got != tt.got {
			t.Errorf("ParseComponents(%q) = %+v, want expected %d got %d", tt.text, arity, tt.arity, tt.got)
		}
	}
}

type level int

func TestEnumAndTypeName(t *testing.T) {
	thing := schema.NewType("Game", "Thing", func() *schema.Base { return &schema.Base{} })
	u := schema.NewUniverse(schema.NewAssembly("a").
		Register(thing).
		RegisterEnum(schema.DefineEnum("Level", map[string]level{"Low": 0, "High": 1})))
	ctx := &Context{Universe: u, StandardNamespace: "Game", Registry: NewDefaultRegistry()}

	enum, err := ctx.Registry.Resolve(reflect.TypeFor[level](), ctx)
	if err != nil || enum.Name() != "enum" {
		t.Fatalf("Resolve(level) = %v, %v", enum, err)
	}
	v, err := enum.Deserialize(reflect.TypeFor[level](), literal("High"), ctx)
	if err != nil || v != level(1) {
		t.Errorf("Deserialize(High) = %v, %v", v, err)
	}
	if _, err := enum.Deserialize(reflect.TypeFor[level](), literal("high"), ctx); err == nil {
		t.Error("enum lookup must be case sensitive")
	}

	typeName, err := ctx.Registry.Resolve(reflect.TypeFor[*schema.Type](), ctx)
	if err != nil || typeName.Name() != "type" {
		t.Fatalf("Resolve(*schema.Type) = %v, %v", typeName, err)
	}
	for _, name := range []string{"Thing", "Game.Thing"} {
		got, err := typeName.Deserialize(nil, literal(name), ctx)
		if err != nil || got != thing {
			t.Errorf("Deserialize(%q) = %v, %v", name, got, err)
		}
	}
	got, err := typeName.Deserialize(nil, literal("Missing"), ctx)
	var pe *protoErrors.Error
	if !errors.As(err, &pe) || !pe.IsWarning() || pe.Kind != protoErrors.KindTypeNotFound {
		t.Errorf("missing type error = %v, want type_not_found warning", err)
	}
	if got.(*schema.Type) != nil {
		t.Errorf("missing type value = %v, want nil", got)
	}
}

type stubResolver map[string]schema.Prototype

func (s stubResolver) ResolvePrototype(id string) (schema.Prototype, bool) {
	p, ok := s[id]
	return p, ok
}

func TestReferenceAndList(t *testing.T) {
	ctx := &Context{Registry: NewDefaultRegistry()}
	target := &schema.Base{ID: "target"}
	res := stubResolver{"target": target}

	listType := reflect.TypeFor[[]*schema.Base]()
	s, err := ctx.Registry.Resolve(listType, ctx)
	if err != nil || s.Name() != "list" {
		t.Fatalf("Resolve([]*schema.Base) = %v, %v", s, err)
	}

	lit := Literal{Field: "refs", Nodes: []*xmltree.Element{{
		Name: "refs",
		Children: []*xmltree.Element{
			{Name: ItemElement, Text: "target"},
			{Name: ItemElement, Text: " target "},
		},
	}}}
	v, err := s.Deserialize(listType, lit, ctx)
	if err != nil {
		t.Fatalf("Deserialize() failed: %v", err)
	}
	deferred, ok := v.(Deferred)
	if !ok {
		t.Fatalf("Deserialize() = %T, want Deferred", v)
	}
	resolved, err := deferred.Resolve(res)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	refs := resolved.([]*schema.Base)
	if len(refs) != 2 || refs[0] != target || refs[1] != target {
		t.Errorf("refs = %v", refs)
	}

	if _, err := deferred.Resolve(stubResolver{}); !errors.Is(err, &protoErrors.Error{Kind: protoErrors.KindUnresolvedReference}) {
		t.Errorf("missing reference error = %v", err)
	}
}
