package schema

import (
	"reflect"
	"testing"
)

type widget struct {
	Base
	Size  int32
	Label string
}

type gadget struct {
	Base
}

func widgetType() *Type {
	return NewType("Shop", "Widget",
		func() *widget { return &widget{} },
		Define("size", func(w *widget, v int32) { w.Size = v }, Required()),
		Define("label", func(w *widget, v string) { w.Label = v }, Default("unnamed")),
	)
}

func TestNewType(t *testing.T) {
	typ := widgetType()

	if typ.FullName() != "Shop.Widget" {
		t.Errorf("FullName() = %q, want %q", typ.FullName(), "Shop.Widget")
	}
	if typ.GoType() != reflect.TypeFor[*widget]() {
		t.Errorf("GoType() = %v", typ.GoType())
	}
	if got := typ.FieldNames(); !reflect.DeepEqual(got, []string{"label", "size"}) {
		t.Errorf("FieldNames() = %v", got)
	}

	size, ok := typ.Field("size")
	if !ok || !size.Required || size.Type != reflect.TypeFor[int32]() {
		t.Errorf("size field = %+v", size)
	}
	label, _ := typ.Field("label")
	if !label.HasDefault || label.Default != "unnamed" {
		t.Errorf("label field = %+v", label)
	}

	a, b := typ.New(), typ.New()
	if a == b {
		t.Error("New() must return fresh instances")
	}

	text, _ := typ.MarshalText()
	if string(text) != "Shop.Widget" {
		t.Errorf("MarshalText() = %q", text)
	}
}

func TestField_Assign(t *testing.T) {
	typ := widgetType()
	w := typ.New().(*widget)
	size, _ := typ.Field("size")

	if err := size.Assign(w, int32(12)); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if w.Size != 12 {
		t.Errorf("Size = %d, want 12", w.Size)
	}
	if err := size.Assign(w, nil); err != nil || w.Size != 0 {
		t.Errorf("Assign(nil) = %v, Size = %d, want zero value", err, w.Size)
	}
	if err := size.Assign(w, "12"); err == nil {
		t.Error("Assign() with the wrong value type should fail")
	}
	if err := size.Assign(&gadget{}, int32(1)); err == nil {
		t.Error("Assign() on another prototype type should fail")
	}
}

func TestNewType_Panics(t *testing.T) {
	tests := []struct {
		name  string
		build func()
	}{
		{"foreign field", func() {
			NewType("Shop", "Gadget", func() *gadget { return &gadget{} },
				Define("size", func(w *widget, v int32) {}))
		}},
		{"duplicate field", func() {
			NewType("Shop", "Widget", func() *widget { return &widget{} },
				Define("size", func(w *widget, v int32) {}),
				Define("size", func(w *widget, v int32) {}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			tt.build()
		})
	}
}

type mood uint8

func TestUniverse_LookupType(t *testing.T) {
	widgets := widgetType()
	plain := NewType("", "Plain", func() *gadget { return &gadget{} })
	nested := NewType("Shop.Parts", "Bolt", func() *gadget { return &gadget{} })

	u := NewUniverse(
		NewAssembly("first").Register(widgets, plain),
		NewAssembly("second").Register(nested).RegisterEnum(DefineEnum("Mood", map[string]mood{"Calm": 0, "Angry": 1})),
	)

	tests := []struct {
		name string
		ns   string
		want *Type
	}{
		{"Shop.Widget", "", widgets},
		{"Widget", "Shop", widgets},
		{"Widget", "", nil},
		{"Plain", "Shop", plain},
		{"Shop.Parts.Bolt", "Shop", nested},
		{"Parts.Bolt", "Shop", nil}, // qualified names are never prefixed
		{"  ", "Shop", nil},
	}
	for _, tt := range tests {
		got, ok := u.LookupType(tt.name, tt.ns)
		if got != tt.want || ok != (tt.want != nil) {
			t.Errorf("LookupType(%q, %q) = %v, %v; want %v", tt.name, tt.ns, got, ok, tt.want)
		}
	}

	if names := u.TypeNames(); !reflect.DeepEqual(names, []string{"Plain", "Shop.Parts.Bolt", "Shop.Widget"}) {
		t.Errorf("TypeNames() = %v", names)
	}

	enum, ok := u.Enum(reflect.TypeFor[mood]())
	if !ok {
		t.Fatal("Enum(mood) not found")
	}
	if v, ok := enum.Parse("Angry"); !ok || v != mood(1) {
		t.Errorf("Parse(Angry) = %v, %v", v, ok)
	}
	if _, ok := enum.Parse("angry"); ok {
		t.Error("enum lookup must be case sensitive")
	}
	if !reflect.DeepEqual(enum.Names(), []string{"Angry", "Calm"}) {
		t.Errorf("Names() = %v", enum.Names())
	}
}

func TestAssembly_RegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	NewAssembly("dup").Register(widgetType(), widgetType())
}
