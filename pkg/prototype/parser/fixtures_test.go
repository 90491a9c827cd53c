package parser

import (
	"strings"
	"testing"

	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/value"
)

type SimplePrototype struct {
	schema.Base
	SomeInt int
	Name    string
}

type Color int32

const (
	Red Color = iota
	Green
	Blue
)

type Sample struct {
	schema.Base
	F32   float32
	F64   float64
	I32   int32
	I     int
	I16   int16
	I8    int8
	U8    uint8
	I64   int64
	B     bool
	S     string
	V2    value.Vector2
	V3    value.Vector3
	V4    value.Vector4
	Q     value.Quaternion
	Color Color
	Kind  *schema.Type
	Next  *SimplePrototype
	Ref   schema.Prototype
	Items []int32
	Refs  []*SimplePrototype
}

// Chain must always point somewhere.
type Chain struct {
	schema.Base
	Next *Chain
}

type Named struct {
	schema.Base
	Label string
	Size  int32
}

var (
	simpleType = schema.NewType("Test", "SimplePrototype",
		func() *SimplePrototype { return &SimplePrototype{} },
		schema.Define("someInt", func(p *SimplePrototype, v int) { p.SomeInt = v }),
		schema.Define("name", func(p *SimplePrototype, v string) { p.Name = v }),
	)

	sampleType = schema.NewType("Test", "Sample",
		func() *Sample { return &Sample{} },
		schema.Define("f32", func(p *Sample, v float32) { p.F32 = v }),
		schema.Define("f64", func(p *Sample, v float64) { p.F64 = v }),
		schema.Define("i32", func(p *Sample, v int32) { p.I32 = v }),
		schema.Define("i", func(p *Sample, v int) { p.I = v }),
		schema.Define("i16", func(p *Sample, v int16) { p.I16 = v }),
		schema.Define("i8", func(p *Sample, v int8) { p.I8 = v }),
		schema.Define("u8", func(p *Sample, v uint8) { p.U8 = v }),
		schema.Define("i64", func(p *Sample, v int64) { p.I64 = v }),
		schema.Define("b", func(p *Sample, v bool) { p.B = v }),
		schema.Define("s", func(p *Sample, v string) { p.S = v }),
		schema.Define("v2", func(p *Sample, v value.Vector2) { p.V2 = v }),
		schema.Define("v3", func(p *Sample, v value.Vector3) { p.V3 = v }),
		schema.Define("v4", func(p *Sample, v value.Vector4) { p.V4 = v }),
		schema.Define("q", func(p *Sample, v value.Quaternion) { p.Q = v }),
		schema.Define("color", func(p *Sample, v Color) { p.Color = v }),
		schema.Define("kind", func(p *Sample, v *schema.Type) { p.Kind = v }),
		schema.Define("next", func(p *Sample, v *SimplePrototype) { p.Next = v }),
		schema.Define("ref", func(p *Sample, v schema.Prototype) { p.Ref = v }),
		schema.Define("items", func(p *Sample, v []int32) { p.Items = v }),
		schema.Define("refs", func(p *Sample, v []*SimplePrototype) { p.Refs = v }),
	)

	namedType = schema.NewType("Test", "Named",
		func() *Named { return &Named{} },
		schema.Define("label", func(p *Named, v string) { p.Label = v }, schema.Required()),
		schema.Define("size", func(p *Named, v int32) { p.Size = v }, schema.Default(int32(7))),
	)

	chainType = schema.NewType("Test", "Chain",
		func() *Chain { return &Chain{} },
		schema.Define("next", func(p *Chain, v *Chain) { p.Next = v }, schema.Required()),
	)
)

func testUniverse() *schema.Universe {
	return schema.NewUniverse(
		schema.NewAssembly("test").
			Register(simpleType, sampleType, namedType, chainType).
			RegisterEnum(schema.DefineEnum("Color", map[string]Color{"Red": Red, "Green": Green, "Blue": Blue})),
	)
}

var testParams = Parameters{StandardNamespace: "Test"}

func parseString(t testing.TB, document string) *Result {
	t.Helper()
	result, err := NewParser(testUniverse()).Parse([]byte(document), "test.xml", testParams)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return result
}

func container(typeName string, prototypes ...string) string {
	var sb strings.Builder
	sb.WriteString(`<PrototypeContainer Type="` + typeName + `">` + "\n")
	for _, p := range prototypes {
		sb.WriteString("  " + p + "\n")
	}
	sb.WriteString("</PrototypeContainer>\n")
	return sb.String()
}

// resultLinker exposes earlier results the way a catalog does.
type resultLinker []*Result

func (l resultLinker) LinkedDescriptor(id string) (*Descriptor, bool) {
	for _, r := range l {
		if d, ok := r.Descriptors[id]; ok {
			return d, true
		}
	}
	return nil, false
}

func (l resultLinker) Declared(id string) (string, bool) {
	for _, r := range l {
		if _, ok := r.Declared[id]; ok {
			return r.Source, true
		}
	}
	return "", false
}

func (l resultLinker) LinkedPrototype(id string) (schema.Prototype, bool) {
	for _, r := range l {
		if p, ok := r.Instances[id]; ok {
			return p, true
		}
	}
	return nil, false
}
