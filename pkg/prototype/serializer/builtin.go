package serializer

import (
	"reflect"
	"strconv"
	"strings"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/value"
)

// Builtins returns the built-in serializers in their registration order.
func Builtins() []Serializer {
	return []Serializer{
		Float32(),
		Float64(),
		Int32(),
		Int(),
		Int16(),
		Int8(),
		Uint8(),
		Int64(),
		Bool(),
		String(),
		Vector2(),
		Vector3(),
		Vector4(),
		Quaternion(),
		Enum(),
		TypeName(),
		Reference(),
		List(),
	}
}

// scalar handles exactly one Go type parsed from the element text.
type scalar[T any] struct {
	name  string
	parse func(s string) (T, error)
}

func (s *scalar[T]) Name() string { return s.name }

func (s *scalar[T]) CanBeUsedFor(t reflect.Type, _ *Context) bool {
	return t == reflect.TypeFor[T]()
}

func (s *scalar[T]) Deserialize(_ reflect.Type, lit Literal, _ *Context) (any, error) {
	text := lit.Text()
	v, err := s.parse(text)
	if err != nil {
		return nil, protoErrors.New(protoErrors.KindMalformedLiteral,
			"cannot parse %q as %s: %v", text, s.name, unwrapNumError(err))
	}
	return v, nil
}

// NewScalar builds a serializer for exactly type T from a parse function.
func NewScalar[T any](name string, parse func(s string) (T, error)) Serializer {
	return &scalar[T]{name: name, parse: parse}
}

// Float32 parses 32-bit floats with '.' as decimal point.
func Float32() Serializer {
	return NewScalar("float32", func(s string) (float32, error) {
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	})
}

// Float64 parses 64-bit floats.
func Float64() Serializer {
	return NewScalar("float64", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// Int32 parses 32-bit integers.
func Int32() Serializer {
	return NewScalar("int32", func(s string) (int32, error) {
		i, err := strconv.ParseInt(s, 10, 32)
		return int32(i), err
	})
}

// Int parses platform-sized integers, limited to the 32-bit range.
func Int() Serializer {
	return NewScalar("int", func(s string) (int, error) {
		i, err := strconv.ParseInt(s, 10, 32)
		return int(i), err
	})
}

// Int16 parses 16-bit integers.
func Int16() Serializer {
	return NewScalar("int16", func(s string) (int16, error) {
		i, err := strconv.ParseInt(s, 10, 16)
		return int16(i), err
	})
}

// Int8 parses signed 8-bit integers.
func Int8() Serializer {
	return NewScalar("int8", func(s string) (int8, error) {
		i, err := strconv.ParseInt(s, 10, 8)
		return int8(i), err
	})
}

// Uint8 parses bytes.
func Uint8() Serializer {
	return NewScalar("uint8", func(s string) (uint8, error) {
		i, err := strconv.ParseUint(s, 10, 8)
		return uint8(i), err
	})
}

// Int64 parses 64-bit integers.
func Int64() Serializer {
	return NewScalar("int64", func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// Bool parses booleans with strconv.ParseBool, so "True", "true" and "1" are all true.
func Bool() Serializer {
	return NewScalar("bool", strconv.ParseBool)
}

// String returns the element text as is, without trimming.
func String() Serializer {
	return &stringSerializer{}
}

type stringSerializer struct{}

func (s *stringSerializer) Name() string { return "string" }

func (s *stringSerializer) CanBeUsedFor(t reflect.Type, _ *Context) bool {
	return t == reflect.TypeFor[string]()
}

func (s *stringSerializer) Deserialize(_ reflect.Type, lit Literal, _ *Context) (any, error) {
	if e := lit.Element(); e != nil {
		return e.Text, nil
	}
	return "", nil
}

// vector parses comma-separated float components.
type vector[T any] struct {
	name  string
	arity int
	build func(c []float32) T
}

func (v *vector[T]) Name() string { return v.name }

func (v *vector[T]) CanBeUsedFor(t reflect.Type, _ *Context) bool {
	return t == reflect.TypeFor[T]()
}

func (v *vector[T]) Deserialize(_ reflect.Type, lit Literal, _ *Context) (any, error) {
	text := lit.Text()
	components, err := ParseComponents(text, v.arity)
	if err != nil {
		return nil, protoErrors.New(protoErrors.KindMalformedLiteral, "%s literal %q: %v", v.name, text, err)
	}
	return v.build(components), nil
}

// ParseComponents splits a comma-separated list and parses the first arity floats.
// Fewer components than arity is an error; extra components are ignored.
func ParseComponents(text string, arity int) ([]float32, error) {
	parts := strings.Split(text, ",")
	if len(parts) < arity || strings.TrimSpace(text) == "" {
		return nil, &ArityError{Expected: arity, Got: countComponents(text, parts)}
	}
	out := make([]float32, arity)
	for i := 0; i < arity; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 32)
		if err != nil {
			return nil, unwrapNumError(err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func countComponents(text string, parts []string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(parts)
}

// ArityError reports a vector literal with too few components.
type ArityError struct {
	Expected int
	Got      int
}

func (e *ArityError) Error() string {
	return "expected " + strconv.Itoa(e.Expected) + " components, got " + strconv.Itoa(e.Got)
}

// Vector2 parses "x,y".
func Vector2() Serializer {
	return &vector[value.Vector2]{name: "Vector2", arity: 2, build: func(c []float32) value.Vector2 {
		return value.Vector2{X: c[0], Y: c[1]}
	}}
}

// Vector3 parses "x,y,z".
func Vector3() Serializer {
	return &vector[value.Vector3]{name: "Vector3", arity: 3, build: func(c []float32) value.Vector3 {
		return value.Vector3{X: c[0], Y: c[1], Z: c[2]}
	}}
}

// Vector4 parses "x,y,z,w".
func Vector4() Serializer {
	return &vector[value.Vector4]{name: "Vector4", arity: 4, build: func(c []float32) value.Vector4 {
		return value.Vector4{X: c[0], Y: c[1], Z: c[2], W: c[3]}
	}}
}

// Quaternion parses "x,y,z,w".
func Quaternion() Serializer {
	return &vector[value.Quaternion]{name: "Quaternion", arity: 4, build: func(c []float32) value.Quaternion {
		return value.Quaternion{X: c[0], Y: c[1], Z: c[2], W: c[3]}
	}}
}

// unwrapNumError drops the "strconv.ParseX: parsing ..." prefix, which repeats the literal.
func unwrapNumError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
