package schema

import (
	"reflect"
	"sort"
)

// Integer is the set of underlying types an enum may have.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32
}

// Enum maps the symbolic names of a named integer type to its values.
type Enum struct {
	Name string
	Type reflect.Type

	values map[string]any
	names  []string
}

// DefineEnum declares the symbolic names of E. Lookup is case sensitive.
func DefineEnum[E Integer](name string, values map[string]E) *Enum {
	e := &Enum{
		Name:   name,
		Type:   reflect.TypeFor[E](),
		values: make(map[string]any, len(values)),
		names:  make([]string, 0, len(values)),
	}
	for symbol, v := range values {
		e.values[symbol] = v
		e.names = append(e.names, symbol)
	}
	sort.Strings(e.names)
	return e
}

// Parse returns the value for symbol.
func (e *Enum) Parse(symbol string) (any, bool) {
	v, ok := e.values[symbol]
	return v, ok
}

// Names returns the sorted symbolic names.
func (e *Enum) Names() []string {
	return e.names
}
