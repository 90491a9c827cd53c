package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Assembly is a named group of prototype types and enums, registered together
// by the package that owns them.
type Assembly struct {
	Name string

	types []*Type
	byFQN map[string]*Type
	enums map[reflect.Type]*Enum
}

// NewAssembly creates an empty assembly.
func NewAssembly(name string) *Assembly {
	return &Assembly{
		Name:  name,
		byFQN: make(map[string]*Type),
		enums: make(map[reflect.Type]*Enum),
	}
}

// Register adds prototype types. It panics on a duplicate full name.
func (a *Assembly) Register(types ...*Type) *Assembly {
	for _, t := range types {
		name := t.FullName()
		if _, dup := a.byFQN[name]; dup {
			panic(fmt.Sprintf("schema: type %q registered twice in assembly %q", name, a.Name))
		}
		a.byFQN[name] = t
		a.types = append(a.types, t)
	}
	return a
}

// RegisterEnum adds enum declarations.
func (a *Assembly) RegisterEnum(enums ...*Enum) *Assembly {
	for _, e := range enums {
		a.enums[e.Type] = e
	}
	return a
}

// Lookup finds a type by exact full name.
func (a *Assembly) Lookup(fullName string) (*Type, bool) {
	t, ok := a.byFQN[fullName]
	return t, ok
}

// Types returns the types in registration order.
func (a *Assembly) Types() []*Type {
	return a.types
}

// Universe is the set of assemblies type names are resolved against.
// It is built before parsing starts and only read afterwards.
type Universe struct {
	assemblies []*Assembly
}

// NewUniverse creates a universe over the given assemblies.
func NewUniverse(assemblies ...*Assembly) *Universe {
	return &Universe{assemblies: assemblies}
}

// Add appends an assembly. Not safe to call while parses are running.
func (u *Universe) Add(a *Assembly) {
	u.assemblies = append(u.assemblies, a)
}

// Assemblies returns the assemblies in lookup order.
func (u *Universe) Assemblies() []*Assembly {
	return u.assemblies
}

// LookupType resolves a type name. The bare name is tried in every assembly first;
// if it contains no namespace separator, standardNamespace + "." + name is tried next.
// The first match wins.
func (u *Universe) LookupType(name, standardNamespace string) (*Type, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}

	for _, a := range u.assemblies {
		if t, ok := a.Lookup(name); ok {
			return t, true
		}
	}

	if standardNamespace != "" && !strings.Contains(name, ".") {
		qualified := standardNamespace + "." + name
		for _, a := range u.assemblies {
			if t, ok := a.Lookup(qualified); ok {
				return t, true
			}
		}
	}

	return nil, false
}

// Enum returns the enum declaration for a Go type.
func (u *Universe) Enum(t reflect.Type) (*Enum, bool) {
	for _, a := range u.assemblies {
		if e, ok := a.enums[t]; ok {
			return e, true
		}
	}
	return nil, false
}

// TypeNames returns every registered full type name, sorted.
func (u *Universe) TypeNames() []string {
	var names []string
	for _, a := range u.assemblies {
		for _, t := range a.types {
			names = append(names, t.FullName())
		}
	}
	sort.Strings(names)
	return names
}
