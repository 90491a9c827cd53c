package parser

import (
	"reflect"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/serializer"
)

// State is the context of a single parse run. Nothing in it outlives the run or is
// shared with concurrent runs.
type State struct {
	Params Parameters
	Source string

	universe *schema.Universe
	registry *serializer.Registry
	ctx      *serializer.Context

	// ids interns identifiers so descriptors, graph edges and instances share strings.
	ids map[string]string

	// graph is the dependency graph being built: identifier -> parent identifier.
	graph map[string]string

	serializers map[reflect.Type]serializerEntry

	// reported de-duplicates diagnostics that would otherwise repeat per descendant.
	reported map[string]struct{}
	literals map[literalKey]struct{}

	errors   *protoErrors.ErrorList
	warnings *protoErrors.ErrorList
}

type literalKey struct {
	value *FieldValue
	t     reflect.Type
}

type serializerEntry struct {
	serializer serializer.Serializer
	err        error
}

func newState(source string, params Parameters, universe *schema.Universe, registry *serializer.Registry) *State {
	s := &State{
		Params:      params,
		Source:      source,
		universe:    universe,
		registry:    registry,
		ids:         make(map[string]string),
		graph:       make(map[string]string),
		serializers: make(map[reflect.Type]serializerEntry),
		reported:    make(map[string]struct{}),
		literals:    make(map[literalKey]struct{}),
		errors:      protoErrors.NewErrorList(),
		warnings:    protoErrors.NewErrorList(),
	}
	s.ctx = &serializer.Context{
		Universe:          universe,
		StandardNamespace: params.StandardNamespace,
		Registry:          registry,
		Resolve:           s.serializerFor,
	}
	return s
}

// intern returns the canonical copy of id.
func (s *State) intern(id string) string {
	if canonical, ok := s.ids[id]; ok {
		return canonical
	}
	s.ids[id] = id
	return id
}

// link records the edge child -> parent in the dependency graph.
func (s *State) link(child, parent string) {
	s.graph[child] = parent
}

// Parent returns the declared parent of id in this run.
func (s *State) Parent(id string) (string, bool) {
	p, ok := s.graph[id]
	return p, ok
}

// serializerFor resolves the serializer for t, caching hits and misses for the run.
func (s *State) serializerFor(t reflect.Type) (serializer.Serializer, error) {
	if entry, ok := s.serializers[t]; ok {
		return entry.serializer, entry.err
	}
	// Reserve the slot first so a recursive list lookup for the same type terminates.
	s.serializers[t] = serializerEntry{err: protoErrors.New(protoErrors.KindUnsupportedType, "recursive type %s", t)}
	ser, err := s.registry.Resolve(t, s.ctx)
	s.serializers[t] = serializerEntry{serializer: ser, err: err}
	return ser, err
}

// once reports whether key is seen for the first time in this run.
func (s *State) once(key string) bool {
	if _, seen := s.reported[key]; seen {
		return false
	}
	s.reported[key] = struct{}{}
	return true
}

// literalOnce reports whether the failure of v as type t is seen for the first time.
// Inherited values are shared between descendants, so one bad literal in a base is
// reported once rather than once per child.
func (s *State) literalOnce(v *FieldValue, t reflect.Type) bool {
	key := literalKey{value: v, t: t}
	if _, seen := s.literals[key]; seen {
		return false
	}
	s.literals[key] = struct{}{}
	return true
}

func (s *State) addError(e *protoErrors.Error) {
	if e.Source == "" {
		e.Source = s.Source
	}
	if e.IsWarning() {
		s.warnings.Add(e)
		return
	}
	s.errors.Add(e)
}
