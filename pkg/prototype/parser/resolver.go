package parser

import (
	"strings"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
)

// resolver computes effective field sets and types over the descriptors of one run.
// Each descriptor is resolved at most once; a descriptor met again while it is still
// on the stack closes a cycle.
type resolver struct {
	state     *State
	container *Container
	local     map[string]*Descriptor
	linker    Linker
	stack     []*Descriptor
}

func newResolver(st *State, c *Container, local map[string]*Descriptor) *resolver {
	return &resolver{
		state:     st,
		container: c,
		local:     local,
		linker:    st.Params.Linker,
	}
}

// resolveAll resolves every descriptor in document order.
func (r *resolver) resolveAll() {
	for _, d := range r.container.Descriptors {
		r.resolve(d)
	}
}

// resolve returns true when d ends up resolved.
func (r *resolver) resolve(d *Descriptor) bool {
	switch d.status {
	case statusResolved:
		return true
	case statusFailed:
		return false
	case statusResolving:
		r.cycle(d)
		return false
	}

	d.status = statusResolving
	r.stack = append(r.stack, d)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	var (
		inherited  *FieldSet
		parentType *schema.Type
	)

	if d.Parent != "" {
		if parent, ok := r.local[d.Parent]; ok {
			if !r.resolve(parent) {
				if d.status == statusFailed {
					// d is itself a member of the cycle that failed the parent.
					return false
				}
				r.fail(d, "parent %q failed to resolve", d.Parent)
				return false
			}
			inherited, parentType = parent.Effective, parent.Type
		} else if linked, ok := r.linked(d.Parent); ok {
			inherited, parentType = linked.Effective, linked.Type
		} else if source, declared := r.declaredEarlier(d.Parent); declared {
			r.fail(d, "parent %q declared in %s failed to resolve", d.Parent, source)
			return false
		} else {
			e := r.fail(d, "parent %q is not declared", d.Parent)
			e.Suggestion = protoErrors.SuggestName(d.Parent, r.candidates())
			return false
		}
	}

	switch {
	case d.ownType != nil:
		d.Type = d.ownType
	case parentType != nil:
		d.Type = parentType
	default:
		d.Type = r.container.Type
	}

	d.Effective = overlay(inherited, d.Fields)
	d.status = statusResolved
	return true
}

func (r *resolver) linked(id string) (*Descriptor, bool) {
	if r.linker == nil {
		return nil, false
	}
	d, ok := r.linker.LinkedDescriptor(id)
	if !ok || d == nil || !d.Resolved() {
		return nil, false
	}
	return d, true
}

func (r *resolver) declaredEarlier(id string) (string, bool) {
	if r.linker == nil {
		return "", false
	}
	return r.linker.Declared(id)
}

// cycle fails every descriptor between the first occurrence of d on the stack and the
// top of the stack.
func (r *resolver) cycle(d *Descriptor) {
	start := len(r.stack) - 1
	for start >= 0 && r.stack[start] != d {
		start--
	}
	if start < 0 {
		return
	}

	members := r.stack[start:]
	names := make([]string, 0, len(members)+1)
	for _, m := range members {
		names = append(names, m.ID)
		m.status = statusFailed
	}
	names = append(names, d.ID)

	e := protoErrors.New(protoErrors.KindCyclicInheritance, "inheritance cycle %s", strings.Join(names, " -> "))
	e.PrototypeID = d.ID
	e.Location = d.Location
	e.Cycle = names[:len(names)-1]
	r.state.addError(e)
}

func (r *resolver) fail(d *Descriptor, format string, args ...any) *protoErrors.Error {
	d.status = statusFailed
	e := protoErrors.New(protoErrors.KindUnresolvedInheritance, format, args...)
	e.PrototypeID = d.ID
	e.Location = d.Location
	r.state.addError(e)
	return e
}

func (r *resolver) candidates() []string {
	ids := make([]string, 0, len(r.local))
	for _, d := range r.container.Descriptors {
		ids = append(ids, d.ID)
	}
	return ids
}
