package parser

import (
	"errors"
	"fmt"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/serializer"
)

// pendingLink is a field whose value can only be produced once every instance exists.
type pendingLink struct {
	descriptor *Descriptor
	instance   schema.Prototype
	field      *schema.Field
	value      *FieldValue
	deferred   serializer.Deferred

	// targets lists the batch instances the resolved value points at.
	targets []string
	failed  bool
}

// builder turns resolved descriptors into instances.
type builder struct {
	state     *State
	container *Container
	local     map[string]*Descriptor

	instances map[string]schema.Prototype
	pending   []pendingLink
}

func newBuilder(st *State, c *Container, local map[string]*Descriptor) *builder {
	return &builder{
		state:     st,
		container: c,
		local:     local,
		instances: make(map[string]schema.Prototype, len(c.Descriptors)),
	}
}

// instantiateAll builds every resolved, non-abstract descriptor in document order.
func (b *builder) instantiateAll() {
	for _, d := range b.container.Descriptors {
		if !d.Resolved() || d.Abstract {
			continue
		}
		if inst, ok := b.instantiate(d); ok {
			b.instances[d.ID] = inst
		} else {
			d.buildFailed = true
		}
	}
}

func (b *builder) instantiate(d *Descriptor) (schema.Prototype, bool) {
	t := d.Type
	if t == nil {
		// An unknown container type has already been reported once.
		if b.container.TypeName == "" {
			e := protoErrors.New(protoErrors.KindUnknownType,
				"prototype has no type: set Type on the container or the prototype")
			e.PrototypeID = d.ID
			e.Location = d.Location
			b.state.addError(e)
		}
		return nil, false
	}

	inst := t.New()
	inst.SetIdentifier(d.ID)
	b.reportUnknownFields(d, t)

	var pending []pendingLink
	ok := true
	for _, f := range t.Fields() {
		v, has := d.Effective.Get(f.Name)
		if !has {
			if f.HasDefault {
				b.assign(d, inst, f, f.Default)
			} else if f.Required {
				e := protoErrors.New(protoErrors.KindMissingField, "required field %q has no value", f.Name)
				e.PrototypeID = d.ID
				e.Field = f.Name
				e.Location = d.Location
				e.Suggestion = protoErrors.SuggestMissingField(f.Name, "")
				b.state.addError(e)
				ok = false
			}
			continue
		}

		value, err := b.deserialize(d, f, v)
		if err != nil {
			if !b.fallback(d, inst, f) {
				ok = false
			}
			continue
		}
		if deferred, isDeferred := value.(serializer.Deferred); isDeferred {
			pending = append(pending, pendingLink{
				descriptor: d, instance: inst, field: f, value: v, deferred: deferred,
			})
			continue
		}
		if !b.assign(d, inst, f, value) && !b.fallback(d, inst, f) {
			ok = false
		}
	}

	if !ok {
		return nil, false
	}
	b.pending = append(b.pending, pending...)
	return inst, true
}

// deserialize converts one field literal. Warnings are recorded and their value is kept.
func (b *builder) deserialize(d *Descriptor, f *schema.Field, v *FieldValue) (any, error) {
	ser, err := b.state.serializerFor(f.Type)
	if err != nil {
		b.reportField(d, f, v, err)
		return nil, err
	}

	value, err := ser.Deserialize(f.Type, serializer.Literal{Field: f.Name, Nodes: v.Nodes}, b.state.ctx)
	if err != nil {
		var pe *protoErrors.Error
		if errors.As(err, &pe) && pe.IsWarning() {
			b.reportField(d, f, v, pe)
			return value, nil
		}
		b.reportField(d, f, v, err)
		return nil, err
	}
	return value, nil
}

// fallback handles a field whose value could not be produced. It reports whether the
// descriptor can still be instantiated.
func (b *builder) fallback(d *Descriptor, inst schema.Prototype, f *schema.Field) bool {
	if f.HasDefault {
		return b.assign(d, inst, f, f.Default)
	}
	if !f.Required {
		return true
	}
	e := protoErrors.New(protoErrors.KindMissingField, "required field %q has no usable value", f.Name)
	e.PrototypeID = d.ID
	e.Field = f.Name
	e.Location = d.Location
	b.state.addError(e)
	return false
}

func (b *builder) assign(d *Descriptor, inst schema.Prototype, f *schema.Field, value any) bool {
	if err := f.Assign(inst, value); err != nil {
		e := protoErrors.New(protoErrors.KindMalformedLiteral, "%v", err)
		e.PrototypeID = d.ID
		e.Field = f.Name
		e.Location = d.Location
		b.state.addError(e)
		return false
	}
	return true
}

// reportField records a field diagnostic against the prototype that declared the
// literal. A literal shared through inheritance is reported once per field type.
func (b *builder) reportField(d *Descriptor, f *schema.Field, v *FieldValue, err error) {
	if !b.state.literalOnce(v, f.Type) {
		return
	}
	var pe *protoErrors.Error
	if errors.As(err, &pe) {
		// Serializer lookups are cached per run, so the same error value can come back
		// for several prototypes.
		copied := *pe
		pe = &copied
	} else {
		pe = protoErrors.New(protoErrors.KindMalformedLiteral, "%v", err)
	}
	pe.PrototypeID = v.Declarer
	if pe.PrototypeID == "" {
		pe.PrototypeID = d.ID
	}
	pe.Field = f.Name
	if !pe.Location.IsValid() {
		if e := v.Element(); e != nil {
			pe.Location = e.Location
		} else {
			pe.Location = d.Location
		}
	}
	b.state.addError(pe)
}

// reportUnknownFields flags declared elements that name no field of t.
func (b *builder) reportUnknownFields(d *Descriptor, t *schema.Type) {
	for _, name := range d.Effective.Names() {
		if _, known := t.Field(name); known {
			continue
		}
		v, _ := d.Effective.Get(name)
		if !b.state.once("field\x00" + v.Declarer + "\x00" + t.FullName() + "\x00" + name) {
			continue
		}
		e := protoErrors.New(protoErrors.KindUnknownField, "%s has no field %q", t.FullName(), name)
		e.PrototypeID = v.Declarer
		e.Field = name
		if el := v.Element(); el != nil {
			e.Location = el.Location
		}
		e.Suggestion = protoErrors.SuggestName(name, t.FieldNames())
		b.state.addError(e)
	}
}

// link resolves every pending deferred value against the batch and the linker.
// Descriptors that lose a required field here are removed from the result, and so are
// descriptors whose required references point at them, until no more are removed.
// The outcome does not depend on document order.
func (b *builder) link() {
	res := &batchResolver{instances: b.instances, linker: b.state.Params.Linker}
	dead := make(map[string]bool)

	for i := range b.pending {
		p := &b.pending[i]
		if dead[p.descriptor.ID] {
			p.failed = true
			continue
		}
		res.hits = nil
		value, err := p.deferred.Resolve(res)
		if err == nil && b.assign(p.descriptor, p.instance, p.field, value) {
			p.targets = res.hits
			continue
		}
		p.failed = true
		if err != nil {
			var pe *protoErrors.Error
			if errors.As(err, &pe) && pe.Kind == protoErrors.KindUnresolvedReference {
				pe.Suggestion = b.referenceHint(res.missing)
			}
			b.reportField(p.descriptor, p.field, p.value, err)
		}
		if !b.fallback(p.descriptor, p.instance, p.field) {
			dead[p.descriptor.ID] = true
		}
	}

	for changed := len(dead) > 0; changed; {
		changed = false
		for i := range b.pending {
			p := &b.pending[i]
			if p.failed || dead[p.descriptor.ID] {
				continue
			}
			target, ok := firstDead(p.targets, dead)
			if !ok {
				continue
			}
			p.failed = true
			_ = p.field.Assign(p.instance, nil)

			e := protoErrors.New(protoErrors.KindUnresolvedReference, "no prototype with identifier %q", target)
			e.Suggestion = fmt.Sprintf("prototype %q failed to parse; see its errors", target)
			b.reportField(p.descriptor, p.field, p.value, e)
			if !b.fallback(p.descriptor, p.instance, p.field) {
				dead[p.descriptor.ID] = true
				changed = true
			}
		}
	}

	for id := range dead {
		delete(b.instances, id)
		if d, ok := b.local[id]; ok {
			d.buildFailed = true
		}
	}
	b.pending = nil
}

func firstDead(ids []string, dead map[string]bool) (string, bool) {
	for _, id := range ids {
		if dead[id] {
			return id, true
		}
	}
	return "", false
}

// referenceHint explains why an identifier declared in this batch or an earlier one
// has no instance.
func (b *builder) referenceHint(id string) string {
	d, ok := b.local[id]
	switch {
	case ok && d.Abstract:
		return fmt.Sprintf("prototype %q is abstract and has no instance", id)
	case ok && (d.Failed() || d.BuildFailed()):
		return fmt.Sprintf("prototype %q failed to parse; see its errors", id)
	case ok:
		return ""
	}
	if linker := b.state.Params.Linker; linker != nil {
		if source, declared := linker.Declared(id); declared {
			return fmt.Sprintf("prototype %q declared in %s has no instance", id, source)
		}
	}
	return ""
}

// batchResolver finds referenced prototypes in the current batch, then in the linker.
type batchResolver struct {
	instances map[string]schema.Prototype
	linker    Linker

	// missing is the last identifier that could not be resolved.
	missing string

	// hits collects the batch identifiers resolved since it was last cleared.
	hits []string
}

func (r *batchResolver) ResolvePrototype(id string) (schema.Prototype, bool) {
	if p, ok := r.instances[id]; ok {
		r.hits = append(r.hits, id)
		return p, true
	}
	if r.linker != nil {
		if p, ok := r.linker.LinkedPrototype(id); ok {
			return p, true
		}
	}
	r.missing = id
	return nil, false
}
