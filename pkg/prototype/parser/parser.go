package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	protoErrors "unitytk/protokit/pkg/prototype/errors"
	"unitytk/protokit/pkg/prototype/schema"
	"unitytk/protokit/pkg/prototype/serializer"
	"unitytk/protokit/pkg/prototype/xmltree"
)

// Linker exposes prototypes completed by earlier batches sharing the same namespace.
// Descriptors returned by LinkedDescriptor must be resolved; they act as parents.
// Declared reports every identifier an earlier batch declared, including those that
// failed, and the source that declared it.
type Linker interface {
	LinkedDescriptor(id string) (*Descriptor, bool)
	LinkedPrototype(id string) (schema.Prototype, bool)
	Declared(id string) (source string, ok bool)
}

// Parameters configure one Parse call.
type Parameters struct {
	// StandardNamespace is prefixed to bare type names that no assembly declares as is.
	StandardNamespace string

	// Linker, when set, makes earlier batches visible to Inherits and references.
	Linker Linker

	// Universe overrides the parser's universe for this call.
	Universe *schema.Universe

	// IncludeContext attaches a source excerpt to every located diagnostic.
	IncludeContext bool
}

// Result is the outcome of one Parse call.
type Result struct {
	Source        string
	ContainerType *schema.Type

	// Instances maps identifier to the finished prototype.
	Instances map[string]schema.Prototype

	// Order lists the identifiers of Instances in document order.
	Order []string

	// Descriptors holds every successfully resolved descriptor, abstract ones and ones
	// that produced no instance included, so later batches can inherit from them.
	Descriptors map[string]*Descriptor

	// Declared holds every descriptor accepted from the document, failed ones included.
	// Identifiers in it are taken for later batches.
	Declared map[string]*Descriptor

	Errors   *protoErrors.ErrorList
	Warnings *protoErrors.ErrorList
	Duration time.Duration
}

// Len returns the number of instances.
func (r *Result) Len() int {
	return len(r.Instances)
}

// HasErrors reports whether any descriptor-level error was collected.
func (r *Result) HasErrors() bool {
	return r.Errors.HasErrors()
}

// Prototypes returns the instances in document order.
func (r *Result) Prototypes() []schema.Prototype {
	out := make([]schema.Prototype, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.Instances[id])
	}
	return out
}

// Get returns the instance with the given identifier as a T.
func Get[T schema.Prototype](r *Result, id string) (T, bool) {
	var zero T
	p, ok := r.Instances[id]
	if !ok {
		return zero, false
	}
	t, ok := p.(T)
	return t, ok
}

// Parser turns prototype documents into instances. A Parser holds no per-call state
// and may be used from several goroutines at once.
type Parser struct {
	universe     *schema.Universe
	registry     *serializer.Registry
	maxSize      int64
	contextLines int
	logger       *slog.Logger
}

// NewParser creates a parser resolving type names against universe and using the
// process-wide serializer registry.
func NewParser(universe *schema.Universe) *Parser {
	if universe == nil {
		universe = schema.NewUniverse()
	}
	return &Parser{
		universe:     universe,
		registry:     serializer.Default(),
		maxSize:      16 * 1024 * 1024, // 16MB
		contextLines: 2,
		logger:       slog.Default(),
	}
}

// WithRegistry replaces the serializer registry.
func (p *Parser) WithRegistry(r *serializer.Registry) *Parser {
	p.registry = r
	return p
}

// WithMaxDocumentSize sets the largest accepted document in bytes.
func (p *Parser) WithMaxDocumentSize(size int64) *Parser {
	p.maxSize = size
	return p
}

// WithContextLines sets how many lines around a diagnostic are excerpted.
func (p *Parser) WithContextLines(n int) *Parser {
	p.contextLines = n
	return p
}

// WithLogger sets the logger used for debug output.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Universe returns the parser's type universe.
func (p *Parser) Universe() *schema.Universe {
	return p.universe
}

// ParseFile reads and parses the document at path, using path as the source name.
func (p *Parser) ParseFile(path string, params Parameters) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.Size() > p.maxSize {
		e := protoErrors.New(protoErrors.KindMalformedDocument,
			"document size %d exceeds maximum %d bytes", info.Size(), p.maxSize)
		e.Source = path
		return nil, e
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.Parse(data, path, params)
}

// ParseReader reads the whole document from r and parses it.
func (p *Parser) ParseReader(r io.Reader, sourceName string, params Parameters) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceName, err)
	}
	return p.Parse(data, sourceName, params)
}

// Parse parses one container document. Only markup that cannot be parsed at all, or a
// root other than <PrototypeContainer>, is returned as an error; every other problem is
// isolated to the affected field or prototype and collected in the result.
//
// Parse panics if the registry has no serializers.
func (p *Parser) Parse(document []byte, sourceName string, params Parameters) (*Result, error) {
	if p.registry == nil || p.registry.Len() == 0 {
		panic("parser: Parse called with an empty serializer registry")
	}
	start := time.Now()

	if int64(len(document)) > p.maxSize {
		e := protoErrors.New(protoErrors.KindMalformedDocument,
			"document size %d exceeds maximum %d bytes", len(document), p.maxSize)
		e.Source = sourceName
		return nil, e
	}

	doc, err := xmltree.ParseBytes(document)
	if err != nil {
		return nil, p.malformed(document, sourceName, params, err)
	}
	if doc.Root.Name != ContainerElement {
		e := protoErrors.New(protoErrors.KindMalformedDocument,
			"root element is <%s>, expected <%s>", doc.Root.Name, ContainerElement)
		e.Source = sourceName
		e.Location = doc.Root.Location
		if params.IncludeContext {
			e.Context = protoErrors.ExtractContext(document, e.Location, p.contextLines)
		}
		return nil, e
	}

	universe := params.Universe
	if universe == nil {
		universe = p.universe
	}
	st := newState(sourceName, params, universe, p.registry)

	container, local := p.buildContainer(st, doc.Root)

	newResolver(st, container, local).resolveAll()

	b := newBuilder(st, container, local)
	b.instantiateAll()
	b.link()

	result := &Result{
		Source:        sourceName,
		ContainerType: container.Type,
		Instances:     b.instances,
		Order:         make([]string, 0, len(b.instances)),
		Descriptors:   make(map[string]*Descriptor, len(container.Descriptors)),
		Declared:      local,
		Errors:        st.errors,
		Warnings:      st.warnings,
	}
	for _, d := range container.Descriptors {
		if _, ok := b.instances[d.ID]; ok {
			result.Order = append(result.Order, d.ID)
		}
		if d.Resolved() {
			result.Descriptors[d.ID] = d
		}
	}

	if params.IncludeContext {
		protoErrors.AttachContext(result.Errors, document, p.contextLines)
		protoErrors.AttachContext(result.Warnings, document, p.contextLines)
	}
	result.Duration = time.Since(start)

	p.logger.Debug("Parsed prototype document",
		"source", sourceName,
		"type", container.TypeName,
		"descriptors", len(container.Descriptors),
		"instances", len(result.Instances),
		"errors", result.Errors.Count(),
		"warnings", result.Warnings.Count(),
		"duration", result.Duration,
	)

	return result, nil
}

func (p *Parser) malformed(document []byte, sourceName string, params Parameters, err error) error {
	e := protoErrors.New(protoErrors.KindMalformedDocument, "%v", err)
	e.Source = sourceName
	if se, ok := err.(*xmltree.SyntaxError); ok {
		e.Message = se.Message
		e.Location = se.Location
	}
	if params.IncludeContext {
		e.Context = protoErrors.ExtractContext(document, e.Location, p.contextLines)
	}
	return e
}

// buildContainer reads the container type and builds a descriptor per <Prototype>.
// It returns the descriptors keyed by identifier as well.
func (p *Parser) buildContainer(st *State, root *xmltree.Element) (*Container, map[string]*Descriptor) {
	c := &Container{
		TypeName: strings.TrimSpace(root.AttrOr(AttrType, "")),
		Location: root.Location,
	}
	if c.TypeName != "" {
		c.Type = p.lookupType(st, c.TypeName, "", root.Location)
	}

	prototypes := root.ChildrenNamed(PrototypeElement)
	c.Descriptors = make([]*Descriptor, 0, len(prototypes))
	local := make(map[string]*Descriptor, len(prototypes))

	if skipped := len(root.Children) - len(prototypes); skipped > 0 {
		p.logger.Debug("Ignoring non-prototype elements in container",
			"source", st.Source, "count", skipped)
	}

	for _, el := range prototypes {
		d := p.buildDescriptor(st, el)
		if d == nil {
			continue
		}
		if first, dup := local[d.ID]; dup {
			e := protoErrors.New(protoErrors.KindDuplicateIdentifier,
				"identifier %q already declared at %s", d.ID, first.Location)
			e.PrototypeID = d.ID
			e.Location = d.Location
			st.addError(e)
			continue
		}
		if st.Params.Linker != nil {
			if source, declared := st.Params.Linker.Declared(d.ID); declared {
				e := protoErrors.New(protoErrors.KindDuplicateIdentifier,
					"identifier %q already declared in %s", d.ID, source)
				e.PrototypeID = d.ID
				e.Location = d.Location
				st.addError(e)
				continue
			}
		}
		if d.Parent != "" {
			st.link(d.ID, d.Parent)
		}
		local[d.ID] = d
		c.Descriptors = append(c.Descriptors, d)
	}
	return c, local
}

// buildDescriptor returns nil when the element has no identifier.
func (p *Parser) buildDescriptor(st *State, el *xmltree.Element) *Descriptor {
	id := strings.TrimSpace(el.AttrOr(AttrID, ""))
	if id == "" {
		e := protoErrors.New(protoErrors.KindMissingIdentifier, "<%s> has no %s attribute", PrototypeElement, AttrID)
		e.Location = el.Location
		st.addError(e)
		return nil
	}

	d := &Descriptor{
		ID:       st.intern(id),
		TypeName: strings.TrimSpace(el.AttrOr(AttrType, "")),
		Source:   st.Source,
		Location: el.Location,
		Fields:   newFieldSet(len(el.Children)),
	}
	if parent := strings.TrimSpace(el.AttrOr(AttrInherits, "")); parent != "" {
		d.Parent = st.intern(parent)
	}

	if raw, ok := el.Attr(AttrAbstract); ok {
		abstract, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			e := protoErrors.New(protoErrors.KindMalformedLiteral, "%s=%q is not a boolean", AttrAbstract, raw)
			e.PrototypeID = d.ID
			e.Location = el.Location
			st.addError(e)
		}
		d.Abstract = abstract
	}

	if d.TypeName != "" {
		d.ownType = p.lookupType(st, d.TypeName, d.ID, el.Location)
		if d.ownType == nil {
			d.status = statusFailed
		}
	}

	for _, child := range el.Children {
		d.Fields.set(&FieldValue{
			Name:     child.Name,
			Nodes:    []*xmltree.Element{child},
			Declarer: d.ID,
		})
	}
	return d
}

// lookupType resolves a container or prototype type name, reporting unknown names.
func (p *Parser) lookupType(st *State, name, prototypeID string, loc xmltree.Location) *schema.Type {
	if t, ok := st.universe.LookupType(name, st.Params.StandardNamespace); ok {
		return t
	}
	e := protoErrors.New(protoErrors.KindUnknownType, "type %q not found in any assembly", name)
	e.PrototypeID = prototypeID
	e.Location = loc
	e.Suggestion = protoErrors.SuggestName(name, st.universe.TypeNames())
	st.addError(e)
	return nil
}

// Parse parses document with a parser over universe and the default registry.
func Parse(universe *schema.Universe, document []byte, sourceName string, params Parameters) (*Result, error) {
	return NewParser(universe).Parse(document, sourceName, params)
}

// ParseString is Parse for string documents.
func ParseString(universe *schema.Universe, document, sourceName string, params Parameters) (*Result, error) {
	return NewParser(universe).Parse([]byte(document), sourceName, params)
}
