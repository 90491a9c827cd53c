package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"unitytk/protokit/pkg/prototype/parser"
	"unitytk/protokit/pkg/prototype/schema"
)

// Entry is one instance held by the catalog together with where it came from.
type Entry struct {
	ID        string
	Prototype schema.Prototype
	Type      *schema.Type
	Source    string
}

// Catalog is a thread-safe in-memory store of prototype instances and the resolved
// descriptors behind them. It implements parser.Linker so each document can
// inherit from and refer to prototypes of the documents loaded before it.
//
// Replace swaps the whole contents at once; readers never see a partial load.
type Catalog struct {
	mu          sync.RWMutex
	entries     map[string]*Entry
	descriptors map[string]*parser.Descriptor
	declared    map[string]string
	order       []string
	documents   []string
	digests     map[string][sha256.Size]byte
	version     string
	loadTime    time.Time
}

var _ parser.Linker = (*Catalog)(nil)

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries:     make(map[string]*Entry),
		descriptors: make(map[string]*parser.Descriptor),
		declared:    make(map[string]string),
		digests:     make(map[string][sha256.Size]byte),
	}
}

// Add merges a parse result into the catalog. Identifiers already present are
// left untouched; the parser reports them as duplicates when given this catalog
// as its Linker. content is the document the result was parsed from and feeds
// the version hash; it may be nil.
func (c *Catalog) Add(result *parser.Result, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range result.Declared {
		if _, ok := c.declared[id]; !ok {
			c.declared[id] = result.Source
		}
	}
	for id, d := range result.Descriptors {
		if _, ok := c.descriptors[id]; !ok {
			c.descriptors[id] = d
		}
	}
	for _, id := range result.Order {
		if _, ok := c.entries[id]; ok {
			continue
		}
		entry := &Entry{ID: id, Prototype: result.Instances[id], Source: result.Source}
		if d, ok := result.Descriptors[id]; ok {
			entry.Type = d.Type
		}
		c.entries[id] = entry
		c.order = append(c.order, id)
	}
	c.documents = append(c.documents, result.Source)
	if content != nil {
		c.digests[result.Source] = sha256.Sum256(content)
	}
	c.updateVersion()
}

// Replace atomically replaces the contents of c with those of next.
func (c *Catalog) Replace(next *Catalog) {
	next.mu.RLock()
	entries := make(map[string]*Entry, len(next.entries))
	for id, e := range next.entries {
		entries[id] = e
	}
	descriptors := make(map[string]*parser.Descriptor, len(next.descriptors))
	for id, d := range next.descriptors {
		descriptors[id] = d
	}
	declared := make(map[string]string, len(next.declared))
	for id, source := range next.declared {
		declared[id] = source
	}
	order := append([]string(nil), next.order...)
	documents := append([]string(nil), next.documents...)
	digests := make(map[string][sha256.Size]byte, len(next.digests))
	for source, sum := range next.digests {
		digests[source] = sum
	}
	version := next.version
	next.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.descriptors = descriptors
	c.declared = declared
	c.order = order
	c.documents = documents
	c.digests = digests
	c.version = version
	c.loadTime = time.Now()
}

// LinkedDescriptor implements parser.Linker.
func (c *Catalog) LinkedDescriptor(id string) (*parser.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descriptors[id]
	return d, ok
}

// Declared implements parser.Linker.
func (c *Catalog) Declared(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	source, ok := c.declared[id]
	return source, ok
}

// LinkedPrototype implements parser.Linker.
func (c *Catalog) LinkedPrototype(id string) (schema.Prototype, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.Prototype, true
}

// Get returns the entry for id.
func (c *Catalog) Get(id string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Lookup returns the instance with the given identifier as a T.
func Lookup[T schema.Prototype](c *Catalog, id string) (T, bool) {
	var zero T
	e, ok := c.Get(id)
	if !ok {
		return zero, false
	}
	t, ok := e.Prototype.(T)
	return t, ok
}

// All returns every entry in load order. The slice is a copy.
func (c *Catalog) All() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// OfType returns the entries whose effective type is t, in load order.
func (c *Catalog) OfType(t *schema.Type) []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Entry
	for _, id := range c.order {
		if e := c.entries[id]; e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns every identifier sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Documents returns the source names of the documents merged in, in load order.
func (c *Catalog) Documents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.documents...)
}

// Count returns the number of instances.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Version identifies the catalog contents: a hash over every identifier, its type,
// its source and the source's content. Empty for an empty catalog.
func (c *Catalog) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// LoadTime returns when the contents were last replaced.
func (c *Catalog) LoadTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadTime
}

// Stats summarizes the catalog.
type Stats struct {
	Instances   int
	Descriptors int
	Documents   int
	ByType      map[string]int
	Version     string
	LoadTime    time.Time
}

// Stats returns counts by type and document.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Instances:   len(c.entries),
		Descriptors: len(c.descriptors),
		Documents:   len(c.documents),
		ByType:      make(map[string]int),
		Version:     c.version,
		LoadTime:    c.loadTime,
	}
	for _, e := range c.entries {
		s.ByType[typeName(e.Type)]++
	}
	return s
}

// updateVersion must be called with the write lock held.
func (c *Catalog) updateVersion() {
	if len(c.entries) == 0 {
		c.version = ""
		return
	}

	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		e := c.entries[id]
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write([]byte(typeName(e.Type)))
		h.Write([]byte{0})
		h.Write([]byte(e.Source))
		if sum, ok := c.digests[e.Source]; ok {
			h.Write(sum[:])
		}
		h.Write([]byte{'\n'})
	}
	c.version = hex.EncodeToString(h.Sum(nil))[:16]
}

func typeName(t *schema.Type) string {
	if t == nil {
		return ""
	}
	return t.FullName()
}
