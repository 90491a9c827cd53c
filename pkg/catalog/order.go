package catalog

import (
	"sort"
	"strings"

	"unitytk/protokit/pkg/prototype/parser"
	"unitytk/protokit/pkg/prototype/xmltree"
)

// documentNode is the pre-scanned shape of one document: the identifiers it
// declares and the parents its prototypes name.
type documentNode struct {
	doc      *Document
	declares []string
	inherits []string
}

// Order sorts documents so every document loads after the documents declaring
// the parents its prototypes inherit from. Ties keep name order. Documents that
// inherit from each other in a loop are reported as *OrderError values and then
// loaded in name order; the parser reports the resulting unresolved parents.
func Order(docs []*Document) ([]*Document, []*OrderError) {
	nodes := make(map[string]*documentNode, len(docs))
	names := make([]string, 0, len(docs))
	declaredIn := make(map[string]string)

	for _, doc := range docs {
		node := scanDocument(doc)
		nodes[doc.Name] = node
		names = append(names, doc.Name)
		for _, id := range node.declares {
			if _, ok := declaredIn[id]; !ok {
				declaredIn[id] = doc.Name
			}
		}
	}
	sort.Strings(names)

	edges := make(map[string][]string, len(nodes))
	for _, name := range names {
		seen := make(map[string]bool)
		for _, parent := range nodes[name].inherits {
			dep, ok := declaredIn[parent]
			if !ok || dep == name || seen[dep] {
				continue
			}
			seen[dep] = true
			edges[name] = append(edges[name], dep)
		}
		sort.Strings(edges[name])
	}

	s := &orderSorter{
		edges:    edges,
		visited:  make(map[string]bool),
		visiting: make(map[string]bool),
	}
	for _, name := range names {
		s.visit(name)
	}

	out := make([]*Document, 0, len(docs))
	for _, name := range s.sorted {
		out = append(out, nodes[name].doc)
	}
	return out, s.cycles
}

type orderSorter struct {
	edges    map[string][]string
	visited  map[string]bool
	visiting map[string]bool
	stack    []string
	sorted   []string
	cycles   []*OrderError
}

// visit is a depth-first post-order walk; a back edge to a document still on the
// stack closes a cycle and is dropped.
func (s *orderSorter) visit(name string) {
	if s.visited[name] {
		return
	}
	if s.visiting[name] {
		s.cycles = append(s.cycles, &OrderError{Cycle: s.buildCycle(name)})
		return
	}

	s.visiting[name] = true
	s.stack = append(s.stack, name)

	for _, dep := range s.edges[name] {
		s.visit(dep)
	}

	s.stack = s.stack[:len(s.stack)-1]
	s.visiting[name] = false
	s.visited[name] = true
	s.sorted = append(s.sorted, name)
}

func (s *orderSorter) buildCycle(name string) []string {
	for i, n := range s.stack {
		if n == name {
			cycle := append([]string(nil), s.stack[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}

// scanDocument reads declared identifiers and Inherits targets without building
// descriptors. Unparsable documents scan as empty; the parser reports them.
func scanDocument(doc *Document) *documentNode {
	node := &documentNode{doc: doc}
	tree, err := xmltree.ParseBytes(doc.Data)
	if err != nil || tree.Root.Name != parser.ContainerElement {
		return node
	}
	for _, el := range tree.Root.ChildrenNamed(parser.PrototypeElement) {
		if id := strings.TrimSpace(el.AttrOr(parser.AttrID, "")); id != "" {
			node.declares = append(node.declares, id)
		}
		if parent := strings.TrimSpace(el.AttrOr(parser.AttrInherits, "")); parent != "" {
			node.inherits = append(node.inherits, parent)
		}
	}
	return node
}
