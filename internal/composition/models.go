// Package composition holds the structural blueprint: which items make up
// which modules and kits, at what standard quantity. Hierarchy lives entirely
// in treecode segment prefixes.
package composition

import (
	"kitstock/internal/catalog"
	"kitstock/internal/treecode"
)

// Node is one composition node. Its position is fully described by the
// treecode; the parent is implied by the segment prefix, never stored.
type Node struct {
	Scenario int
	Kind     catalog.Kind
	Code     string
	StdQty   int
	Treecode treecode.Treecode
}

// Level returns the node's depth, derived from its treecode.
func (n Node) Level() treecode.Level {
	return n.Treecode.Level()
}

// Tree is a prefix index over one scenario's nodes, built once per load so
// repeated child lookups avoid rescanning the whole set.
type Tree struct {
	nodes    map[treecode.Treecode]Node
	children map[treecode.Treecode][]Node
	roots    []Node
}

// BuildTree indexes nodes by treecode and parent prefix.
func BuildTree(nodes []Node) *Tree {
	t := &Tree{
		nodes:    make(map[treecode.Treecode]Node, len(nodes)),
		children: make(map[treecode.Treecode][]Node),
	}
	for _, n := range nodes {
		t.nodes[n.Treecode] = n
		if parent, ok := n.Treecode.Parent(); ok {
			t.children[parent] = append(t.children[parent], n)
		} else {
			t.roots = append(t.roots, n)
		}
	}
	return t
}

// Node looks up a node by treecode.
func (t *Tree) Node(tc treecode.Treecode) (Node, bool) {
	n, ok := t.nodes[tc]
	return n, ok
}

// Children returns the direct children of a treecode.
func (t *Tree) Children(tc treecode.Treecode) []Node {
	return t.children[tc]
}

// Roots returns the primary-level nodes.
func (t *Tree) Roots() []Node {
	return t.roots
}

// Walk visits the subtree under root depth-first, root first.
func (t *Tree) Walk(root treecode.Treecode, visit func(Node)) {
	if n, ok := t.nodes[root]; ok {
		visit(n)
	}
	for _, child := range t.children[root] {
		t.Walk(child.Treecode, visit)
	}
}
