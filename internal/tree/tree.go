package tree

import (
	"iter"

	"github.com/mibar/dtxtract/internal/queue"
)

// Tree is an arena of Nodes built once by an adapter (htmlbuild/jsonbuild)
// and treated as read-only during extraction (spec §5 "the tree is
// read-only during extraction; multiple walks may safely share it").
type Tree struct {
	nodes []*Node
	kind  Kind
}

// Builder assembles a Tree node-by-node. Adapters call NewBuilder once
// (which creates the root), then AddChild for every descendant, in
// declaration order.
type Builder struct {
	t *Tree
}

// NewBuilder starts a tree of the given kind with a root node.
func NewBuilder(kind Kind) *Builder {
	b := &Builder{t: &Tree{kind: kind}}
	root := &Node{id: 0, parent: NoNode, depth: 0, Kind: kind}
	b.t.nodes = append(b.t.nodes, root)
	return b
}

// Root returns the tree's root id (always 0).
func (b *Builder) Root() NodeID { return 0 }

// Node returns the mutable node for id, for the adapter to populate.
func (b *Builder) Node(id NodeID) *Node { return b.t.nodes[id] }

// AddChild appends a new child of parent and returns its id.
func (b *Builder) AddChild(parent NodeID) NodeID {
	p := b.t.nodes[parent]
	id := NodeID(len(b.t.nodes))
	child := &Node{
		id:     id,
		parent: parent,
		index:  len(p.children),
		depth:  p.depth + 1,
		Kind:   b.t.kind,
	}
	b.t.nodes = append(b.t.nodes, child)
	p.children = append(p.children, id)
	return id
}

// Build finalizes and returns the assembled Tree.
func (b *Builder) Build() *Tree { return b.t }

// Root returns the tree's root id.
func (t *Tree) Root() NodeID { return 0 }

// Kind reports whether this is an HTML or JSON tree.
func (t *Tree) Kind() Kind { return t.kind }

// Node returns the node for id. Panics on an id outside the arena, which
// indicates a bug in the walker rather than recoverable user input.
func (t *Tree) Node(id NodeID) *Node { return t.nodes[id] }

// Len returns the number of nodes in the tree, including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// ReorderChildren replaces id's children slice with newOrder (a permutation
// of its current children) and fixes each child's sibling index to match.
// Used by jsonbuild's sort-directive pre-pass (spec §4.1) once the full
// list is known.
func (t *Tree) ReorderChildren(id NodeID, newOrder []NodeID) {
	n := t.nodes[id]
	n.children = newOrder
	for i, c := range newOrder {
		t.nodes[c].index = i
	}
}

// DFS yields nodes in pre-order, root first.
func (t *Tree) DFS() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(NodeID) bool
		walk = func(id NodeID) bool {
			n := t.nodes[id]
			if !yield(n) {
				return false
			}
			for _, c := range n.children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(t.Root())
	}
}

// BFS yields nodes in breadth-first order, root first.
func (t *Tree) BFS() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		q := queue.New[NodeID]()
		q.Enqueue(t.Root())
		for {
			id, ok := q.Dequeue()
			if !ok {
				return
			}
			n := t.nodes[id]
			if !yield(n) {
				return
			}
			for _, c := range n.children {
				q.Enqueue(c)
			}
		}
	}
}
