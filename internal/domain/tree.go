package domain

import "fmt"

// Tree is an arena of nodes. Index 0 holds the sentinel root.
type Tree struct {
	nodes []*Node
}

// NewTree creates a tree holding only its root
func NewTree() *Tree {
	t := &Tree{}
	root := &Node{name: RootName, props: NewPropertyMap(), index: noParent, parent: noParent}
	t.nodes = append(t.nodes, root)
	root.tree = t
	root.index = 0
	return t
}

// Root returns the sentinel root
func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Len returns the number of nodes, root excluded
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Attach adds a detached node under parent. parent must belong to t.
func (t *Tree) Attach(n, parent *Node) error {
	if n.tree != nil {
		return fmt.Errorf("node %s is already attached", n.id)
	}
	if parent == nil || parent.tree != t {
		return fmt.Errorf("parent of %s does not belong to this tree", n.id)
	}
	n.tree = t
	n.index = len(t.nodes)
	n.parent = parent.index
	t.nodes = append(t.nodes, n)
	parent.children = append(parent.children, n.index)
	return nil
}

// Walk visits nodes in pre-order, root excluded. Returning false from fn
// stops the walk.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var visit func(idx int) bool
	visit = func(idx int) bool {
		for _, c := range t.nodes[idx].children {
			if !fn(t.nodes[c]) || !visit(c) {
				return false
			}
		}
		return true
	}
	visit(0)
}

// PreOrder returns all nodes in pre-order, root excluded
func (t *Tree) PreOrder() []*Node {
	out := make([]*Node, 0, t.Len())
	t.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Find returns the first node in pre-order with the given id
func (t *Tree) Find(id string) *Node {
	var found *Node
	t.Walk(func(n *Node) bool {
		if n.id == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node in pre-order with the given name
func (t *Tree) FindAll(name string) []*Node {
	var out []*Node
	t.Walk(func(n *Node) bool {
		if n.name == name {
			out = append(out, n)
		}
		return true
	})
	return out
}
