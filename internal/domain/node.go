package domain

import (
	"fmt"
	"sync"
)

// RootName names the sentinel root of every tree
const RootName = "_root"

const noParent = -1

// Node is an element of a Tree. Parent and children are indexes into the
// owning tree's arena.
type Node struct {
	id     string
	origin string
	name   string

	// local properties, in document order
	props *PropertyMap

	tree     *Tree
	index    int
	parent   int
	children []int

	mu          sync.Mutex
	accumulated *PropertyMap
}

// NewNode creates a detached node and types its properties. List values
// declare one property per element.
func NewNode(r URLSetResolver, origin, name string, props *Record) (*Node, error) {
	n := &Node{
		origin: origin,
		name:   name,
		id:     nodeID(origin, name),
		props:  NewPropertyMap(),
		index:  noParent,
		parent: noParent,
	}
	for _, key := range props.Keys() {
		raw, _ := props.Get(key)
		items := asList(raw)
		if len(items) == 0 {
			n.props.Append(key)
		}
		for _, item := range items {
			p, err := NewProperty(r, n.id, key, item)
			if err != nil {
				return nil, err
			}
			n.props.Append(key, p)
		}
	}
	return n, nil
}

// NewComponent creates a component node. The inheritance pointer must have
// been consumed before construction.
func NewComponent(r URLSetResolver, origin, name string, rec *Record) (*Node, error) {
	if rec.Has(FromKey) {
		return nil, fmt.Errorf("%w: %q in component %s", ErrInheritanceKey, FromKey, nodeID(origin, name))
	}
	return NewNode(r, origin, name, rec)
}

func nodeID(origin, name string) string {
	if origin != "" {
		return origin + "_" + name
	}
	return name
}

func (n *Node) ID() string     { return n.id }
func (n *Node) Origin() string { return n.origin }
func (n *Node) Name() string   { return n.name }

// IsRoot reports whether n is a tree's sentinel root
func (n *Node) IsRoot() bool {
	return n.tree != nil && n.index == 0
}

// Properties returns the locally declared properties
func (n *Node) Properties() *PropertyMap {
	return n.props.Clone()
}

// Parent returns the parent node, or nil for the root and detached nodes
func (n *Node) Parent() *Node {
	if n.tree == nil || n.parent == noParent {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns the child nodes in insertion order
func (n *Node) Children() []*Node {
	if n.tree == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.children))
	for _, idx := range n.children {
		out = append(out, n.tree.nodes[idx])
	}
	return out
}

// Ancestors returns the chain from the parent up to, but excluding, the root
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent(); p != nil && !p.IsRoot(); p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// AccumulatedProperties merges the properties of n and its ancestors, self
// first. The merge is computed once; required is checked on every call.
func (n *Node) AccumulatedProperties(required ...string) (*PropertyMap, error) {
	n.mu.Lock()
	if n.accumulated == nil {
		acc := NewPropertyMap()
		for c := n; c != nil && !c.IsRoot(); c = c.Parent() {
			for _, name := range c.props.Names() {
				acc.Append(name, c.props.Get(name)...)
			}
		}
		n.accumulated = acc
	}
	acc := n.accumulated
	n.mu.Unlock()

	if missing := acc.Missing(required); len(missing) > 0 {
		return nil, &MissingPropertiesError{NodeName: n.name, NodeID: n.id, Missing: missing}
	}
	return acc.Clone(), nil
}

// HumanName returns the first accumulated "name" string, falling back to the
// node name.
func (n *Node) HumanName() string {
	props, _ := n.AccumulatedProperties()
	if p, ok := props.First("name"); ok {
		if s, ok := p.Value.String(); ok && s != "" {
			return s
		}
	}
	return n.name
}

// DocsLink returns a link to the node's documentation labelled with its human
// name, or nil when no docs-link is set.
func (n *Node) DocsLink() *Link {
	props, _ := n.AccumulatedProperties()
	p, ok := props.First("docs-link")
	if !ok {
		return nil
	}
	link := NewLink(p.Value.Text(), n.HumanName())
	return &link
}

func (n *Node) String() string {
	return fmt.Sprintf("<Node %s>", n.id)
}
