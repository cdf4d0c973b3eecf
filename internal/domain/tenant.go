package domain

import "fmt"

// Tenant record keys
const (
	MetaKey       = "meta"
	ComponentsKey = "components"
)

// componentSlot is a tenant's entry for one component name. It is raw until
// the linker resolves it into a node of the component tree.
type componentSlot struct {
	name string
	node *Node
	raw  *Record
}

func (s *componentSlot) resolved() bool {
	return s.node != nil
}

// Tenant is a node of the tenant tree together with its component entries.
// Resolved entries point into the component tree; they are not owned.
type Tenant struct {
	*Node
	tree   *TenantTree
	slots  []*componentSlot
	byName map[string]*componentSlot
}

// ComponentRef is a component visible to a tenant and the tenant that
// declared it.
type ComponentRef struct {
	Component *Node
	Owner     *Tenant
}

// NewTenant builds a tenant from its raw record. Properties come from the
// meta record, which must no longer hold an inheritance pointer. Component
// entries come from the components mapping, or, when that key is absent,
// from every key other than meta.
func NewTenant(r URLSetResolver, name string, rec *Record) (*Tenant, error) {
	meta, ok := rec.Record(MetaKey)
	if !ok {
		return nil, fmt.Errorf("%w: tenant %s: %s must be a mapping", ErrInvalidRecord, name, MetaKey)
	}
	if meta.Has(FromKey) {
		return nil, fmt.Errorf("%w: %q in tenant %s", ErrInheritanceKey, FromKey, name)
	}
	if meta == nil {
		meta = NewRecord()
	}

	node, err := NewNode(r, "", name, meta)
	if err != nil {
		return nil, err
	}
	t := &Tenant{Node: node, byName: make(map[string]*componentSlot)}

	entries := rec
	if rec.Has(ComponentsKey) {
		comps, ok := rec.Record(ComponentsKey)
		if !ok {
			return nil, fmt.Errorf("%w: tenant %s: %s must be a mapping", ErrInvalidRecord, name, ComponentsKey)
		}
		entries = comps
	}
	for _, cname := range entries.Keys() {
		if entries == rec && cname == MetaKey {
			continue
		}
		raw, _ := entries.Get(cname)
		crec, ok := asRecord(raw)
		if !ok {
			return nil, fmt.Errorf("%w: component %s of tenant %s must be a mapping, got %T",
				ErrInvalidRecord, cname, name, raw)
		}
		slot := &componentSlot{name: cname, raw: crec}
		t.slots = append(t.slots, slot)
		t.byName[cname] = slot
	}
	return t, nil
}

// Parent returns the parent tenant, or nil for a top-level tenant
func (t *Tenant) Parent() *Tenant {
	p := t.Node.Parent()
	if p == nil || p.IsRoot() {
		return nil
	}
	return t.tree.byNode[p]
}

// Children returns the child tenants in declaration order
func (t *Tenant) Children() []*Tenant {
	var out []*Tenant
	for _, c := range t.Node.Children() {
		out = append(out, t.tree.byNode[c])
	}
	return out
}

// ComponentNames returns the names of the tenant's own components
func (t *Tenant) ComponentNames() []string {
	out := make([]string, 0, len(t.slots))
	for _, s := range t.slots {
		out = append(out, s.name)
	}
	return out
}

// Component returns the tenant's own resolved component with the given name
func (t *Tenant) Component(name string) (*Node, bool) {
	s, ok := t.byName[name]
	if !ok || !s.resolved() {
		return nil, false
	}
	return s.node, true
}

// AllComponents returns the tenant's components followed by those of its
// ancestors that are not shadowed by a nearer declaration of the same name.
func (t *Tenant) AllComponents() []ComponentRef {
	var out []ComponentRef
	seen := make(map[string]bool)
	for c := t; c != nil; c = c.Parent() {
		for _, s := range c.slots {
			if seen[s.name] || !s.resolved() {
				continue
			}
			seen[s.name] = true
			out = append(out, ComponentRef{Component: s.node, Owner: c})
		}
	}
	return out
}

// TenantTree is the tenant hierarchy
type TenantTree struct {
	*Tree
	byNode map[*Node]*Tenant
}

func newTenantTree() *TenantTree {
	return &TenantTree{Tree: NewTree(), byNode: make(map[*Node]*Tenant)}
}

func (tt *TenantTree) register(t *Tenant) {
	t.tree = tt
	tt.byNode[t.Node] = t
}

// Tenant returns the tenant with the given id
func (tt *TenantTree) Tenant(id string) *Tenant {
	n := tt.Find(id)
	if n == nil {
		return nil
	}
	return tt.byNode[n]
}

// Tenants returns all tenants in pre-order
func (tt *TenantTree) Tenants() []*Tenant {
	nodes := tt.PreOrder()
	out := make([]*Tenant, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, tt.byNode[n])
	}
	return out
}

// TopLevel returns the tenants directly under the root
func (tt *TenantTree) TopLevel() []*Tenant {
	var out []*Tenant
	for _, n := range tt.Root().Children() {
		out = append(out, tt.byNode[n])
	}
	return out
}
