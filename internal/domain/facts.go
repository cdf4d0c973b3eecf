package domain

import (
	"fmt"
	"sync"
)

// Top-level document keys
const (
	URLSetsKey       = "url-sets"
	DocComponentsKey = "components"
	DocTenantsKey    = "tenants"
)

// Facts is the resolved model of one factsheet document. It is built once
// by Load and is safe for concurrent readers afterwards.
type Facts struct {
	components *Tree
	tenants    *TenantTree

	mu      sync.Mutex
	urlSets map[string]*URLSet
	rawSets *Record
}

// Load validates the document, builds the component and tenant trees and
// links every tenant component. The document is not modified. Any error
// leaves no partial model behind.
func Load(doc *Record) (*Facts, error) {
	parts := make(map[string]*Record, 3)
	for _, key := range []string{URLSetsKey, DocComponentsKey, DocTenantsKey} {
		rec, ok := doc.Record(key)
		if !ok || rec.Len() == 0 {
			return nil, fmt.Errorf("%w, part %s", ErrInvalidDocument, key)
		}
		parts[key] = rec.Clone()
	}

	f := &Facts{
		components: NewTree(),
		tenants:    newTenantTree(),
		urlSets:    make(map[string]*URLSet),
		rawSets:    parts[URLSetsKey],
	}

	err := BuildTree(f.components, parts[DocComponentsKey],
		func(name string, rec *Record) (*Node, error) {
			return NewComponent(f, "", name, rec)
		},
		popFrom)
	if err != nil {
		return nil, fmt.Errorf("components: %w", err)
	}

	err = BuildTree(f.tenants.Tree, parts[DocTenantsKey],
		func(name string, rec *Record) (*Node, error) {
			t, err := NewTenant(f, name, rec)
			if err != nil {
				return nil, err
			}
			f.tenants.register(t)
			return t.Node, nil
		},
		tenantFrom)
	if err != nil {
		return nil, fmt.Errorf("tenants: %w", err)
	}

	l := &linker{resolver: f, components: f.components, tenants: f.tenants}
	if err := l.link(); err != nil {
		return nil, fmt.Errorf("linking tenant components: %w", err)
	}
	return f, nil
}

// tenantFrom extracts the inheritance pointer from a tenant's meta record
func tenantFrom(rec *Record) (string, bool, error) {
	meta, ok := rec.Record(MetaKey)
	if !ok {
		return "", false, fmt.Errorf("%w: %s must be a mapping", ErrInvalidRecord, MetaKey)
	}
	if meta == nil {
		return "", false, nil
	}
	return popFrom(meta)
}

// URLSet returns the named URL set, validating it on first access
func (f *Facts) URLSet(name string) (*URLSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if set, ok := f.urlSets[name]; ok {
		return set, nil
	}
	raw, ok := f.rawSets.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownURLSet, name)
	}
	set, err := NewURLSet(name, raw)
	if err != nil {
		return nil, err
	}
	f.urlSets[name] = set
	return set, nil
}

// URLSetNames returns the declared URL set names in document order
func (f *Facts) URLSetNames() []string {
	return f.rawSets.Keys()
}

// Tenant returns the tenant with the given id, or nil
func (f *Facts) Tenant(id string) *Tenant {
	return f.tenants.Tenant(id)
}

// Tenants returns all tenants in pre-order
func (f *Facts) Tenants() []*Tenant {
	return f.tenants.Tenants()
}

// Components returns every component node named name: the shared component
// first, then tenant versions, in pre-order.
func (f *Facts) Components(name string) []*Node {
	return f.components.FindAll(name)
}

// ComponentByID returns the component node with the given id, or nil
func (f *Facts) ComponentByID(id string) *Node {
	return f.components.Find(id)
}

// ComponentRefs returns the tenants that can see a component named name,
// directly or through an ancestor.
func (f *Facts) ComponentRefs(name string) []*Tenant {
	var out []*Tenant
	for _, t := range f.tenants.Tenants() {
		for _, ref := range t.AllComponents() {
			if ref.Component.Name() == name {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// ComponentTree returns the component hierarchy, including tenant versions
func (f *Facts) ComponentTree() *Tree {
	return f.components
}

// TenantTree returns the tenant hierarchy
func (f *Facts) TenantTree() *TenantTree {
	return f.tenants
}
