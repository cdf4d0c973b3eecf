package domain

import "fmt"

// linker attaches tenant component entries to the component tree
type linker struct {
	resolver   URLSetResolver
	components *Tree
	tenants    *TenantTree
}

// link resolves every raw entry. Tenants are visited in pre-order so that a
// child sees its parent's resolved components.
func (l *linker) link() error {
	for _, t := range l.tenants.Tenants() {
		for _, slot := range t.slots {
			if slot.resolved() {
				continue
			}
			if err := l.resolve(t, slot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *linker) resolve(t *Tenant, slot *componentSlot) error {
	target, ok, err := popFrom(slot.raw)
	if err != nil {
		return fmt.Errorf("tenant %s, component %s: %w", t.ID(), slot.name, err)
	}
	if !ok {
		return l.resolveLocal(t, slot)
	}

	source := l.tenants.Tenant(target)
	if source == nil {
		return fmt.Errorf("%w %s (component %s of tenant %s)", ErrUnknownTenant, target, slot.name, t.ID())
	}

	var found *componentSlot
	for c := source; c != nil; c = c.Parent() {
		if s, ok := c.byName[slot.name]; ok {
			if s == slot {
				return fmt.Errorf("%w: component %s of tenant %s inherits from itself", ErrReference, slot.name, t.ID())
			}
			found = s
			if !s.resolved() {
				if err := l.resolveInPlace(c, s); err != nil {
					return err
				}
			}
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w %s in tenant %s", ErrUnknownComponent, slot.name, target)
	}

	node, err := NewComponent(l.resolver, t.ID(), slot.name, slot.raw)
	if err != nil {
		return err
	}
	if err := l.components.Attach(node, found.node); err != nil {
		return err
	}
	slot.node, slot.raw = node, nil
	return nil
}

// resolveInPlace materializes a raw entry reached through another tenant's
// pointer. Only one hop is supported.
func (l *linker) resolveInPlace(owner *Tenant, slot *componentSlot) error {
	target, ok, err := popFrom(slot.raw)
	if err != nil {
		return fmt.Errorf("tenant %s, component %s: %w", owner.ID(), slot.name, err)
	}
	if ok {
		return fmt.Errorf("%w: component %s of tenant %s inherits from %s",
			ErrLazyChain, slot.name, owner.ID(), target)
	}
	return l.resolveLocal(owner, slot)
}

// resolveLocal attaches an entry without a pointer: under the parent
// tenant's version of the component, else under the shared component of the
// same name, else under the component root. A parent tenant's entry that is
// still raw, which happens when a pointer reaches t before pre-order does,
// is resolved first under the same one-hop rule.
func (l *linker) resolveLocal(t *Tenant, slot *componentSlot) error {
	if pt := t.Parent(); pt != nil {
		if ps, ok := pt.byName[slot.name]; ok && !ps.resolved() {
			if err := l.resolveInPlace(pt, ps); err != nil {
				return err
			}
		}
	}

	node, err := NewComponent(l.resolver, t.ID(), slot.name, slot.raw)
	if err != nil {
		return err
	}

	parent := l.components.Root()
	if pc, ok := inheritedComponent(t, slot.name); ok {
		parent = pc
	} else if shared := l.components.Find(slot.name); shared != nil {
		parent = shared
	}

	if err := l.components.Attach(node, parent); err != nil {
		return err
	}
	slot.node, slot.raw = node, nil
	return nil
}

func inheritedComponent(t *Tenant, name string) (*Node, bool) {
	pt := t.Parent()
	if pt == nil {
		return nil, false
	}
	return pt.Component(name)
}
