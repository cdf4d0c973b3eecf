package domain

import "fmt"

// NodeConstructor builds a detached node from a named raw record
type NodeConstructor func(name string, rec *Record) (*Node, error)

// FromExtractor removes and returns the inheritance pointer of a record
type FromExtractor func(rec *Record) (string, bool, error)

type poolEntry struct {
	name string
	rec  *Record
}

// pool holds the records not yet materialized, in document order
type pool struct {
	order   []string
	entries map[string]*Record
}

func newPool(items *Record) (*pool, error) {
	p := &pool{entries: make(map[string]*Record, items.Len())}
	for _, name := range items.Keys() {
		raw, _ := items.Get(name)
		rec, ok := asRecord(raw)
		if !ok {
			return nil, fmt.Errorf("%w: entry %s must be a mapping, got %T", ErrInvalidRecord, name, raw)
		}
		p.order = append(p.order, name)
		p.entries[name] = rec
	}
	return p, nil
}

func (p *pool) empty() bool {
	return len(p.entries) == 0
}

// next removes the first pending entry
func (p *pool) next() poolEntry {
	for len(p.order) > 0 {
		name := p.order[0]
		p.order = p.order[1:]
		if rec, ok := p.entries[name]; ok {
			delete(p.entries, name)
			return poolEntry{name: name, rec: rec}
		}
	}
	return poolEntry{}
}

// take removes a named entry
func (p *pool) take(name string) (*Record, bool) {
	rec, ok := p.entries[name]
	if ok {
		delete(p.entries, name)
	}
	return rec, ok
}

// BuildTree materializes every entry of items under tree's root. An entry
// whose pointer names another entry is attached under it, whatever the
// declaration order. A pointer to a name that is neither built nor pending
// fails with ErrUnknownNode; cycles fail the same way.
func BuildTree(tree *Tree, items *Record, construct NodeConstructor, from FromExtractor) error {
	p, err := newPool(items)
	if err != nil {
		return err
	}
	built := make(map[string]*Node, items.Len())

	for !p.empty() {
		stack := []poolEntry{p.next()}
		anchor := tree.Root()

		for {
			top := stack[len(stack)-1]
			target, ok, err := from(top.rec)
			if err != nil {
				return fmt.Errorf("%s: %w", top.name, err)
			}
			if !ok {
				break
			}
			if existing, ok := built[target]; ok {
				anchor = existing
				break
			}
			rec, ok := p.take(target)
			if !ok {
				return fmt.Errorf("%w %s (from %s)", ErrUnknownNode, target, top.name)
			}
			stack = append(stack, poolEntry{name: target, rec: rec})
		}

		parent := anchor
		for i := len(stack) - 1; i >= 0; i-- {
			n, err := construct(stack[i].name, stack[i].rec)
			if err != nil {
				return err
			}
			if err := tree.Attach(n, parent); err != nil {
				return err
			}
			built[n.id] = n
			parent = n
		}
	}
	return nil
}
