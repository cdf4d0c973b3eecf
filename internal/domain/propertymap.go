package domain

import (
	"encoding/json"
	"slices"
)

// PropertyMap maps property names to values, keeping names in the order
// they were first added.
type PropertyMap struct {
	names  []string
	values map[string][]Property
}

// NewPropertyMap creates an empty map
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{values: make(map[string][]Property)}
}

// Append adds values under name without replacing earlier ones
func (m *PropertyMap) Append(name string, props ...Property) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = append(m.values[name], props...)
}

// Get returns all values of name
func (m *PropertyMap) Get(name string) []Property {
	if m == nil {
		return nil
	}
	return m.values[name]
}

// First returns the first value of name
func (m *PropertyMap) First(name string) (Property, bool) {
	props := m.Get(name)
	if len(props) == 0 {
		return Property{}, false
	}
	return props[0], true
}

// Has reports whether name was declared, even with an empty list
func (m *PropertyMap) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[name]
	return ok
}

// Names returns the property names in insertion order
func (m *PropertyMap) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.names)
}

// Len returns the number of names
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Missing returns the names in required that were never declared
func (m *PropertyMap) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if !m.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Clone returns an independent copy
func (m *PropertyMap) Clone() *PropertyMap {
	out := &PropertyMap{
		names:  slices.Clone(m.names),
		values: make(map[string][]Property, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = slices.Clone(v)
	}
	return out
}

// MarshalJSON writes the map as an object of value lists in name order
func (m *PropertyMap) MarshalJSON() ([]byte, error) {
	rec := NewRecord()
	for _, name := range m.Names() {
		values := make([]any, 0, len(m.values[name]))
		for _, p := range m.values[name] {
			values = append(values, p.Value)
		}
		rec.Set(name, values)
	}
	return json.Marshal(rec)
}
