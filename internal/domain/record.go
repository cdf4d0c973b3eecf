package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// FromKey is the inheritance pointer key of a raw record.
const FromKey = "from"

// Record is a raw mapping from the source document. Key order follows the
// document; values are scalars, []any or nested *Record.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFromMap converts a plain map into a Record. Keys are sorted since Go
// maps carry no order. Nested maps and slices are converted recursively.
func RecordFromMap(m map[string]any) *Record {
	r := NewRecord()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, normalize(m[k]))
	}
	return r
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return RecordFromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = RecordFromMap(x)
		}
		return out
	default:
		return v
	}
}

// Len returns the number of keys
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in document order
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Has reports whether key is present
func (r *Record) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[key]
	return ok
}

// Get returns the value stored under key
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Set stores a value, appending the key if it is new
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes key if present
func (r *Record) Delete(key string) {
	if !r.Has(key) {
		return
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

// Pop removes key and returns its value
func (r *Record) Pop(key string) (any, bool) {
	v, ok := r.Get(key)
	if ok {
		r.Delete(key)
	}
	return v, ok
}

// Record returns the nested record stored under key. A missing key or a null
// value yields (nil, true); any non-mapping value yields (nil, false).
func (r *Record) Record(key string) (*Record, bool) {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return nil, true
	}
	rec, ok := v.(*Record)
	return rec, ok
}

// Clone returns a deep copy
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		keys:   slices.Clone(r.keys),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

// ToMap converts the record back into plain maps, dropping key order.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, r.Len())
	for _, k := range r.Keys() {
		out[k] = Plain(r.values[k])
	}
	return out
}

// Plain converts nested records inside v into plain maps
func Plain(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Plain(x)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes the record as a JSON object in document order
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.Keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// asRecord accepts a raw entry value as a record; null becomes empty.
func asRecord(v any) (*Record, bool) {
	switch t := v.(type) {
	case nil:
		return NewRecord(), true
	case *Record:
		return t, true
	default:
		return nil, false
	}
}

// asList wraps scalars into a one-element list.
func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{v}
}

// popFrom removes the inheritance pointer from rec.
func popFrom(rec *Record) (string, bool, error) {
	v, ok := rec.Pop(FromKey)
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidRecord, FromKey, v)
	}
	return s, true, nil
}
