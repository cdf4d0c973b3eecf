package domain

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	ValueOpaque ValueKind = iota
	ValueURLSet
	ValueLink
)

func (k ValueKind) String() string {
	switch k {
	case ValueURLSet:
		return "url_set"
	case ValueLink:
		return "link"
	default:
		return "opaque"
	}
}

// Value is a typed property value
type Value struct {
	kind ValueKind
	raw  any
	urls *URLSet
	link Link
}

// OpaqueValue wraps an untyped document value
func OpaqueValue(raw any) Value { return Value{kind: ValueOpaque, raw: raw} }

// URLSetValue wraps a URL set
func URLSetValue(u *URLSet) Value { return Value{kind: ValueURLSet, urls: u} }

// LinkValue wraps a link
func LinkValue(l Link) Value { return Value{kind: ValueLink, link: l} }

func (v Value) Kind() ValueKind { return v.kind }

// Raw returns the opaque document value, or nil for typed variants
func (v Value) Raw() any { return v.raw }

func (v Value) URLSet() (*URLSet, bool) { return v.urls, v.kind == ValueURLSet }

func (v Value) Link() (Link, bool) { return v.link, v.kind == ValueLink }

// String returns the value when it is an opaque string scalar
func (v Value) String() (string, bool) {
	if v.kind != ValueOpaque {
		return "", false
	}
	s, ok := v.raw.(string)
	return s, ok
}

// Record returns the value when it is an opaque mapping
func (v Value) Record() (*Record, bool) {
	if v.kind != ValueOpaque {
		return nil, false
	}
	r, ok := v.raw.(*Record)
	return r, ok
}

// Text renders the value as plain text
func (v Value) Text() string {
	switch v.kind {
	case ValueLink:
		return v.link.URL
	case ValueURLSet:
		return v.urls.Name
	}
	if v.raw == nil {
		return ""
	}
	return fmt.Sprint(v.raw)
}

// MarshalJSON writes the active variant
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueURLSet:
		return json.Marshal(v.urls)
	case ValueLink:
		return json.Marshal(v.link)
	default:
		return json.Marshal(v.raw)
	}
}

// Property is one value of a named property, tagged with the id of the node
// that declared it.
type Property struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
	Value  Value  `json:"value"`
}

// URLSetResolver looks up named URL sets
type URLSetResolver interface {
	URLSet(name string) (*URLSet, error)
}

type propertyRule func(r URLSetResolver, name string, raw any) (Value, error)

// propertyRules maps property names to their typing rule. Names not listed
// keep their raw value.
var propertyRules = map[string]propertyRule{
	"servers": urlSetRule,
	"urls":    urlSetRule,
	"jenkins": linkRule,
}

func urlSetRule(r URLSetResolver, name string, raw any) (Value, error) {
	if s, ok := raw.(string); ok {
		if r == nil {
			return Value{}, fmt.Errorf("%w %s", ErrUnknownURLSet, s)
		}
		set, err := r.URLSet(s)
		if err != nil {
			return Value{}, err
		}
		return URLSetValue(set), nil
	}
	set, err := NewURLSet(name, raw)
	if err != nil {
		return Value{}, err
	}
	return URLSetValue(set), nil
}

func linkRule(_ URLSetResolver, _ string, raw any) (Value, error) {
	if s, ok := raw.(string); ok && IsAbsoluteURL(s) {
		return LinkValue(NewLink(s, "")), nil
	}
	return OpaqueValue(raw), nil
}

// NewProperty types raw according to the property name
func NewProperty(r URLSetResolver, origin, name string, raw any) (Property, error) {
	value := OpaqueValue(raw)
	if rule, ok := propertyRules[name]; ok {
		v, err := rule(r, name, raw)
		if err != nil {
			return Property{}, fmt.Errorf("property %s of %s: %w", name, origin, err)
		}
		value = v
	}
	return Property{Name: name, Origin: origin, Value: value}, nil
}
