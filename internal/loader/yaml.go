package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"factsheet/internal/domain"
)

const mergeKey = "<<"

// ParseYAML parses a factsheet document from YAML bytes. Mapping key order
// is kept; anchors, aliases and merge keys are expanded.
func ParseYAML(data []byte) (*domain.Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewRecord(), nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	v, err := convertYAML(&root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if v == nil {
		return domain.NewRecord(), nil
	}
	rec, ok := v.(*domain.Record)
	if !ok {
		return nil, fmt.Errorf("failed to parse YAML: document must be a mapping, got %T", v)
	}
	return rec, nil
}

func convertYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convertYAML(n.Content[0])
	case yaml.AliasNode:
		return convertYAML(n.Alias)
	case yaml.MappingNode:
		return convertMapping(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := convertYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

func convertMapping(n *yaml.Node) (*domain.Record, error) {
	rec := domain.NewRecord()
	var merged []*domain.Record

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]

		if key.Kind == yaml.ScalarNode && key.Value == mergeKey && key.Tag == "!!merge" {
			sources, err := mergeSources(value)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)
			continue
		}

		v, err := convertYAML(value)
		if err != nil {
			return nil, err
		}
		rec.Set(key.Value, v)
	}

	// explicit keys win over merged ones, earlier sources over later ones
	for _, src := range merged {
		for _, k := range src.Keys() {
			if rec.Has(k) {
				continue
			}
			v, _ := src.Get(k)
			rec.Set(k, v)
		}
	}
	return rec, nil
}

func mergeSources(n *yaml.Node) ([]*domain.Record, error) {
	nodes := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		nodes = n.Content
	}

	var out []*domain.Record
	for _, c := range nodes {
		v, err := convertYAML(c)
		if err != nil {
			return nil, err
		}
		rec, ok := v.(*domain.Record)
		if !ok {
			return nil, fmt.Errorf("line %d: merge value must be a mapping", c.Line)
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}
