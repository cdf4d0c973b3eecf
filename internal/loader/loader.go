// Package loader reads factsheet documents from disk into ordered records.
//
// YAML is the canonical format. TOML and JSON documents are accepted so a
// sheet can be generated by other tools; the format is picked from the file
// extension.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"factsheet/internal/domain"
)

// Parser turns raw bytes into a document record
type Parser func(data []byte) (*domain.Record, error)

var parsers = map[string]Parser{
	".yaml": ParseYAML,
	".yml":  ParseYAML,
	".toml": ParseTOML,
	".json": ParseJSON,
}

// ParserFor returns the parser for a file path, defaulting to YAML
func ParserFor(path string) Parser {
	if p, ok := parsers[strings.ToLower(filepath.Ext(path))]; ok {
		return p
	}
	return ParseYAML
}

// LoadFile reads and parses a document
func LoadFile(path string) (*domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParserFor(path)(data)
}

// LoadFacts reads, parses and resolves a document
func LoadFacts(path string) (*domain.Facts, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	facts, err := domain.Load(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return facts, nil
}
