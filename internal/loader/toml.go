package loader

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"factsheet/internal/domain"
)

// ParseTOML parses a factsheet document from TOML bytes. TOML tables decode
// into Go maps, so keys come back sorted rather than in document order.
func ParseTOML(data []byte) (*domain.Record, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return domain.RecordFromMap(doc), nil
}
