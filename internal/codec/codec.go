// Package codec writes snapshots of resolved factsheets in file formats.
package codec

import (
	"fmt"
	"io"
	"sort"

	"factsheet/internal/domain"
)

// Exporter interface for exporting snapshots to various formats
type Exporter interface {
	Export(s *domain.Snapshot, w io.Writer) error
	Format() string
}

var exporters = map[string]Exporter{}

func register(e Exporter) {
	exporters[e.Format()] = e
}

func init() {
	register(NewJSONCodec())
	register(NewYAMLCodec())
}

// ForFormat returns the exporter for a format name
func ForFormat(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (have %v)", format, Formats())
	}
	return e, nil
}

// Formats lists the registered format names
func Formats() []string {
	out := make([]string, 0, len(exporters))
	for f := range exporters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
