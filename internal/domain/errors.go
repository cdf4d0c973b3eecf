package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every load failure wraps exactly one of these.
var (
	ErrValidation = errors.New("validation error")
	ErrReference  = errors.New("reference error")
)

// Validation errors
var (
	ErrInvalidDocument = fmt.Errorf("%w: invalid factsheet", ErrValidation)
	ErrInvalidRecord   = fmt.Errorf("%w: invalid record", ErrValidation)
	ErrInvalidURLSet   = fmt.Errorf("%w: invalid url set", ErrValidation)
	ErrInvalidRepo     = fmt.Errorf("%w: invalid repository shorthand", ErrValidation)
	ErrInheritanceKey  = fmt.Errorf("%w: inheritance key present at construction", ErrValidation)
)

// Reference errors
var (
	ErrUnknownNode      = fmt.Errorf("%w: unknown node", ErrReference)
	ErrUnknownTenant    = fmt.Errorf("%w: unknown tenant", ErrReference)
	ErrUnknownComponent = fmt.Errorf("%w: unknown component", ErrReference)
	ErrUnknownURLSet    = fmt.Errorf("%w: unknown url set", ErrReference)
	ErrLazyChain        = fmt.Errorf("%w: chained lazy resolution is not supported", ErrReference)
)

// ErrMissingProperties matches any *MissingPropertiesError.
var ErrMissingProperties = errors.New("required properties not found")

// MissingPropertiesError is returned by Node.AccumulatedProperties when the
// merged map lacks some required names. It only affects the failing query.
type MissingPropertiesError struct {
	NodeName string
	NodeID   string
	Missing  []string
}

func (e *MissingPropertiesError) Error() string {
	return fmt.Sprintf("required properties %s not found in node %s (id %s)",
		strings.Join(e.Missing, ", "), e.NodeName, e.NodeID)
}

// Is lets errors.Is(err, ErrMissingProperties) match.
func (e *MissingPropertiesError) Is(target error) bool {
	return target == ErrMissingProperties
}
