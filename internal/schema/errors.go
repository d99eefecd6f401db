package schema

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateType indicates a type name was registered more than once.
	ErrDuplicateType = errors.New("duplicate type")
	// ErrConflictingField indicates two fields of a type share a name once
	// normalised.
	ErrConflictingField = errors.New("conflicting field")
	// ErrInvalidName indicates a name is not a valid GraphQL name or is
	// reserved.
	ErrInvalidName = errors.New("invalid name")
	// ErrMissingQuery indicates no Query type with fields was registered.
	ErrMissingQuery = errors.New("missing Query type")
	// ErrUnknownType indicates a reference to a type that was not registered.
	ErrUnknownType = errors.New("unknown type")
	// ErrInvalidKey indicates a federation key that cannot identify an entity.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidSchema indicates the assembled schema failed validation.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrMissingReferenceResolver indicates an entity cannot be resolved by
	// reference.
	ErrMissingReferenceResolver = errors.New("missing reference resolver")
)

// GenerationError aggregates every problem found while generating a schema.
type GenerationError struct {
	Errs []error
}

// NewGenerationError creates a *GenerationError from errs. nil is returned if
// errs is empty.
func NewGenerationError(errs ...error) error {
	if len(errs) == 0 {
		return nil
	}
	return &GenerationError{Errs: errs}
}

func (e *GenerationError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return "schema generation failed: " + strings.Join(msgs, "; ")
}

func (e *GenerationError) Unwrap() []error {
	return e.Errs
}
