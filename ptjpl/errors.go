package ptjpl

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput matches every *MissingInputError.
	ErrMissingInput = errors.New("missing required input")

	// ErrInvalidDomain matches every *DomainError.
	ErrInvalidDomain = errors.New("input outside its valid domain")
)

// MissingInputError reports a required input that could not be supplied by
// the caller or by any collaborator.
type MissingInputError struct {
	Name string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("ptjpl: %s not given", e.Name)
}

func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// DomainError reports an element outside the domain of a constraint input.
// It is only raised when strict relative humidity validation is enabled.
type DomainError struct {
	Name  string
	Index int
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("ptjpl: %s[%d] = %g is outside [0, 1]", e.Name, e.Index, e.Value)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrInvalidDomain
}

// CollaboratorError wraps a failure surfaced by an external lookup or model.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("ptjpl: %s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// ShapeError reports fields whose lengths cannot be broadcast together.
type ShapeError struct {
	Name  string
	Len   int
	Want  int
	Other string
}

func (e *ShapeError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("ptjpl: %s has length %d, want %d", e.Name, e.Len, e.Want)
	}
	return fmt.Sprintf("ptjpl: %s has length %d, but %s has length %d", e.Name, e.Len, e.Other, e.Want)
}
