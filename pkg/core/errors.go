package core

import (
	"errors"
	"fmt"
)

// Validation failures. A rejected edit always wraps exactly one of these.
var (
	ErrEmptyName         = errors.New("empty attribute name")
	ErrDuplicateName     = errors.New("attribute name repeated")
	ErrTypeMismatch      = errors.New("value mismatches its data type")
	ErrOutOfRange        = errors.New("value is out of range")
	ErrInvalidExpression = errors.New("invalid expression")
)

// Commit and store errors.
var (
	ErrStoreWrite   = errors.New("attribute write failed")
	ErrStoreDelete  = errors.New("attribute delete failed")
	ErrNotFound     = errors.New("attribute not found")
	ErrReadOnly     = errors.New("store is in read-only mode")
	ErrNotValidated = errors.New("edited attributes have not been accepted by validation")
)

// ValidationError describes the first problem found in an edited set.
type ValidationError struct {
	Kind error
	Row  int // 1-based
	Name string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrEmptyName:
		return fmt.Sprintf("empty field Name in the row %d", e.Row)
	case ErrDuplicateName:
		return fmt.Sprintf("attribute name %q is repeated.", e.Name)
	case ErrOutOfRange:
		return fmt.Sprintf("%q value is out of range.", e.Name)
	case ErrInvalidExpression:
		return fmt.Sprintf("%q cannot be converted to an expression object.", e.Name)
	}
	return fmt.Sprintf("%q value mismatches its data type.", e.Name)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}
