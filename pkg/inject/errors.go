package inject

import (
	"errors"
	"fmt"
)

var (
	// ErrInteractionBlocked means the control was hidden, disabled or
	// read-only when the write was attempted.
	ErrInteractionBlocked = errors.New("field is not interactable")

	// ErrNoOption means no select option or radio button matched.
	ErrNoOption = errors.New("no matching option")

	// ErrOutOfRange means a number fell outside the field's min/max.
	ErrOutOfRange = errors.New("number out of range")

	// ErrUnsupportedType is returned for field types the writer does not fill.
	ErrUnsupportedType = errors.New("unsupported field type")

	// ErrStale means the record's element is no longer in the document.
	ErrStale = errors.New("field is no longer in the document")

	// ErrMatchNotFound means an answer could not be bound to any field.
	ErrMatchNotFound = errors.New("no field matches answer")

	// ErrLowConfidence means an answer was skipped by the confidence gate.
	ErrLowConfidence = errors.New("answer confidence below threshold")
)

// ParseError reports content that could not be coerced to a date or number.
type ParseError struct {
	Kind  string
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s", e.Input, e.Kind)
}
