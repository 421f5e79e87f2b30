package scanner

import "fmt"

// ExtractionError reports a control whose metadata could not be read.
// The scanner skips such controls and keeps going.
type ExtractionError struct {
	Index int
	Tag   string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract field %d (<%s>): %v", e.Index, e.Tag, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
