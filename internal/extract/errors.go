package extract

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Match with errors.Is.
var (
	// ErrReferenceDataUnavailable means a reference table needed by an
	// enabled feature is missing or unreadable.
	ErrReferenceDataUnavailable = errors.New("reference data unavailable")

	// ErrMissingInputFile means a SubjectIDFiles entry could not be opened.
	ErrMissingInputFile = errors.New("missing input file")

	// ErrMalformedInputFile means a SubjectIDFiles entry opened but holds a
	// line that is not an id.
	ErrMalformedInputFile = errors.New("malformed input file")

	// ErrUnsupportedInput means the data file extension is not recognised.
	ErrUnsupportedInput = errors.New("unsupported input")
)

// InputError ties a fatal error kind to the input location that caused it.
type InputError struct {
	Kind error
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *InputError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
