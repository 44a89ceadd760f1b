package elexon

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned when a caller supplies a window whose
	// start is not strictly before its end. Rejected before any I/O.
	ErrInvalidRange = errors.New("invalid time range: start must be before end")

	// ErrFetchExhausted is returned when every retry attempt against the
	// API has failed. Terminal: callers must not retry further.
	ErrFetchExhausted = errors.New("fetch attempts exhausted")
)

// MalformedRecordError indicates a success response whose body does not
// match the expected shape. Non-retryable: the whole response is rejected
// without consuming retry budget.
type MalformedRecordError struct {
	Field string // missing or unparseable field, when known
	Err   error  // underlying decode error, when any
}

func (e *MalformedRecordError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("malformed record: field %q: %v", e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("malformed record: missing field %q", e.Field)
	default:
		return fmt.Sprintf("malformed response body: %v", e.Err)
	}
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
