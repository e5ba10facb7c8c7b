package problemset

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSchema marks a payload that is not a valid problem set.
	ErrSchema = errors.New("invalid problem set")
	// ErrNetwork marks a failed remote fetch.
	ErrNetwork = errors.New("problem set fetch failed")
)

// SchemaError points at the entry and field that failed validation.
// Index is -1 for payload-level failures.
type SchemaError struct {
	Index int
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Index < 0:
		return fmt.Sprintf("%s: %s", ErrSchema.Error(), e.Msg)
	case e.Field == "":
		return fmt.Sprintf("%s: problem %d: %s", ErrSchema.Error(), e.Index, e.Msg)
	default:
		return fmt.Sprintf("%s: problem %d: %s: %s", ErrSchema.Error(), e.Index, e.Field, e.Msg)
	}
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// NetworkError wraps a failed fetch from URL.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrNetwork.Error(), e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// IsCanceled reports whether err comes from a canceled load. Canceled loads
// are not failures and must not change any state.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func schemaf(index int, field, format string, args ...any) error {
	return &SchemaError{Index: index, Field: field, Msg: fmt.Sprintf(format, args...)}
}
