package dataprocessing

import (
	"errors"
	"fmt"
)

// ErrEmptyResult reports that a selection matched no rows. It is an expected,
// recoverable condition; callers decide whether it is a hard stop.
var ErrEmptyResult = errors.New("selection matched no records")

// SchemaError reports a missing or mistyped column.
// Record is the zero-based row index, or -1 when the problem is not row specific.
type SchemaError struct {
	Field  string
	Record int
	Name   string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Record < 0 && e.Field == "":
		return fmt.Sprintf("schema error: %s", e.Reason)
	case e.Record < 0:
		return fmt.Sprintf("schema error: field %q: %s", e.Field, e.Reason)
	case e.Name != "":
		return fmt.Sprintf("schema error: field %q in record %d (%s): %s", e.Field, e.Record, e.Name, e.Reason)
	default:
		return fmt.Sprintf("schema error: field %q in record %d: %s", e.Field, e.Record, e.Reason)
	}
}

// DataError reports a value outside its expected domain, such as a
// non-numeric score or a missing score under the fail-fast policy.
type DataError struct {
	Field  string
	Record int
	Name   string
	Value  string
	Reason string
}

func (e *DataError) Error() string {
	msg := fmt.Sprintf("data error: field %q in record %d", e.Field, e.Record)
	if e.Name != "" {
		msg += fmt.Sprintf(" (%s)", e.Name)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	return msg + ": " + e.Reason
}

// IsSchemaError reports whether err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsDataError reports whether err wraps a *DataError.
func IsDataError(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}
