package model

import "fmt"

// ValidationError reports a malformed or out-of-range parameter. It is
// raised before any solve and is always fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// DataFormatError reports a malformed forecast input, e.g. a price vector of
// the wrong length or containing negative values.
type DataFormatError struct {
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("malformed forecast data: %s", e.Reason)
}
