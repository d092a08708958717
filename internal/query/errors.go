package query

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is the sentinel wrapped by every ParseError.
var ErrInvalidParameter = errors.New("invalid query parameter")

// ParseError reports a query parameter that could not be interpreted.
// Its message is the one returned to API clients, e.g. "Invalid where parameter".
type ParseError struct {
	Param  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("Invalid %s parameter", e.Param)
}

// Unwrap allows errors.Is(err, ErrInvalidParameter).
func (e *ParseError) Unwrap() error {
	return ErrInvalidParameter
}

func invalid(param, format string, args ...any) *ParseError {
	return &ParseError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
