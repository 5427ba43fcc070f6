package wire

import "errors"

// ErrMalformedMessage is returned when a message fails to parse: a field
// is missing, the wrong type, or out of range. The connection this
// message arrived on should be reset; the JIT channel it concerns, if
// any, is left unchanged.
//
// Declared with stdlib errors.New, not go-errors: go-errors v1.0.1
// predates Go 1.13 and its *Error does not implement Unwrap, so
// wrapping it with go-errors.Errorf("%w: ...", ...) would make this
// sentinel unreachable to errors.Is. Callers that need to match this
// error wrap it with stdlib fmt.Errorf("%w: ...", ErrMalformedMessage).
var ErrMalformedMessage = errors.New("malformed message")
