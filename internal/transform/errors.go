package transform

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned for a request with no input texts.
var ErrEmptyInput = errors.New("input must contain at least one text")

// ErrTimeout is returned when the caller's deadline expired before the
// transform completed. Retryable by the caller.
var ErrTimeout = errors.New("transform deadline exceeded")

// InputTooLongError reports an input exceeding the model's maximum length
// under the strict (non-truncating) policy.
type InputTooLongError struct {
	Index  int // position in the request input
	Length int // rune length of the offending text
	Limit  int // the model's maximum input length
}

func (e *InputTooLongError) Error() string {
	return fmt.Sprintf("input %d is %d characters, exceeds model limit of %d", e.Index, e.Length, e.Limit)
}

// ContractError reports model output that violates the registered descriptor.
// It indicates a registry misconfiguration or a broken backend, never a bad
// request, and is never retried.
type ContractError struct {
	Model string
	Index int
	Got   int
	Want  int
	Kind  string // "vector length" or "batch size"
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("model %q broke its contract at index %d: %s %d, expected %d", e.Model, e.Index, e.Kind, e.Got, e.Want)
}
