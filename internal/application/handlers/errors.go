// Package handlers contains application use case handlers. They turn raw
// user input from the CLI and the HTTP API into domain calls.
package handlers

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every error caused by malformed user input,
// as opposed to domain rejections or storage failures.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
