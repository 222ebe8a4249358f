// Package ports defines the interfaces the domain needs from infrastructure.
package ports

import "errors"

// ErrNotFound is wrapped by storage implementations when a record to
// update or delete does not exist.
var ErrNotFound = errors.New("record not found")
