// Package graph holds the family relationship graph: edge storage and
// adjacency indices, pre-commit validation, generation numbering and the
// descendant, pedigree and fan tree projections.
//
// # Concurrency
//
// Graph serializes every mutation behind a single writer lock. Readers call
// Snapshot, which returns an immutable view that is safe to share between
// goroutines and is rebuilt lazily after the next mutation.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph operations.
var (
	// ErrCycleDetected is returned when a parent-child edge would make a
	// person their own ancestor.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrDuplicateRelationship is returned when an identical edge already
	// exists, or a current partnership already links the pair.
	ErrDuplicateRelationship = errors.New("duplicate relationship")

	// ErrTooManyBiologicalParents is returned when a child already has two
	// biological parents.
	ErrTooManyBiologicalParents = errors.New("too many biological parents")

	ErrSelfRelationship = errors.New("person cannot be related to themselves")
	ErrPersonNotFound   = errors.New("person not found")
	ErrEdgeNotFound     = errors.New("edge not found")

	// ErrInvalidEdge is returned for malformed edges: unknown enum values,
	// confidence outside 0..100, an end date before the start date or a
	// reused edge id.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrInvalidDepth is returned when a projection is requested with a
	// negative depth.
	ErrInvalidDepth = errors.New("invalid depth")

	ErrUnknownView = errors.New("unknown tree view")
)

// WarningCode names a non-fatal validation finding.
type WarningCode string

const (
	WarnAgeGap                WarningCode = "age_gap"
	WarnParentDiedBeforeBirth WarningCode = "parent_died_before_birth"
	WarnConcurrentPartnership WarningCode = "concurrent_partnership"
)

// ValidationError is a blocking validation finding. It unwraps to one of
// the package sentinels.
type ValidationError struct {
	Code    error  `json:"-"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Message == "" {
		return e.Code.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Code }

// MarshalText lets the error travel as a plain string in JSON payloads.
func (e ValidationError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// ValidationWarning is a non-fatal finding returned alongside acceptance.
type ValidationWarning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// ValidationResult is the outcome of validating one proposed edge.
type ValidationResult struct {
	EdgeID   string              `json:"edgeId,omitempty"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// OK reports whether the edge may be committed.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the blocking errors, or returns nil when there are none.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Has reports whether any blocking error matches target.
func (r ValidationResult) Has(target error) bool {
	for _, e := range r.Errors {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

// HasWarning reports whether a warning with the given code was raised.
func (r ValidationResult) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Summary renders errors and warnings on one line for logs and CLI output.
func (r ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		parts = append(parts, "error: "+e.Error())
	}
	for _, w := range r.Warnings {
		parts = append(parts, fmt.Sprintf("warning: %s: %s", w.Code, w.Message))
	}
	return strings.Join(parts, "; ")
}

func (r *ValidationResult) fail(code error, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(code WarningCode, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationWarning{Code: code, Message: fmt.Sprintf(format, args...)})
}
