// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"errors"
	"fmt"
)

// Kind classifies an error crossing the core boundary.
type Kind int

const (
	// KindNotFound means a file, user, or grant does not exist.
	KindNotFound Kind = iota

	// KindDenied means a capability check failed.
	KindDenied

	// KindConflict means a mutation violated the one-grant-per-pair
	// invariant at the store boundary.
	KindConflict

	// KindValidation means the request itself is malformed or
	// meaningless (for example, granting to the file's owner).
	KindValidation
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindDenied:
		return "access_denied"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the structured error type for all authorization and grant
// lifecycle failures. Callers classify with [IsKind] or errors.As:
//
//	var accessErr *access.Error
//	if errors.As(err, &accessErr) && accessErr.Kind == access.KindDenied { ... }
type Error struct {
	// Kind is the taxonomy bucket.
	Kind Kind

	// Message is the human-readable description.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("access: %s: %s", e.Kind, e.Message)
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Denied returns a KindDenied error.
func Denied(format string, args ...any) error {
	return &Error{Kind: KindDenied, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Invalid returns a KindValidation error.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var accessErr *Error
	if errors.As(err, &accessErr) {
		return accessErr.Kind == kind
	}
	return false
}
