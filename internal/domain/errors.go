package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrCodeExhausted means the code generator gave up after its
	// bounded number of candidates all collided.
	ErrCodeExhausted = errors.New("tenant code space exhausted")
)

// AliasConflictError is returned when a tenant alias is already taken in
// the shared account namespace.
type AliasConflictError struct {
	Alias string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %q is already in use", e.Alias)
}

// CodeConflictError is returned when the store's unique constraint
// rejects a generated tenant code. Retryable: the caller generates a
// fresh candidate.
type CodeConflictError struct {
	Code string
}

func (e *CodeConflictError) Error() string {
	return fmt.Sprintf("tenant code %q is already in use", e.Code)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// ValidationError is returned for bad input: an unknown decision code, a
// past expiry date, an empty ID list.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError is returned when current state refuses an operation, such
// as binding apps to an unapproved tenant or unbinding apps that roles
// still reference.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }
