package model

import "errors"

// Sentinel errors shared across the engine. Callers match with errors.Is.
var (
	// ErrNotFound is returned when a UID, full name or commodity code does
	// not resolve to a stored entity.
	ErrNotFound = errors.New("pocketbooks: not found")

	// ErrInvalidArgument is returned for malformed input (empty UID,
	// non-positive price ratio, zero denominator) before any mutation is
	// attempted.
	ErrInvalidArgument = errors.New("pocketbooks: invalid argument")

	// ErrRootAccount is returned when an operation would delete or reparent
	// the root account.
	ErrRootAccount = errors.New("pocketbooks: operation not allowed on root account")

	// ErrAccountCycle is returned when reparenting would make an account its
	// own ancestor.
	ErrAccountCycle = errors.New("pocketbooks: account cannot be its own ancestor")
)
