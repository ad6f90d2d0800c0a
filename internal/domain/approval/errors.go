package approval

import "errors"

var (
	// ErrValidation is returned for malformed input; the caller can correct
	// the input and retry.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned when the actor's role does not permit the
	// action in the current state.
	ErrUnauthorized = errors.New("actor not permitted")

	// ErrInvalidState is returned when the action is not valid for the
	// request's current lifecycle state.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrLevelExceeded is returned when the approval ledger is already fully
	// resolved. Unreachable if status transitions are applied correctly;
	// kept as a guard against races.
	ErrLevelExceeded = errors.New("approval level exceeded")

	// ErrConflict is returned when a concurrent mutation won the race; the
	// caller should re-read state and retry.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrNotFound is returned for an unknown request id.
	ErrNotFound = errors.New("request not found")

	// ErrInvalidTransition is returned when a state transition is not
	// configured for the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
