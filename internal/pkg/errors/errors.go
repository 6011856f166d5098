package errors

import "errors"

var (
	// ErrNotFound is returned when a playbook template (or other resource) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownStep is returned when a step id does not belong to the addressed template.
	ErrUnknownStep = errors.New("unknown step")
	// ErrStepBlocked is returned when a completion targets a step whose prerequisites are unmet.
	ErrStepBlocked = errors.New("step blocked")
	// ErrStorageUnavailable wraps repository I/O failures. Callers may retry; the core never does.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)
