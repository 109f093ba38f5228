package service

import "errors"

// Failure taxonomy shared by the control plane and the sync hub. Handlers
// map these onto client-facing responses; code-validity failures
// (ErrAuthenticationFailed / ErrNotFound / ErrExpired) are collapsed into
// one generic message at the edge so responses never reveal whether a code
// ever existed.
var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrAuthenticationFailed covers cryptographic verification failures and
	// rejected session tokens.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNotFound is returned when a referenced entity, code or grant does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a code was retrieved but its deadline has
	// passed. Checked after retrieval, so an expired code never reports
	// ErrNotFound.
	ErrExpired = errors.New("expired")

	// ErrConflict is returned when an operation collides with existing state
	// (duplicate code, already-established grant).
	ErrConflict = errors.New("conflict")

	// ErrInvalidOperation is returned when an operation is structurally
	// disallowed, e.g. an entity consuming its own share code.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrTokenIsExpired = errors.New("token is expired")
)
