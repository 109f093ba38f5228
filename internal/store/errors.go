package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEntityNotFound is returned when a queried entity record does not
	// exist in the database.
	ErrEntityNotFound = errors.New("entity was not found")

	// ErrEventNotSaved is returned when an INSERT of an encrypted event
	// completes without error but the number of affected rows is zero,
	// indicating that nothing was actually persisted.
	ErrEventNotSaved = errors.New("event was not saved")

	// ErrCodeNotFound is returned when a lookup of an invite or share code
	// produces an empty result set. A code that was already consumed or
	// swept after expiry reports the same error: the registry does not
	// distinguish "never existed" from "gone".
	ErrCodeNotFound = errors.New("code was not found")

	// ErrCodeAlreadyExists is returned when an attempt to store a new invite
	// or share code collides with a code that is still active.
	ErrCodeAlreadyExists = errors.New("code already exists")

	// ErrGrantNotFound is returned when a revocation targets a property grant
	// that does not exist.
	ErrGrantNotFound = errors.New("grant was not found")

	// ErrGrantAlreadyExists is returned when a consumed share code would
	// create a grant that is already established for the same source entity,
	// target entity and property name.
	ErrGrantAlreadyExists = errors.New("grant already exists")

	// ErrBuildingQuery indicates a failure while assembling a dynamic SQL
	// statement, before anything was sent to the database.
	ErrBuildingQuery = errors.New("error building query")

	// ErrExecutingQuery wraps driver-level failures of Exec/Query calls.
	ErrExecutingQuery = errors.New("error executing query")

	// ErrScanningRow wraps failures to scan a single result row.
	ErrScanningRow = errors.New("error scanning row")

	// ErrScanningRows wraps an iteration error detected after the result set
	// is exhausted.
	ErrScanningRows = errors.New("error scanning rows")

	// ErrOpeningTransaction wraps failures to begin a database transaction.
	ErrOpeningTransaction = errors.New("error opening transaction")

	// ErrCommittingTransaction wraps failures to commit a database transaction.
	ErrCommittingTransaction = errors.New("error committing transaction")
)
