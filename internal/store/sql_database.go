package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/migrations"
)

type DB struct {
	*sql.DB
	// builder carries the placeholder format of the connected driver
	// ($1 for pgx, ? for sqlite3) so repositories stay dialect-agnostic.
	builder            sq.StatementBuilderType
	dialect            string
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

// ErrorClassificator inspects driver-level errors so repositories can react
// to well-known conditions (unique violations, transient failures) without
// importing driver packages themselves.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
	IsUniqueViolation(err error) bool
}
