package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/models"
)

// entityRepository is the SQL-backed implementation of [EntityRepository].
type entityRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntityRepository constructs an [EntityRepository] backed by the provided
// database connection and logger.
func NewEntityRepository(db *DB, logger *logger.Logger) EntityRepository {
	return &entityRepository{
		DB:     db,
		logger: logger,
	}
}

// RegisterEntity inserts the entity record. Registration is idempotent per
// credential: when the credential is already registered, the existing record
// is returned with created=false and the passed-in record is discarded.
func (r *entityRepository) RegisterEntity(ctx context.Context, entity models.EntityRecord) (models.EntityRecord, bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildInsertEntity(r.builder, entity)
	if err != nil {
		return models.EntityRecord{}, false, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	_, execErr := r.DB.ExecContext(ctx, query, args...)
	if execErr != nil {
		if r.errorClassificator.IsUniqueViolation(execErr) {
			existing, getErr := r.getByCredential(ctx, entity.CredentialID)
			if getErr != nil {
				return models.EntityRecord{}, false, getErr
			}
			return existing, false, nil
		}

		log.Err(execErr).
			Str("func", "entityRepository.RegisterEntity").
			Str("credential_id", entity.CredentialID).
			Msg("failed to insert entity")
		return models.EntityRecord{}, false, fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	log.Info().
		Str("func", "entityRepository.RegisterEntity").
		Str("entity_id", entity.EntityID).
		Msg("entity registered")

	return entity, true, nil
}

// GetEntity retrieves one entity by its identifier.
func (r *entityRepository) GetEntity(ctx context.Context, entityID string) (models.EntityRecord, error) {
	query, args, err := buildGetEntity(r.builder, entityID)
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	return r.scanEntity(ctx, "entityRepository.GetEntity", query, args)
}

// DeleteEntity removes the entity record itself. Events, codes and grants
// are cleaned up by their own repositories; the erase service orchestrates
// the full teardown.
func (r *entityRepository) DeleteEntity(ctx context.Context, entityID string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteEntity(r.builder, entityID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	result, execErr := r.DB.ExecContext(ctx, query, args...)
	if execErr != nil {
		log.Err(execErr).
			Str("func", "entityRepository.DeleteEntity").
			Str("entity_id", entityID).
			Msg("failed to delete entity")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

func (r *entityRepository) getByCredential(ctx context.Context, credentialID string) (models.EntityRecord, error) {
	query, args, err := buildGetEntityByCredential(r.builder, credentialID)
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	return r.scanEntity(ctx, "entityRepository.getByCredential", query, args)
}

func (r *entityRepository) scanEntity(ctx context.Context, funcName, query string, args []any) (models.EntityRecord, error) {
	log := logger.FromContext(ctx)

	var entity models.EntityRecord
	scanErr := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&entity.EntityID,
		&entity.CredentialID,
		&entity.PublicKey,
		&entity.CreatedAt,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.EntityRecord{}, ErrEntityNotFound
		}

		log.Err(scanErr).
			Str("func", funcName).
			Msg("failed to scan entity row")
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	return entity, nil
}
