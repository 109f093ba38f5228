package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/models"
)

// codeRepository is the SQL-backed implementation of [CodeRepository].
//
// Take methods run a select+delete transaction and use the DELETE's affected
// row count as the arbiter: when two devices race for the same code, exactly
// one transaction deletes the row and wins, the other reports
// [ErrCodeNotFound].
type codeRepository struct {
	*DB
	logger *logger.Logger
}

// NewCodeRepository constructs a [CodeRepository] backed by the provided
// database connection and logger.
func NewCodeRepository(db *DB, logger *logger.Logger) CodeRepository {
	return &codeRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveInvite stores a one-time device-link code.
func (c *codeRepository) SaveInvite(ctx context.Context, invite models.InviteRecord) error {
	sealedKey, err := json.Marshal(invite.SealedKey)
	if err != nil {
		return fmt.Errorf("failed to encode sealed key: %w", err)
	}

	query, args, err := buildInsertInvite(c.builder, invite, string(sealedKey))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	return c.saveCode(ctx, "codeRepository.SaveInvite", query, args)
}

// TakeInvite consumes the invite code: the stored record is returned and the
// row is deleted in the same transaction. Expiry is not checked here.
func (c *codeRepository) TakeInvite(ctx context.Context, code string) (models.InviteRecord, error) {
	log := logger.FromContext(ctx)

	tx, txErr := c.DB.BeginTx(ctx, nil)
	if txErr != nil {
		return models.InviteRecord{}, fmt.Errorf("%w: %w", ErrOpeningTransaction, txErr)
	}
	defer tx.Rollback()

	query, args, err := buildGetInvite(c.builder, code)
	if err != nil {
		return models.InviteRecord{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	var (
		invite    models.InviteRecord
		sealedKey string
	)
	scanErr := tx.QueryRowContext(ctx, query, args...).Scan(
		&invite.Code,
		&invite.EntityID,
		&sealedKey,
		&invite.ExpiresAt,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.InviteRecord{}, ErrCodeNotFound
		}
		return models.InviteRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	if err := json.Unmarshal([]byte(sealedKey), &invite.SealedKey); err != nil {
		return models.InviteRecord{}, fmt.Errorf("failed to decode sealed key: %w", err)
	}

	if err := c.deleteCodeTx(ctx, tx, tableInvites, code); err != nil {
		return models.InviteRecord{}, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return models.InviteRecord{}, fmt.Errorf("%w: %w", ErrCommittingTransaction, commitErr)
	}

	log.Debug().
		Str("func", "codeRepository.TakeInvite").
		Str("entity_id", invite.EntityID).
		Msg("invite code consumed")

	return invite, nil
}

// SaveShare stores a one-time property-share code.
func (c *codeRepository) SaveShare(ctx context.Context, share models.ShareRecord) error {
	sealedKey, err := json.Marshal(share.SealedKey)
	if err != nil {
		return fmt.Errorf("failed to encode sealed key: %w", err)
	}

	query, args, err := buildInsertShare(c.builder, share, string(sealedKey))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	return c.saveCode(ctx, "codeRepository.SaveShare", query, args)
}

// TakeShare consumes the share code with the same semantics as [TakeInvite].
func (c *codeRepository) TakeShare(ctx context.Context, code string) (models.ShareRecord, error) {
	log := logger.FromContext(ctx)

	tx, txErr := c.DB.BeginTx(ctx, nil)
	if txErr != nil {
		return models.ShareRecord{}, fmt.Errorf("%w: %w", ErrOpeningTransaction, txErr)
	}
	defer tx.Rollback()

	query, args, err := buildGetShare(c.builder, code)
	if err != nil {
		return models.ShareRecord{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	var (
		share     models.ShareRecord
		sealedKey string
	)
	scanErr := tx.QueryRowContext(ctx, query, args...).Scan(
		&share.Code,
		&share.SourceEntityID,
		&share.PropertyName,
		&sealedKey,
		&share.ExpiresAt,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.ShareRecord{}, ErrCodeNotFound
		}
		return models.ShareRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	if err := json.Unmarshal([]byte(sealedKey), &share.SealedKey); err != nil {
		return models.ShareRecord{}, fmt.Errorf("failed to decode sealed key: %w", err)
	}

	if err := c.deleteCodeTx(ctx, tx, tableShares, code); err != nil {
		return models.ShareRecord{}, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return models.ShareRecord{}, fmt.Errorf("%w: %w", ErrCommittingTransaction, commitErr)
	}

	log.Debug().
		Str("func", "codeRepository.TakeShare").
		Str("source_entity_id", share.SourceEntityID).
		Str("property_name", share.PropertyName).
		Msg("share code consumed")

	return share, nil
}

// DeleteExpiredCodes sweeps invites and shares whose deadline passed before
// now and returns the number of removed rows.
func (c *codeRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	var total int64
	for _, table := range []string{tableInvites, tableShares} {
		query, args, err := buildDeleteExpiredCodes(c.builder, table, now)
		if err != nil {
			return total, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
		}

		result, execErr := c.DB.ExecContext(ctx, query, args...)
		if execErr != nil {
			log.Err(execErr).
				Str("func", "codeRepository.DeleteExpiredCodes").
				Str("table", table).
				Msg("failed to delete expired codes")
			return total, fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
		}

		affected, _ := result.RowsAffected()
		total += affected
	}

	return total, nil
}

// DeleteCodesForEntity removes all outstanding codes belonging to the entity.
func (c *codeRepository) DeleteCodesForEntity(ctx context.Context, entityID string) error {
	log := logger.FromContext(ctx)

	builders := []func(string) (string, []any, error){
		func(id string) (string, []any, error) { return buildDeleteInvitesForEntity(c.builder, id) },
		func(id string) (string, []any, error) { return buildDeleteSharesForEntity(c.builder, id) },
	}

	for _, build := range builders {
		query, args, err := build(entityID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
		}

		if _, execErr := c.DB.ExecContext(ctx, query, args...); execErr != nil {
			log.Err(execErr).
				Str("func", "codeRepository.DeleteCodesForEntity").
				Str("entity_id", entityID).
				Msg("failed to delete codes")
			return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
		}
	}

	return nil
}

func (c *codeRepository) saveCode(ctx context.Context, funcName, query string, args []any) error {
	log := logger.FromContext(ctx)

	if _, execErr := c.DB.ExecContext(ctx, query, args...); execErr != nil {
		if c.errorClassificator.IsUniqueViolation(execErr) {
			return ErrCodeAlreadyExists
		}

		log.Err(execErr).
			Str("func", funcName).
			Msg("failed to insert code")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	return nil
}

func (c *codeRepository) deleteCodeTx(ctx context.Context, tx *sql.Tx, table, code string) error {
	query, args, err := buildDeleteCode(c.builder, table, code)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	result, execErr := tx.ExecContext(ctx, query, args...)
	if execErr != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	// a concurrent consumer may have deleted the row after our read
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrCodeNotFound
	}

	return nil
}
