package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/models"
)

// grantRepository is the SQL-backed implementation of [GrantRepository].
// One row holds both sides of a grant, so the outgoing/incoming mirror can
// never drift: creation and revocation touch a single row.
type grantRepository struct {
	*DB
	logger *logger.Logger
}

// NewGrantRepository constructs a [GrantRepository] backed by the provided
// database connection and logger.
func NewGrantRepository(db *DB, logger *logger.Logger) GrantRepository {
	return &grantRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveGrant stores an established grant. A duplicate
// (source, target, property) triple reports [ErrGrantAlreadyExists].
func (g *grantRepository) SaveGrant(ctx context.Context, grant models.GrantRecord) error {
	log := logger.FromContext(ctx)

	sealedKey, err := json.Marshal(grant.SealedKey)
	if err != nil {
		return fmt.Errorf("failed to encode sealed key: %w", err)
	}

	query, args, err := buildInsertGrant(g.builder, grant, string(sealedKey))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	if _, execErr := g.DB.ExecContext(ctx, query, args...); execErr != nil {
		if g.errorClassificator.IsUniqueViolation(execErr) {
			return ErrGrantAlreadyExists
		}

		log.Err(execErr).
			Str("func", "grantRepository.SaveGrant").
			Str("source_entity_id", grant.SourceEntityID).
			Str("target_entity_id", grant.TargetEntityID).
			Str("property_name", grant.PropertyName).
			Msg("failed to insert grant")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	return nil
}

// DeleteGrant revokes one grant. Both the source's outgoing view and the
// target's incoming view disappear together.
func (g *grantRepository) DeleteGrant(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteGrant(g.builder, sourceEntityID, targetEntityID, propertyName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	result, execErr := g.DB.ExecContext(ctx, query, args...)
	if execErr != nil {
		log.Err(execErr).
			Str("func", "grantRepository.DeleteGrant").
			Str("source_entity_id", sourceEntityID).
			Str("target_entity_id", targetEntityID).
			Str("property_name", propertyName).
			Msg("failed to delete grant")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrGrantNotFound
	}

	return nil
}

// ListGrantsBySource returns all grants the entity hands out.
func (g *grantRepository) ListGrantsBySource(ctx context.Context, sourceEntityID string) ([]models.GrantRecord, error) {
	return g.listGrants(ctx, "grantRepository.ListGrantsBySource", sq.Eq{"source_entity_id": sourceEntityID})
}

// ListGrantsByTarget returns all grants the entity receives.
func (g *grantRepository) ListGrantsByTarget(ctx context.Context, targetEntityID string) ([]models.GrantRecord, error) {
	return g.listGrants(ctx, "grantRepository.ListGrantsByTarget", sq.Eq{"target_entity_id": targetEntityID})
}

// ListGrantTargets returns the entity ids subscribed to one named property
// of the source. Used on the hot path of shared-event propagation.
func (g *grantRepository) ListGrantTargets(ctx context.Context, sourceEntityID, propertyName string) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListGrantTargets(g.builder, sourceEntityID, propertyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	rows, queryErr := g.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "grantRepository.ListGrantTargets").
			Str("source_entity_id", sourceEntityID).
			Str("property_name", propertyName).
			Msg("failed to execute query for listing grant targets")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	targets := make([]string, 0, 4)

	for rows.Next() {
		var target string
		if scanErr := rows.Scan(&target); scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		targets = append(targets, target)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return targets, nil
}

// DeleteGrantsForEntity removes every grant the entity participates in, on
// either side.
func (g *grantRepository) DeleteGrantsForEntity(ctx context.Context, entityID string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteGrantsForEntity(g.builder, entityID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	if _, execErr := g.DB.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "grantRepository.DeleteGrantsForEntity").
			Str("entity_id", entityID).
			Msg("failed to delete grants")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	return nil
}

func (g *grantRepository) listGrants(ctx context.Context, funcName string, where sq.Eq) ([]models.GrantRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListGrants(g.builder, where)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	rows, queryErr := g.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", funcName).
			Msg("failed to execute query for listing grants")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	grants := make([]models.GrantRecord, 0, 8)

	for rows.Next() {
		var (
			grant     models.GrantRecord
			sealedKey string
		)

		scanErr := rows.Scan(
			&grant.SourceEntityID,
			&grant.TargetEntityID,
			&grant.PropertyName,
			&sealedKey,
			&grant.CreatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", funcName).
				Msg("failed to scan grant row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		if err := json.Unmarshal([]byte(sealedKey), &grant.SealedKey); err != nil {
			return nil, fmt.Errorf("failed to decode sealed key: %w", err)
		}

		grants = append(grants, grant)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return grants, nil
}
