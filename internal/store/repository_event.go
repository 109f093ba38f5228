package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/utils"
	"github.com/MKhiriev/vault-sync/models"
)

// eventRepository is the SQL-backed implementation of [EventRepository].
//
// Sequence numbers are assigned inside AppendEvent under a per-entity mutex:
// the read-max/insert pair is the only critical section, so appends to
// different entities proceed concurrently while appends to one entity are
// strictly serialized and gap-free.
type eventRepository struct {
	*DB
	logger *logger.Logger
	uuid   *utils.UUIDGenerator

	// entityLocks maps entityID -> *sync.Mutex. Entries are never removed;
	// the set of hot entities is small compared to the event volume.
	entityLocks sync.Map
}

// NewEventRepository constructs an [EventRepository] backed by the provided
// database connection and logger.
func NewEventRepository(db *DB, logger *logger.Logger) EventRepository {
	return &eventRepository{
		DB:     db,
		logger: logger,
		uuid:   utils.NewUUIDGenerator(),
	}
}

func (e *eventRepository) lockEntity(entityID string) *sync.Mutex {
	mu, _ := e.entityLocks.LoadOrStore(entityID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// AppendEvent stores payload as the next event of the entity and returns the
// stored event with its server-assigned sequence number and timestamp.
func (e *eventRepository) AppendEvent(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error) {
	log := logger.FromContext(ctx)

	mu := e.lockEntity(entityID)
	mu.Lock()
	defer mu.Unlock()

	query, args, err := buildMaxSequence(e.builder, entityID)
	if err != nil {
		return models.EncryptedEvent{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	var maxSequence int64
	if scanErr := e.DB.QueryRowContext(ctx, query, args...).Scan(&maxSequence); scanErr != nil {
		log.Err(scanErr).
			Str("func", "eventRepository.AppendEvent").
			Str("entity_id", entityID).
			Msg("failed to read current max sequence")
		return models.EncryptedEvent{}, fmt.Errorf("%w: %w", ErrExecutingQuery, scanErr)
	}

	event := models.EncryptedEvent{
		ID:        e.uuid.Generate(),
		EntityID:  entityID,
		Sequence:  maxSequence + 1,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}

	query, args, err = buildInsertEvent(e.builder, event)
	if err != nil {
		return models.EncryptedEvent{}, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	result, execErr := e.DB.ExecContext(ctx, query, args...)
	if execErr != nil {
		log.Err(execErr).
			Str("func", "eventRepository.AppendEvent").
			Str("entity_id", entityID).
			Int64("sequence", event.Sequence).
			Msg("failed to insert event")
		return models.EncryptedEvent{}, fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return models.EncryptedEvent{}, ErrEventNotSaved
	}

	log.Debug().
		Str("func", "eventRepository.AppendEvent").
		Str("entity_id", entityID).
		Int64("sequence", event.Sequence).
		Msg("event appended")

	return event, nil
}

// CacheEvent stores an event verbatim, keeping its server-assigned id and
// sequence. Re-inserting an already cached event is a no-op.
func (e *eventRepository) CacheEvent(ctx context.Context, event models.EncryptedEvent) error {
	log := logger.FromContext(ctx)

	query, args, err := buildCacheEvent(e.builder, event)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	if _, execErr := e.DB.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "eventRepository.CacheEvent").
			Str("entity_id", event.EntityID).
			Int64("sequence", event.Sequence).
			Msg("failed to cache event")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	return nil
}

// ReplayEvents returns the entity's full history in ascending sequence order.
// An entity with no events yields an empty slice, not an error.
func (e *eventRepository) ReplayEvents(ctx context.Context, entityID string) ([]models.EncryptedEvent, error) {
	query, args, err := buildReplayEvents(e.builder, entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	return e.queryEvents(ctx, "eventRepository.ReplayEvents", entityID, query, args)
}

// LastEvents returns at most limit newest events of the entity in ascending
// sequence order.
func (e *eventRepository) LastEvents(ctx context.Context, entityID string, limit uint64) ([]models.EncryptedEvent, error) {
	query, args, err := buildLastEvents(e.builder, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	events, err := e.queryEvents(ctx, "eventRepository.LastEvents", entityID, query, args)
	if err != nil {
		return nil, err
	}

	// the query reads newest-first; restore ascending order
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	return events, nil
}

// EraseEvents removes the entity's entire history.
func (e *eventRepository) EraseEvents(ctx context.Context, entityID string) error {
	log := logger.FromContext(ctx)

	mu := e.lockEntity(entityID)
	mu.Lock()
	defer mu.Unlock()

	query, args, err := buildEraseEvents(e.builder, entityID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingQuery, err)
	}

	if _, execErr := e.DB.ExecContext(ctx, query, args...); execErr != nil {
		log.Err(execErr).
			Str("func", "eventRepository.EraseEvents").
			Str("entity_id", entityID).
			Msg("failed to erase events")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	return nil
}

func (e *eventRepository) queryEvents(ctx context.Context, funcName, entityID, query string, args []any) ([]models.EncryptedEvent, error) {
	log := logger.FromContext(ctx)

	rows, queryErr := e.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", funcName).
			Str("entity_id", entityID).
			Msg("failed to execute query for reading events")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	events := make([]models.EncryptedEvent, 0, 16)

	for rows.Next() {
		var event models.EncryptedEvent

		scanErr := rows.Scan(
			&event.ID,
			&event.EntityID,
			&event.Sequence,
			&event.Payload.Version,
			&event.Payload.Algorithm,
			&event.Payload.Nonce,
			&event.Payload.Ciphertext,
			&event.CreatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", funcName).
				Str("entity_id", entityID).
				Msg("failed to scan event row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		events = append(events, event)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", funcName).
			Str("entity_id", entityID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return events, nil
}
