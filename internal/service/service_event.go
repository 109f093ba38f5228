package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/store"
	"github.com/MKhiriev/vault-sync/models"
)

// eventService is the concrete implementation of EventService. The payloads
// it handles are opaque ciphertext; the only validation possible server-side
// is structural (known format version and algorithm, non-empty body).
type eventService struct {
	eventRepository  store.EventRepository
	entityRepository store.EntityRepository
	codeRepository   store.CodeRepository
	grantRepository  store.GrantRepository
	logger           *logger.Logger
}

// NewEventService constructs an EventService over the given repositories.
// Erase spans all four aggregates, so the service takes the full set.
func NewEventService(storages *store.Storages, logger *logger.Logger) EventService {
	return &eventService{
		eventRepository:  storages.EventRepository,
		entityRepository: storages.EntityRepository,
		codeRepository:   storages.CodeRepository,
		grantRepository:  storages.GrantRepository,
		logger:           logger,
	}
}

// Append persists the payload as the entity's next event and returns the
// stored event with its assigned sequence.
func (e *eventService) Append(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error) {
	log := logger.FromContext(ctx)

	if entityID == "" || payload.Ciphertext == "" || payload.Nonce == "" {
		return models.EncryptedEvent{}, ErrInvalidDataProvided
	}
	if payload.Version != models.PayloadVersion || payload.Algorithm != models.AlgorithmAESGCM {
		log.Error().
			Str("func", "eventService.Append").
			Int("version", payload.Version).
			Str("algorithm", payload.Algorithm).
			Msg("unsupported payload format")
		return models.EncryptedEvent{}, ErrInvalidDataProvided
	}

	event, err := e.eventRepository.AppendEvent(ctx, entityID, payload)
	if err != nil {
		log.Err(err).Str("func", "eventService.Append").Str("entity_id", entityID).Msg("event append ended with error")
		return models.EncryptedEvent{}, fmt.Errorf("event append ended with error: %w", err)
	}

	return event, nil
}

// Replay returns the entity's full history in append order. Unknown
// entities yield an empty history.
func (e *eventService) Replay(ctx context.Context, entityID string) ([]models.EncryptedEvent, error) {
	log := logger.FromContext(ctx)

	events, err := e.eventRepository.ReplayEvents(ctx, entityID)
	if err != nil {
		log.Err(err).Str("func", "eventService.Replay").Str("entity_id", entityID).Msg("replay ended with error")
		return nil, fmt.Errorf("replay ended with error: %w", err)
	}

	return events, nil
}

// ReplayTail returns at most n most recent events in append order.
func (e *eventService) ReplayTail(ctx context.Context, entityID string, n uint64) ([]models.EncryptedEvent, error) {
	log := logger.FromContext(ctx)

	if n == 0 {
		return []models.EncryptedEvent{}, nil
	}

	events, err := e.eventRepository.LastEvents(ctx, entityID, n)
	if err != nil {
		log.Err(err).Str("func", "eventService.ReplayTail").Str("entity_id", entityID).Msg("tail replay ended with error")
		return nil, fmt.Errorf("tail replay ended with error: %w", err)
	}

	return events, nil
}

// EraseEntity irrecoverably wipes the entity: event log, outstanding codes,
// grants in both directions, and the registration record itself. Partial
// failure leaves later steps unexecuted and is reported to the caller; the
// log wipe comes first so no ciphertext outlives a failed teardown.
func (e *eventService) EraseEntity(ctx context.Context, entityID string) error {
	log := logger.FromContext(ctx)

	if entityID == "" {
		return ErrInvalidDataProvided
	}

	if err := e.eventRepository.EraseEvents(ctx, entityID); err != nil {
		log.Err(err).Str("func", "eventService.EraseEntity").Str("entity_id", entityID).Msg("event log wipe failed")
		return fmt.Errorf("event log wipe failed: %w", err)
	}

	if err := e.codeRepository.DeleteCodesForEntity(ctx, entityID); err != nil {
		log.Err(err).Str("func", "eventService.EraseEntity").Str("entity_id", entityID).Msg("code cleanup failed")
		return fmt.Errorf("code cleanup failed: %w", err)
	}

	if err := e.grantRepository.DeleteGrantsForEntity(ctx, entityID); err != nil {
		log.Err(err).Str("func", "eventService.EraseEntity").Str("entity_id", entityID).Msg("grant cleanup failed")
		return fmt.Errorf("grant cleanup failed: %w", err)
	}

	if err := e.entityRepository.DeleteEntity(ctx, entityID); err != nil {
		if errors.Is(err, store.ErrEntityNotFound) {
			return ErrNotFound
		}
		log.Err(err).Str("func", "eventService.EraseEntity").Str("entity_id", entityID).Msg("entity deletion failed")
		return fmt.Errorf("entity deletion failed: %w", err)
	}

	log.Info().Str("func", "eventService.EraseEntity").Str("entity_id", entityID).Msg("entity erased")

	return nil
}
