// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/store"
	"github.com/MKhiriev/vault-sync/models"
)

// ─────────────────────────────────────────────
// Mock: store.EventRepository / store.EntityRepository
// ─────────────────────────────────────────────

type mockEventRepository struct {
	appendFn func(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error)
	replayFn func(ctx context.Context, entityID string) ([]models.EncryptedEvent, error)
	lastFn   func(ctx context.Context, entityID string, limit uint64) ([]models.EncryptedEvent, error)
	eraseFn  func(ctx context.Context, entityID string) error
}

func (m *mockEventRepository) AppendEvent(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, entityID, payload)
	}
	return models.EncryptedEvent{}, nil
}

func (m *mockEventRepository) CacheEvent(ctx context.Context, event models.EncryptedEvent) error {
	return nil
}

func (m *mockEventRepository) ReplayEvents(ctx context.Context, entityID string) ([]models.EncryptedEvent, error) {
	if m.replayFn != nil {
		return m.replayFn(ctx, entityID)
	}
	return nil, nil
}

func (m *mockEventRepository) LastEvents(ctx context.Context, entityID string, limit uint64) ([]models.EncryptedEvent, error) {
	if m.lastFn != nil {
		return m.lastFn(ctx, entityID, limit)
	}
	return nil, nil
}

func (m *mockEventRepository) EraseEvents(ctx context.Context, entityID string) error {
	if m.eraseFn != nil {
		return m.eraseFn(ctx, entityID)
	}
	return nil
}

type mockEntityRepository struct {
	registerFn func(ctx context.Context, entity models.EntityRecord) (models.EntityRecord, bool, error)
	getFn      func(ctx context.Context, entityID string) (models.EntityRecord, error)
	deleteFn   func(ctx context.Context, entityID string) error
}

func (m *mockEntityRepository) RegisterEntity(ctx context.Context, entity models.EntityRecord) (models.EntityRecord, bool, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, entity)
	}
	return entity, true, nil
}

func (m *mockEntityRepository) GetEntity(ctx context.Context, entityID string) (models.EntityRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, entityID)
	}
	return models.EntityRecord{}, nil
}

func (m *mockEntityRepository) DeleteEntity(ctx context.Context, entityID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, entityID)
	}
	return nil
}

func newEventService(events *mockEventRepository, entities *mockEntityRepository, codes *mockCodeRepository, grants *mockGrantRepository) EventService {
	storages := &store.Storages{
		EntityRepository: entities,
		EventRepository:  events,
		CodeRepository:   codes,
		GrantRepository:  grants,
	}
	return NewEventService(storages, logger.Nop())
}

func validPayload() models.EncryptedPayload {
	return models.EncryptedPayload{
		Version:    models.PayloadVersion,
		Algorithm:  models.AlgorithmAESGCM,
		Nonce:      "nonce",
		Ciphertext: "ciphertext",
	}
}

func TestAppend_DelegatesToRepository(t *testing.T) {
	events := &mockEventRepository{
		appendFn: func(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error) {
			return models.EncryptedEvent{ID: "id-1", EntityID: entityID, Sequence: 1, Payload: payload}, nil
		},
	}
	svc := newEventService(events, &mockEntityRepository{}, &mockCodeRepository{}, &mockGrantRepository{})

	event, err := svc.Append(context.Background(), "entity-1", validPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(1), event.Sequence)
	assert.Equal(t, "entity-1", event.EntityID)
}

func TestAppend_RejectsUnknownFormat(t *testing.T) {
	svc := newEventService(&mockEventRepository{}, &mockEntityRepository{}, &mockCodeRepository{}, &mockGrantRepository{})

	payload := validPayload()
	payload.Algorithm = "rot13"

	_, err := svc.Append(context.Background(), "entity-1", payload)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestAppend_RejectsEmptyCiphertext(t *testing.T) {
	svc := newEventService(&mockEventRepository{}, &mockEntityRepository{}, &mockCodeRepository{}, &mockGrantRepository{})

	payload := validPayload()
	payload.Ciphertext = ""

	_, err := svc.Append(context.Background(), "entity-1", payload)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestReplay_EmptyHistoryIsNotAnError(t *testing.T) {
	events := &mockEventRepository{
		replayFn: func(ctx context.Context, entityID string) ([]models.EncryptedEvent, error) {
			return []models.EncryptedEvent{}, nil
		},
	}
	svc := newEventService(events, &mockEntityRepository{}, &mockCodeRepository{}, &mockGrantRepository{})

	history, err := svc.Replay(context.Background(), "entity-unknown")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReplayTail_ZeroWindowShortCircuits(t *testing.T) {
	events := &mockEventRepository{
		lastFn: func(ctx context.Context, entityID string, limit uint64) ([]models.EncryptedEvent, error) {
			t.Fatal("repository must not be called for a zero window")
			return nil, nil
		},
	}
	svc := newEventService(events, &mockEntityRepository{}, &mockCodeRepository{}, &mockGrantRepository{})

	tail, err := svc.ReplayTail(context.Background(), "entity-1", 0)
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestEraseEntity_WipesEverything(t *testing.T) {
	var erased, codesDeleted, grantsDeleted, entityDeleted bool

	events := &mockEventRepository{
		eraseFn: func(ctx context.Context, entityID string) error {
			erased = true
			return nil
		},
	}
	codes := &mockCodeRepository{
		deleteEntityFn: func(ctx context.Context, entityID string) error {
			codesDeleted = true
			return nil
		},
	}
	grants := &mockGrantRepository{
		deleteEntityFn: func(ctx context.Context, entityID string) error {
			grantsDeleted = true
			return nil
		},
	}
	entities := &mockEntityRepository{
		deleteFn: func(ctx context.Context, entityID string) error {
			entityDeleted = true
			return nil
		},
	}
	svc := newEventService(events, entities, codes, grants)

	err := svc.EraseEntity(context.Background(), "entity-1")
	require.NoError(t, err)
	assert.True(t, erased)
	assert.True(t, codesDeleted)
	assert.True(t, grantsDeleted)
	assert.True(t, entityDeleted)
}

func TestEraseEntity_UnknownEntity(t *testing.T) {
	entities := &mockEntityRepository{
		deleteFn: func(ctx context.Context, entityID string) error {
			return store.ErrEntityNotFound
		},
	}
	svc := newEventService(&mockEventRepository{}, entities, &mockCodeRepository{}, &mockGrantRepository{})

	err := svc.EraseEntity(context.Background(), "entity-ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
