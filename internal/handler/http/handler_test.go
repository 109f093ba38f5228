// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/hub"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/service"
	"github.com/MKhiriev/vault-sync/models"
)

// ─────────────────────────────────────────────
// Mock: service.AuthService
// ─────────────────────────────────────────────

type mockAuthService struct {
	registerFn   func(ctx context.Context, credentialID, publicKey string) (models.EntityRecord, models.Token, error)
	parseTokenFn func(ctx context.Context, tokenString string) (models.Token, error)
}

func (m *mockAuthService) RegisterEntity(ctx context.Context, credentialID, publicKey string) (models.EntityRecord, models.Token, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, credentialID, publicKey)
	}
	return models.EntityRecord{}, models.Token{}, nil
}

func (m *mockAuthService) CreateToken(ctx context.Context, entityID string) (models.Token, error) {
	return models.Token{}, nil
}

func (m *mockAuthService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	if m.parseTokenFn != nil {
		return m.parseTokenFn(ctx, tokenString)
	}
	return models.Token{EntityID: "entity-1"}, nil
}

// ─────────────────────────────────────────────
// Mock: service.EventService
// ─────────────────────────────────────────────

type mockEventService struct {
	appendFn     func(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error)
	replayFn     func(ctx context.Context, entityID string) ([]models.EncryptedEvent, error)
	replayTailFn func(ctx context.Context, entityID string, n uint64) ([]models.EncryptedEvent, error)
	eraseFn      func(ctx context.Context, entityID string) error
}

func (m *mockEventService) Append(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, entityID, payload)
	}
	return models.EncryptedEvent{}, nil
}

func (m *mockEventService) Replay(ctx context.Context, entityID string) ([]models.EncryptedEvent, error) {
	if m.replayFn != nil {
		return m.replayFn(ctx, entityID)
	}
	return nil, nil
}

func (m *mockEventService) ReplayTail(ctx context.Context, entityID string, n uint64) ([]models.EncryptedEvent, error) {
	if m.replayTailFn != nil {
		return m.replayTailFn(ctx, entityID, n)
	}
	return nil, nil
}

func (m *mockEventService) EraseEntity(ctx context.Context, entityID string) error {
	if m.eraseFn != nil {
		return m.eraseFn(ctx, entityID)
	}
	return nil
}

// ─────────────────────────────────────────────
// Mock: service.ShareService
// ─────────────────────────────────────────────

type mockShareService struct {
	createInviteFn  func(ctx context.Context, entityID, code string, sealedKey models.SealedPayload, ttl time.Duration) error
	consumeInviteFn func(ctx context.Context, code string) (models.InviteRecord, error)
	createShareFn   func(ctx context.Context, sourceEntityID, code, propertyName string, sealedKey models.SealedPayload, ttl time.Duration) error
	consumeShareFn  func(ctx context.Context, code, targetEntityID string) (models.ShareRecord, error)
	revokeShareFn   func(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error
	listSharesFn    func(ctx context.Context, entityID string) (models.ShareList, error)
	shareTargetsFn  func(ctx context.Context, sourceEntityID, propertyName string) ([]string, error)
}

func (m *mockShareService) CreateInvite(ctx context.Context, entityID, code string, sealedKey models.SealedPayload, ttl time.Duration) error {
	if m.createInviteFn != nil {
		return m.createInviteFn(ctx, entityID, code, sealedKey, ttl)
	}
	return nil
}

func (m *mockShareService) ConsumeInvite(ctx context.Context, code string) (models.InviteRecord, error) {
	if m.consumeInviteFn != nil {
		return m.consumeInviteFn(ctx, code)
	}
	return models.InviteRecord{}, nil
}

func (m *mockShareService) CreateShare(ctx context.Context, sourceEntityID, code, propertyName string, sealedKey models.SealedPayload, ttl time.Duration) error {
	if m.createShareFn != nil {
		return m.createShareFn(ctx, sourceEntityID, code, propertyName, sealedKey, ttl)
	}
	return nil
}

func (m *mockShareService) ConsumeShare(ctx context.Context, code, targetEntityID string) (models.ShareRecord, error) {
	if m.consumeShareFn != nil {
		return m.consumeShareFn(ctx, code, targetEntityID)
	}
	return models.ShareRecord{}, nil
}

func (m *mockShareService) RevokeShare(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error {
	if m.revokeShareFn != nil {
		return m.revokeShareFn(ctx, sourceEntityID, targetEntityID, propertyName)
	}
	return nil
}

func (m *mockShareService) ListShares(ctx context.Context, entityID string) (models.ShareList, error) {
	if m.listSharesFn != nil {
		return m.listSharesFn(ctx, entityID)
	}
	return models.ShareList{}, nil
}

func (m *mockShareService) ShareTargets(ctx context.Context, sourceEntityID, propertyName string) ([]string, error) {
	if m.shareTargetsFn != nil {
		return m.shareTargetsFn(ctx, sourceEntityID, propertyName)
	}
	return nil, nil
}

func (m *mockShareService) SweepExpiredCodes(ctx context.Context) (int64, error) {
	return 0, nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func newTestHandler(auth *mockAuthService, events *mockEventService, shares *mockShareService) *Handler {
	if auth == nil {
		auth = &mockAuthService{}
	}
	if events == nil {
		events = &mockEventService{}
	}
	if shares == nil {
		shares = &mockShareService{}
	}

	cfg := &config.StructuredConfig{
		App: config.App{Version: "1.2.3-test"},
		Hub: config.Hub{BackfillWindow: 10, SendBufferSize: 32},
	}
	services := &service.Services{
		AuthService:  auth,
		EventService: events,
		ShareService: shares,
	}
	syncHub := hub.NewHub(events, shares, cfg.Hub, logger.Nop())

	return NewHandler(services, syncHub, cfg, logger.Nop())
}

func doRequest(t *testing.T, h *Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, req)
	return rec
}

// ─────────────────────────────────────────────
// NewHandler / version
// ─────────────────────────────────────────────

func TestNewHandler(t *testing.T) {
	h := newTestHandler(nil, nil, nil)
	require.NotNil(t, h)
	assert.NotNil(t, h.services)
	assert.NotNil(t, h.hub)
}

func TestGetServerVersion(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/version", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3-test", rec.Body.String())
}

// ─────────────────────────────────────────────
// Register
// ─────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	auth := &mockAuthService{
		registerFn: func(ctx context.Context, credentialID, publicKey string) (models.EntityRecord, models.Token, error) {
			assert.Equal(t, "credential-1", credentialID)
			return models.EntityRecord{EntityID: "entity-1", CredentialID: credentialID},
				models.Token{SignedString: "signed-token", EntityID: "entity-1"},
				nil
		},
	}
	h := newTestHandler(auth, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/entity/register",
		`{"credential_id":"credential-1","public_key":"cHVibGlj"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer signed-token", rec.Header().Get("Authorization"))
	assert.JSONEq(t, `{"entity_id":"entity-1","token":"signed-token"}`, rec.Body.String())
}

func TestRegister_InvalidJSON(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/entity/register", `{broken`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_EmptyCredential(t *testing.T) {
	auth := &mockAuthService{
		registerFn: func(ctx context.Context, credentialID, publicKey string) (models.EntityRecord, models.Token, error) {
			return models.EntityRecord{}, models.Token{}, service.ErrInvalidDataProvided
		},
	}
	h := newTestHandler(auth, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/entity/register", `{"credential_id":""}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─────────────────────────────────────────────
// Erase entity
// ─────────────────────────────────────────────

func TestEraseEntity_Success(t *testing.T) {
	erased := false
	events := &mockEventService{
		eraseFn: func(ctx context.Context, entityID string) error {
			assert.Equal(t, "entity-1", entityID)
			erased = true
			return nil
		},
	}
	h := newTestHandler(nil, events, nil)

	rec := doRequest(t, h, http.MethodDelete, "/api/entity", "", "valid-token")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, erased)
}

func TestEraseEntity_UnknownEntity(t *testing.T) {
	events := &mockEventService{
		eraseFn: func(ctx context.Context, entityID string) error {
			return service.ErrNotFound
		},
	}
	h := newTestHandler(nil, events, nil)

	rec := doRequest(t, h, http.MethodDelete, "/api/entity", "", "valid-token")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
