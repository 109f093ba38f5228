// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vault-sync/internal/service"
	"github.com/MKhiriev/vault-sync/models"
)

func testSealedKeyJSON() string {
	return `{
		"version": 1,
		"algorithm": "aes-256-gcm",
		"nonce": "bm9uY2U=",
		"ciphertext": "Y2lwaGVydGV4dA==",
		"salt": "c2FsdA==",
		"kdf_cost_params": {"opslimit": 3, "memlimit": 65536},
		"kdf_algorithm_id": "argon2id"
	}`
}

func TestCreateInvite_Success(t *testing.T) {
	shares := &mockShareService{
		createInviteFn: func(ctx context.Context, entityID, code string, sealedKey models.SealedPayload, ttl time.Duration) error {
			assert.Equal(t, "entity-1", entityID)
			assert.Equal(t, "A1B2", code)
			assert.Equal(t, 600*time.Second, ttl)
			assert.Equal(t, models.KDFArgon2id, sealedKey.KDFAlgorithmID)
			return nil
		},
	}
	h := newTestHandler(nil, nil, shares)

	body := `{"code":"A1B2","sealed_key":` + testSealedKeyJSON() + `,"ttl_seconds":600}`
	rec := doRequest(t, h, http.MethodPost, "/api/invites", body, "valid-token")

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateInvite_DuplicateCode(t *testing.T) {
	shares := &mockShareService{
		createInviteFn: func(ctx context.Context, entityID, code string, sealedKey models.SealedPayload, ttl time.Duration) error {
			return service.ErrConflict
		},
	}
	h := newTestHandler(nil, nil, shares)

	body := `{"code":"A1B2","sealed_key":` + testSealedKeyJSON() + `}`
	rec := doRequest(t, h, http.MethodPost, "/api/invites", body, "valid-token")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConsumeInvite_Success(t *testing.T) {
	shares := &mockShareService{
		consumeInviteFn: func(ctx context.Context, code string) (models.InviteRecord, error) {
			require.Equal(t, "A1B2", code)
			return models.InviteRecord{
				Code:     code,
				EntityID: "entity-1",
				SealedKey: models.SealedPayload{
					KDFAlgorithmID: models.KDFArgon2id,
				},
			}, nil
		},
	}
	h := newTestHandler(nil, nil, shares)

	rec := doRequest(t, h, http.MethodPost, "/api/invites/consume", `{"code":"A1B2"}`, "valid-token")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entity_id":"entity-1"`)
	assert.Contains(t, rec.Body.String(), `"argon2id"`)
}

// An unknown code and an expired code must be indistinguishable on the
// wire: same status, same body.
func TestConsumeInvite_NoCodeValidityOracle(t *testing.T) {
	responses := make(map[string]*struct {
		status int
		body   string
	})

	for name, serviceErr := range map[string]error{
		"unknown": service.ErrNotFound,
		"expired": service.ErrExpired,
		"sealed":  service.ErrAuthenticationFailed,
	} {
		shares := &mockShareService{
			consumeInviteFn: func(ctx context.Context, code string) (models.InviteRecord, error) {
				return models.InviteRecord{}, serviceErr
			},
		}
		h := newTestHandler(nil, nil, shares)

		rec := doRequest(t, h, http.MethodPost, "/api/invites/consume", `{"code":"A1B2"}`, "valid-token")
		responses[name] = &struct {
			status int
			body   string
		}{rec.Code, rec.Body.String()}
	}

	assert.Equal(t, http.StatusNotFound, responses["unknown"].status)
	assert.Equal(t, responses["unknown"].status, responses["expired"].status)
	assert.Equal(t, responses["unknown"].body, responses["expired"].body)
	assert.Equal(t, responses["unknown"].status, responses["sealed"].status)
	assert.Equal(t, responses["unknown"].body, responses["sealed"].body)
}

func TestConsumeInvite_InvalidJSON(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/invites/consume", `{`, "valid-token")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
