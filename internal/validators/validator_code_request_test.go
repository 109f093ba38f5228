// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/vault-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func validSealedPayload() models.SealedPayload {
	return models.SealedPayload{
		EncryptedPayload: models.EncryptedPayload{
			Version:    models.PayloadVersion,
			Algorithm:  models.AlgorithmAESGCM,
			Nonce:      "nonce",
			Ciphertext: "ciphertext",
		},
		Salt:           "salt",
		KDFCostParams:  models.KDFCostParams{Opslimit: 3, Memlimit: 64 * 1024},
		KDFAlgorithmID: models.KDFArgon2id,
	}
}

func validInviteRecord() models.InviteRecord {
	return models.InviteRecord{
		Code:      "BRAVE-TIGER-42",
		EntityID:  "entity-1",
		SealedKey: validSealedPayload(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func validShareRecord() models.ShareRecord {
	return models.ShareRecord{
		Code:           "CALM-RIVER-7",
		SourceEntityID: "entity-1",
		PropertyName:   "home_address",
		SealedKey:      validSealedPayload(),
		ExpiresAt:      time.Now().Add(time.Hour),
	}
}

func validGrantRecord() models.GrantRecord {
	return models.GrantRecord{
		SourceEntityID: "entity-1",
		TargetEntityID: "entity-2",
		PropertyName:   "home_address",
		SealedKey:      validSealedPayload(),
		CreatedAt:      time.Now(),
	}
}

// ---------------------------------------------------------------------------
// TestNewCodeRequestValidator
// ---------------------------------------------------------------------------

func TestNewCodeRequestValidator(t *testing.T) {
	v := NewCodeRequestValidator()
	require.NotNil(t, v)
}

// ---------------------------------------------------------------------------
// TestValidate_Dispatch
// ---------------------------------------------------------------------------

func TestValidate_Dispatch(t *testing.T) {
	v := NewCodeRequestValidator()
	ctx := context.Background()

	t.Run("unsupported type", func(t *testing.T) {
		err := v.Validate(ctx, "a string")
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("InviteRecord value", func(t *testing.T) {
		invite := validInviteRecord()
		require.NoError(t, v.Validate(ctx, invite))
	})

	t.Run("InviteRecord pointer", func(t *testing.T) {
		invite := validInviteRecord()
		require.NoError(t, v.Validate(ctx, &invite))
	})

	t.Run("ShareRecord value", func(t *testing.T) {
		share := validShareRecord()
		require.NoError(t, v.Validate(ctx, share))
	})

	t.Run("GrantRecord pointer", func(t *testing.T) {
		grant := validGrantRecord()
		require.NoError(t, v.Validate(ctx, &grant))
	})

	t.Run("SealedPayload value", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, validSealedPayload()))
	})
}

// ---------------------------------------------------------------------------
// TestValidate_InviteRecord
// ---------------------------------------------------------------------------

func TestValidate_InviteRecord(t *testing.T) {
	v := NewCodeRequestValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(invite *models.InviteRecord)
		wantErr error
	}{
		{
			name:    "missing code",
			mutate:  func(invite *models.InviteRecord) { invite.Code = "" },
			wantErr: ErrEmptyCode,
		},
		{
			name:    "missing entity id",
			mutate:  func(invite *models.InviteRecord) { invite.EntityID = "" },
			wantErr: ErrEmptyEntityID,
		},
		{
			name:    "missing expiry",
			mutate:  func(invite *models.InviteRecord) { invite.ExpiresAt = time.Time{} },
			wantErr: ErrMissingExpiry,
		},
		{
			name:    "empty sealed key",
			mutate:  func(invite *models.InviteRecord) { invite.SealedKey = models.SealedPayload{} },
			wantErr: ErrEmptyCiphertext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invite := validInviteRecord()
			tt.mutate(&invite)

			err := v.Validate(ctx, invite)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidate_ShareRecord
// ---------------------------------------------------------------------------

func TestValidate_ShareRecord(t *testing.T) {
	v := NewCodeRequestValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(share *models.ShareRecord)
		wantErr error
	}{
		{
			name:    "missing code",
			mutate:  func(share *models.ShareRecord) { share.Code = "" },
			wantErr: ErrEmptyCode,
		},
		{
			name:    "missing source entity id",
			mutate:  func(share *models.ShareRecord) { share.SourceEntityID = "" },
			wantErr: ErrEmptySourceEntityID,
		},
		{
			name:    "missing property name",
			mutate:  func(share *models.ShareRecord) { share.PropertyName = "" },
			wantErr: ErrEmptyPropertyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share := validShareRecord()
			tt.mutate(&share)

			err := v.Validate(ctx, share)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("field scoping skips unset fields", func(t *testing.T) {
		share := validShareRecord()
		share.PropertyName = ""

		err := v.Validate(ctx, share, FieldCode, FieldSourceEntityID)
		require.NoError(t, err)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		err := v.Validate(ctx, validShareRecord(), "no_such_field")
		require.ErrorIs(t, err, ErrUnknownField)
	})
}

// ---------------------------------------------------------------------------
// TestValidate_GrantRecord
// ---------------------------------------------------------------------------

func TestValidate_GrantRecord(t *testing.T) {
	v := NewCodeRequestValidator()
	ctx := context.Background()

	t.Run("missing target entity id", func(t *testing.T) {
		grant := validGrantRecord()
		grant.TargetEntityID = ""

		err := v.Validate(ctx, grant)
		assert.ErrorIs(t, err, ErrEmptyTargetEntityID)
	})

	t.Run("valid grant passes", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, validGrantRecord()))
	})
}

// ---------------------------------------------------------------------------
// TestValidate_SealedPayload
// ---------------------------------------------------------------------------

func TestValidate_SealedPayload(t *testing.T) {
	v := NewCodeRequestValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(payload *models.SealedPayload)
		wantErr error
	}{
		{
			name:    "missing ciphertext",
			mutate:  func(payload *models.SealedPayload) { payload.Ciphertext = "" },
			wantErr: ErrEmptyCiphertext,
		},
		{
			name:    "missing nonce",
			mutate:  func(payload *models.SealedPayload) { payload.Nonce = "" },
			wantErr: ErrEmptyNonce,
		},
		{
			name:    "missing salt",
			mutate:  func(payload *models.SealedPayload) { payload.Salt = "" },
			wantErr: ErrEmptySalt,
		},
		{
			name:    "wrong payload version",
			mutate:  func(payload *models.SealedPayload) { payload.Version = 99 },
			wantErr: ErrInvalidPayloadVersion,
		},
		{
			name:    "unknown seal algorithm",
			mutate:  func(payload *models.SealedPayload) { payload.Algorithm = "rot13" },
			wantErr: ErrUnknownSealAlgorithm,
		},
		{
			name:    "unknown kdf algorithm",
			mutate:  func(payload *models.SealedPayload) { payload.KDFAlgorithmID = "md5" },
			wantErr: ErrUnknownKDFAlgorithm,
		},
		{
			name:    "zero kdf opslimit",
			mutate:  func(payload *models.SealedPayload) { payload.KDFCostParams.Opslimit = 0 },
			wantErr: ErrInvalidKDFCost,
		},
		{
			name:    "zero kdf memlimit",
			mutate:  func(payload *models.SealedPayload) { payload.KDFCostParams.Memlimit = 0 },
			wantErr: ErrInvalidKDFCost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validSealedPayload()
			tt.mutate(&payload)

			err := v.Validate(ctx, payload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
