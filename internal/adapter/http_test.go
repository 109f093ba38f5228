// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAdapter создаёт httpServerAdapter, направленный на тестовый сервер
func newTestAdapter(t *testing.T, serverURL string) *httpServerAdapter {
	t.Helper()
	log := logger.NewClientLogger("test")
	adapterCfg := config.ClientAdapter{HTTPAddress: serverURL}

	a, err := NewHTTPServerAdapter(adapterCfg, log)
	require.NoError(t, err)
	return a.(*httpServerAdapter)
}

func testSealedKey() models.SealedPayload {
	return models.SealedPayload{
		EncryptedPayload: models.EncryptedPayload{
			Ciphertext: "c2VhbGVk",
			Nonce:      "bm9uY2U=",
		},
		Salt:           "c2FsdA==",
		KDFCostParams:  models.KDFCostParams{Opslimit: 1, Memlimit: 64 * 1024},
		KDFAlgorithmID: models.KDFArgon2id,
	}
}

// ── Register ────────────────────────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/entity/register", r.URL.Path)

		var req models.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cred-1", req.CredentialID)

		w.Header().Set("Authorization", "Bearer test-token")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(models.RegisterResponse{EntityID: "entity-1", Token: "test-token"})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	got, err := a.Register(context.Background(), models.RegisterRequest{CredentialID: "cred-1", PublicKey: "cHVi"})

	require.NoError(t, err)
	assert.Equal(t, "entity-1", got.EntityID)
	assert.Equal(t, "test-token", a.Token())
}

func TestRegister_MissingAuthorizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"entity_id":"entity-1","token":"t"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Register(context.Background(), models.RegisterRequest{CredentialID: "cred-1"})

	require.Error(t, err)
	assert.Empty(t, a.Token())
}

func TestRegister_InternalServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Register(context.Background(), models.RegisterRequest{CredentialID: "cred-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternalServerError)
}

// ── CreateInvite ─────────────────────────────────────────────────────────────

func TestCreateInvite_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/invites", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req models.CreateInviteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123456", req.Code)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	err := a.CreateInvite(context.Background(), models.CreateInviteRequest{
		Code:      "123456",
		SealedKey: testSealedKey(),
	})
	require.NoError(t, err)
}

func TestCreateInvite_DuplicateCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("code already registered"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	err := a.CreateInvite(context.Background(), models.CreateInviteRequest{Code: "123456", SealedKey: testSealedKey()})
	assert.ErrorIs(t, err, ErrConflict)
}

// ── ConsumeInvite ────────────────────────────────────────────────────────────

func TestConsumeInvite_Success(t *testing.T) {
	want := models.ConsumeInviteResponse{EntityID: "entity-1", SealedKey: testSealedKey()}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invites/consume", r.URL.Path)

		var req models.ConsumeInviteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123456", req.Code)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	got, err := a.ConsumeInvite(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConsumeInvite_UnknownCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("invalid or expired code"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	_, err := a.ConsumeInvite(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ── CreateShare / ConsumeShare ───────────────────────────────────────────────

func TestCreateShare_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/shares", r.URL.Path)

		var req models.CreateShareRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "X7K2", req.Code)
		assert.Equal(t, "phone", req.PropertyName)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	err := a.CreateShare(context.Background(), models.CreateShareRequest{
		Code:         "X7K2",
		PropertyName: "phone",
		SealedKey:    testSealedKey(),
	})
	require.NoError(t, err)
}

func TestConsumeShare_Success(t *testing.T) {
	want := models.ConsumeShareResponse{
		SourceEntityID: "entity-1",
		PropertyName:   "phone",
		SealedKey:      testSealedKey(),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/shares/consume", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	got, err := a.ConsumeShare(context.Background(), "X7K2")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConsumeShare_SelfShareRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("operation not allowed"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	_, err := a.ConsumeShare(context.Background(), "X7K2")
	assert.ErrorIs(t, err, ErrUnprocessable)
}

// ── RevokeShare / ListShares ─────────────────────────────────────────────────

func TestRevokeShare_Removed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/shares", r.URL.Path)

		var req models.RevokeShareRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "phone", req.PropertyName)
		assert.Equal(t, "entity-2", req.TargetEntityID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.RevokeShareResponse{Removed: true})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	removed, err := a.RevokeShare(context.Background(), models.RevokeShareRequest{
		PropertyName:   "phone",
		TargetEntityID: "entity-2",
	})
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRevokeShare_NothingToRemove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.RevokeShareResponse{Removed: false})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	removed, err := a.RevokeShare(context.Background(), models.RevokeShareRequest{PropertyName: "phone", TargetEntityID: "entity-2"})
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListShares_Success(t *testing.T) {
	want := models.ShareList{
		Outgoing: []models.OutgoingShare{{TargetEntityID: "entity-2", PropertyName: "phone"}},
		Incoming: []models.IncomingShare{{SourceEntityID: "entity-3", PropertyName: "email"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/shares", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	got, err := a.ListShares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Outgoing[0].TargetEntityID, got.Outgoing[0].TargetEntityID)
	assert.Equal(t, want.Incoming[0].SourceEntityID, got.Incoming[0].SourceEntityID)
}

func TestListShares_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid token"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)

	_, err := a.ListShares(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// ── EraseEntity / ServerVersion ──────────────────────────────────────────────

func TestEraseEntity_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/entity", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("test-token")

	require.NoError(t, a.EraseEntity(context.Background()))
}

func TestServerVersion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		_, _ = w.Write([]byte("1.2.3\n"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)

	v, err := a.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)
}

// ── URL normalisation ────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare host", raw: "localhost:8080", want: "http://localhost:8080"},
		{name: "with scheme", raw: "https://vault.example.com/", want: "https://vault.example.com"},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
