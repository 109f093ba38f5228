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

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/vault-sync/models"
)

func dialSync(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h.Init())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sync"
	header := http.Header{"Authorization": []string{"Bearer session-token"}}

	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = ws.Close() })

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	return ws
}

func TestSync_UpgradeRequiresAuth(t *testing.T) {
	h := newTestHandler(nil, nil, nil)
	srv := httptest.NewServer(h.Init())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sync"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

	require.Error(t, err)
	require.Nil(t, ws)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSync_SubscribeReceivesReplay(t *testing.T) {
	events := &mockEventService{
		replayFn: func(ctx context.Context, entityID string) ([]models.EncryptedEvent, error) {
			require.Equal(t, "entity-1", entityID)
			return []models.EncryptedEvent{
				{ID: "e1", EntityID: entityID, Sequence: 1},
				{ID: "e2", EntityID: entityID, Sequence: 2},
			}, nil
		},
	}
	h := newTestHandler(nil, events, nil)

	ws := dialSync(t, h)

	require.NoError(t, ws.WriteJSON(models.ClientMessage{
		Type:     models.MessageSubscribe,
		EntityID: "entity-1",
	}))

	var msg models.ServerMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, models.MessageReplay, msg.Type)
	assert.Equal(t, "entity-1", msg.EntityID)
	require.Len(t, msg.Events, 2)
	assert.Equal(t, int64(1), msg.Events[0].Sequence)
	assert.Equal(t, int64(2), msg.Events[1].Sequence)
}

func TestSync_AppendIsEchoedBack(t *testing.T) {
	events := &mockEventService{
		appendFn: func(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error) {
			return models.EncryptedEvent{ID: "e3", EntityID: entityID, Sequence: 3, Payload: payload}, nil
		},
	}
	h := newTestHandler(nil, events, nil)

	ws := dialSync(t, h)

	require.NoError(t, ws.WriteJSON(models.ClientMessage{
		Type:     models.MessageSubscribe,
		EntityID: "entity-1",
	}))
	var replay models.ServerMessage
	require.NoError(t, ws.ReadJSON(&replay))
	require.Equal(t, models.MessageReplay, replay.Type)

	require.NoError(t, ws.WriteJSON(models.ClientMessage{
		Type:     models.MessageAppend,
		EntityID: "entity-1",
		Payload: &models.EncryptedPayload{
			Version:    models.PayloadVersion,
			Algorithm:  models.AlgorithmAESGCM,
			Nonce:      "bm9uY2U=",
			Ciphertext: "Y2lwaGVydGV4dA==",
		},
		PropertyHints: []string{"phone"},
	}))

	var echoed models.ServerMessage
	require.NoError(t, ws.ReadJSON(&echoed))
	assert.Equal(t, models.MessageEvent, echoed.Type)
	require.NotNil(t, echoed.Event)
	assert.Equal(t, int64(3), echoed.Event.Sequence)
}

func TestSync_AppendToForeignEntity_ErrorEnvelope(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	ws := dialSync(t, h)

	require.NoError(t, ws.WriteJSON(models.ClientMessage{
		Type:     models.MessageAppend,
		EntityID: "entity-9",
	}))

	var msg models.ServerMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, models.MessageError, msg.Type)
	assert.NotEmpty(t, msg.Message)
}
