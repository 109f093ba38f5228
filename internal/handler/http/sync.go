package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/MKhiriev/vault-sync/internal/app"
	"github.com/MKhiriev/vault-sync/internal/hub"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// sync upgrades the request to a WebSocket and binds it to the hub. The
// request is already authenticated by the auth middleware; the session
// entity travels with the connection for the rest of its life.
//
// Blocks on the read pump until the peer disconnects, so the request
// timeout middleware must not cover this route.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityID, found := utils.GetEntityIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.sync").Msg("no entity id in request context")
		http.Error(w, app.MsgNoEntityIDProvided, http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.Err(err).Str("func", "*Handler.sync").Msg("websocket upgrade failed")
		return
	}

	conn := hub.NewConnection(ws, entityID, h.sendBufferSize, h.logger)

	go conn.WritePump()
	conn.ReadPump(ctx, h.hub)
}
