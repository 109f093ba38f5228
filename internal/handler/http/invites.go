package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MKhiriev/vault-sync/internal/app"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/service"
	"github.com/MKhiriev/vault-sync/internal/utils"
	"github.com/MKhiriev/vault-sync/models"
)

func (h *Handler) createInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityID, found := utils.GetEntityIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.createInvite").Msg("no entity id in request context")
		http.Error(w, app.MsgNoEntityIDProvided, http.StatusBadRequest)
		return
	}

	var request models.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	ttl := time.Duration(request.TTLSeconds) * time.Second
	err := h.services.ShareService.CreateInvite(ctx, entityID, request.Code, request.SealedKey, ttl)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg(app.MsgInvalidDataProvided)
			http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		case errors.Is(err, service.ErrConflict):
			log.Err(err).Msg("invite code already registered")
			http.Error(w, app.MsgCodeAlreadyRegistered, http.StatusConflict)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during invite creation")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) consumeInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.ConsumeInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	invite, err := h.services.ShareService.ConsumeInvite(ctx, request.Code)
	if err != nil {
		status, message := codeConsumeStatus(err)
		log.Err(err).Str("func", "*Handler.consumeInvite").Msg("invite code rejected")
		utils.WriteJSONError(w, message, status)
		return
	}

	utils.WriteJSON(w, models.ConsumeInviteResponse{
		EntityID:  invite.EntityID,
		SealedKey: invite.SealedKey,
	}, http.StatusOK)
}
