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

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityID, found := utils.GetEntityIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.createShare").Msg("no entity id in request context")
		http.Error(w, app.MsgNoEntityIDProvided, http.StatusBadRequest)
		return
	}

	var request models.CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	ttl := time.Duration(request.TTLSeconds) * time.Second
	err := h.services.ShareService.CreateShare(ctx, entityID, request.Code, request.PropertyName, request.SealedKey, ttl)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg(app.MsgInvalidDataProvided)
			http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		case errors.Is(err, service.ErrConflict):
			log.Err(err).Msg("share code already registered")
			http.Error(w, app.MsgCodeAlreadyRegistered, http.StatusConflict)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during share creation")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) consumeShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityID, found := utils.GetEntityIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.consumeShare").Msg("no entity id in request context")
		http.Error(w, app.MsgNoEntityIDProvided, http.StatusBadRequest)
		return
	}

	var request models.ConsumeShareRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	share, err := h.services.ShareService.ConsumeShare(ctx, request.Code, entityID)
	if err != nil {
		status, message := codeConsumeStatus(err)
		log.Err(err).Str("func", "*Handler.consumeShare").Msg("share code rejected")
		utils.WriteJSONError(w, message, status)
		return
	}

	// the new grant is live: push recent history to the target's open
	// connections. Delivery only; failure does not undo the consume.
	if err := h.hub.BackfillShare(ctx, share.SourceEntityID, entityID, share.PropertyName); err != nil {
		log.Err(err).Str("func", "*Handler.consumeShare").Msg("error backfilling share target")
	}

	utils.WriteJSON(w, models.ConsumeShareResponse{
		SourceEntityID: share.SourceEntityID,
		PropertyName:   share.PropertyName,
		SealedKey:      share.SealedKey,
	}, http.StatusOK)
}

func (h *Handler) revokeShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityID, found := utils.GetEntityIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.revokeShare").Msg("no entity id in request context")
		http.Error(w, app.MsgNoEntityIDProvided, http.StatusBadRequest)
		return
	}

	var request models.RevokeShareRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	// the session entity fills whichever side the body leaves open
	sourceEntityID := request.SourceEntityID
	targetEntityID := request.TargetEntityID
	switch {
	case sourceEntityID == "" && targetEntityID == "":
		http.Error(w, app.MsgMissingRevokeSide, http.StatusBadRequest)
		return
	case sourceEntityID == "":
		sourceEntityID = entityID
	case targetEntityID == "":
		targetEntityID = entityID
	}
	if sourceEntityID != entityID && targetEntityID != entityID {
		log.Error().Str("func", "*Handler.revokeShare").Msg("revocation of a foreign grant rejected")
		http.Error(w, app.MsgForeignGrant, http.StatusForbidden)
		return
	}

	err := h.services.ShareService.RevokeShare(ctx, sourceEntityID, targetEntityID, request.PropertyName)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.WriteJSON(w, models.RevokeShareResponse{Removed: false}, http.StatusOK)
			return
		}
		log.Err(err).Str("func", "*Handler.revokeShare").Msg("error revoking share")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.RevokeShareResponse{Removed: true}, http.StatusOK)
}

func (h *Handler) listShares(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityID, found := utils.GetEntityIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.listShares").Msg("no entity id in request context")
		http.Error(w, app.MsgNoEntityIDProvided, http.StatusBadRequest)
		return
	}

	shares, err := h.services.ShareService.ListShares(ctx, entityID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listShares").Msg("error listing shares")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	utils.WriteJSON(w, shares, http.StatusOK)
}
