package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/vault-sync/internal/app"
	"github.com/MKhiriev/vault-sync/internal/service"
	"github.com/MKhiriev/vault-sync/internal/store"
)

// genericCodeMessage is the single client-facing text for every way a code
// consumption can fail. The precise cause is logged server-side only.
const genericCodeMessage = app.MsgInvalidOrExpiredCode

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:  http.StatusBadRequest,
	service.ErrAuthenticationFailed: http.StatusUnauthorized,
	service.ErrTokenIsExpired:       http.StatusUnauthorized,
	service.ErrNotFound:             http.StatusNotFound,
	service.ErrExpired:              http.StatusNotFound,
	service.ErrConflict:             http.StatusConflict,
	service.ErrInvalidOperation:     http.StatusUnprocessableEntity,

	store.ErrEntityNotFound: http.StatusNotFound,
	store.ErrEventNotSaved:  http.StatusInternalServerError,

	store.ErrBuildingQuery:         http.StatusInternalServerError,
	store.ErrExecutingQuery:        http.StatusInternalServerError,
	store.ErrOpeningTransaction:    http.StatusInternalServerError,
	store.ErrCommittingTransaction: http.StatusInternalServerError,
	store.ErrScanningRow:           http.StatusInternalServerError,
	store.ErrScanningRows:          http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// codeConsumeStatus collapses every consume failure mode into one status
// and message pair. NotFound, Expired and a failed seal open are
// indistinguishable on the wire.
func codeConsumeStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusNotFound, genericCodeMessage
	case errors.Is(err, service.ErrInvalidOperation):
		return http.StatusUnprocessableEntity, app.MsgOperationNotAllowed
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, app.MsgAlreadyConsumed
	case errors.Is(err, service.ErrInvalidDataProvided):
		return http.StatusBadRequest, app.MsgInvalidDataProvided
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
