package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Use(withGZip)
		if h.requestTimeout > 0 {
			r.Use(middleware.Timeout(h.requestTimeout))
		}
		r.Post("/api/entity/register", h.register)
		r.Get("/api/version", h.getServerVersion)
	})

	// control plane; the realtime stream below stays outside the request
	// timeout, a sync session lives as long as the socket does
	router.Group(func(r chi.Router) {
		r.Use(withGZip)
		if h.requestTimeout > 0 {
			r.Use(middleware.Timeout(h.requestTimeout))
		}
		r.Use(h.auth)

		r.Post("/api/invites", h.createInvite)
		r.Post("/api/invites/consume", h.consumeInvite)

		r.Post("/api/shares", h.createShare)
		r.Post("/api/shares/consume", h.consumeShare)
		r.Delete("/api/shares", h.revokeShare)
		r.Get("/api/shares", h.listShares)

		r.Delete("/api/entity", h.eraseEntity)
	})

	// realtime stream; no gzip wrapper, the upgrade needs the raw writer
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/api/sync", h.sync)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
