package http

import (
	"time"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/hub"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/service"
)

type Handler struct {
	services *service.Services
	hub      *hub.Hub

	sendBufferSize int
	requestTimeout time.Duration
	version        string

	logger *logger.Logger
}

func NewHandler(services *service.Services, syncHub *hub.Hub, cfg *config.StructuredConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		hub:            syncHub,
		sendBufferSize: cfg.Hub.SendBufferSize,
		requestTimeout: cfg.Server.RequestTimeout,
		version:        cfg.App.Version,
		logger:         logger,
	}
}
