package service

import (
	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/store"
)

type Services struct {
	AuthService  AuthService
	EventService EventService
	ShareService ShareService
}

func NewServices(storages *store.Storages, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService:  NewAuthService(storages.EntityRepository, cfg.App, logger),
		EventService: NewEventService(storages, logger),
		ShareService: NewShareService(storages.CodeRepository, storages.GrantRepository, cfg.App, logger),
	}
}
