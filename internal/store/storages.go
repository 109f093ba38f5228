package store

import "github.com/MKhiriev/vault-sync/internal/logger"

type Storages struct {
	EntityRepository EntityRepository
	EventRepository  EventRepository
	CodeRepository   CodeRepository
	GrantRepository  GrantRepository
}

func NewStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		EntityRepository: NewEntityRepository(db, log),
		EventRepository:  NewEventRepository(db, log),
		CodeRepository:   NewCodeRepository(db, log),
		GrantRepository:  NewGrantRepository(db, log),
	}
}
