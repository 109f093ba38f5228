package store

import (
	"context"
	"time"

	"github.com/MKhiriev/vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// EntityRepository persists entity registrations.
type EntityRepository interface {
	// RegisterEntity stores a new entity under the given credential and
	// returns the created record. The boolean reports whether a new record
	// was created: registering the same credential twice returns the
	// existing record with created=false.
	RegisterEntity(ctx context.Context, entity models.EntityRecord) (models.EntityRecord, bool, error)
	GetEntity(ctx context.Context, entityID string) (models.EntityRecord, error)
	DeleteEntity(ctx context.Context, entityID string) error
}

// EventRepository persists the append-only encrypted event log. Appends to
// the same entity are serialized by the repository so that each stored event
// gets the next free sequence number.
type EventRepository interface {
	AppendEvent(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error)
	// CacheEvent stores an event that already carries a server-assigned id
	// and sequence, e.g. into a device's local replica. Storing the same
	// event twice is a no-op.
	CacheEvent(ctx context.Context, event models.EncryptedEvent) error
	ReplayEvents(ctx context.Context, entityID string) ([]models.EncryptedEvent, error)
	LastEvents(ctx context.Context, entityID string, limit uint64) ([]models.EncryptedEvent, error)
	EraseEvents(ctx context.Context, entityID string) error
}

// CodeRepository persists one-time invite and share codes. Take methods
// consume the code: they delete the row and return what it held, so a code
// can be claimed at most once regardless of how many devices race for it.
// Expiry is not checked here; callers inspect ExpiresAt on the returned
// record.
type CodeRepository interface {
	SaveInvite(ctx context.Context, invite models.InviteRecord) error
	TakeInvite(ctx context.Context, code string) (models.InviteRecord, error)
	SaveShare(ctx context.Context, share models.ShareRecord) error
	TakeShare(ctx context.Context, code string) (models.ShareRecord, error)
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	DeleteCodesForEntity(ctx context.Context, entityID string) error
}

// GrantRepository persists established property grants.
type GrantRepository interface {
	SaveGrant(ctx context.Context, grant models.GrantRecord) error
	DeleteGrant(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error
	ListGrantsBySource(ctx context.Context, sourceEntityID string) ([]models.GrantRecord, error)
	ListGrantsByTarget(ctx context.Context, targetEntityID string) ([]models.GrantRecord, error)
	ListGrantTargets(ctx context.Context, sourceEntityID, propertyName string) ([]string, error)
	DeleteGrantsForEntity(ctx context.Context, entityID string) error
}
