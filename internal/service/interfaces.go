package service

import (
	"context"
	"time"

	"github.com/MKhiriev/vault-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

type AuthService interface {
	RegisterEntity(ctx context.Context, credentialID, publicKey string) (models.EntityRecord, models.Token, error)
	CreateToken(ctx context.Context, entityID string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type EventService interface {
	Append(ctx context.Context, entityID string, payload models.EncryptedPayload) (models.EncryptedEvent, error)
	Replay(ctx context.Context, entityID string) ([]models.EncryptedEvent, error)
	ReplayTail(ctx context.Context, entityID string, n uint64) ([]models.EncryptedEvent, error)
	EraseEntity(ctx context.Context, entityID string) error
}

type ShareService interface {
	CreateInvite(ctx context.Context, entityID, code string, sealedKey models.SealedPayload, ttl time.Duration) error
	ConsumeInvite(ctx context.Context, code string) (models.InviteRecord, error)

	CreateShare(ctx context.Context, sourceEntityID, code, propertyName string, sealedKey models.SealedPayload, ttl time.Duration) error
	ConsumeShare(ctx context.Context, code, targetEntityID string) (models.ShareRecord, error)

	RevokeShare(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error
	ListShares(ctx context.Context, entityID string) (models.ShareList, error)

	// ShareTargets resolves which entities receive live updates for one
	// named property of the source. Used by the hub on event propagation.
	ShareTargets(ctx context.Context, sourceEntityID, propertyName string) ([]string, error)

	// SweepExpiredCodes removes codes whose deadline already passed. Expiry
	// stays lazy at consume time; this is a startup cleanup, not a periodic
	// sweeper.
	SweepExpiredCodes(ctx context.Context) (int64, error)
}
