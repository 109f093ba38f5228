package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/store"
	"github.com/MKhiriev/vault-sync/internal/validators"
	"github.com/MKhiriev/vault-sync/models"
)

// shareService is the concrete implementation of ShareService. It owns the
// lifecycle of one-time codes (device invites and property shares) and of
// the grants established by consuming share codes.
//
// Expiry is lazy: a code is classified at consume time, after the record
// has been atomically taken from the registry. A consume attempt therefore
// always burns the code, and a just-expired code reports ErrExpired rather
// than ErrNotFound.
type shareService struct {
	codeRepository  store.CodeRepository
	grantRepository store.GrantRepository
	validator       validators.Validator

	// defaultTTL applies when a create request carries no explicit TTL.
	defaultTTL time.Duration

	logger *logger.Logger
}

// NewShareService constructs a ShareService over the code and grant
// repositories, with the default code TTL taken from cfg.
func NewShareService(codeRepository store.CodeRepository, grantRepository store.GrantRepository, cfg config.App, logger *logger.Logger) ShareService {
	return &shareService{
		codeRepository:  codeRepository,
		grantRepository: grantRepository,
		validator:       validators.NewCodeRequestValidator(),
		defaultTTL:      cfg.CodeTTL,
		logger:          logger,
	}
}

// CreateInvite stores a one-time device-link code carrying the entity's
// sealed private key. A colliding active code reports ErrConflict.
func (s *shareService) CreateInvite(ctx context.Context, entityID, code string, sealedKey models.SealedPayload, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	invite := models.InviteRecord{
		Code:      code,
		EntityID:  entityID,
		SealedKey: sealedKey,
		ExpiresAt: time.Now().UTC().Add(s.ttl(ttl)),
	}
	if err := s.validator.Validate(ctx, invite); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if err := s.codeRepository.SaveInvite(ctx, invite); err != nil {
		if errors.Is(err, store.ErrCodeAlreadyExists) {
			return ErrConflict
		}
		log.Err(err).Str("func", "shareService.CreateInvite").Str("entity_id", entityID).Msg("invite creation ended with error")
		return fmt.Errorf("invite creation ended with error: %w", err)
	}

	return nil
}

// ConsumeInvite atomically takes the invite code and returns its record.
// The code is single-use: it is gone after this call whatever the outcome
// of the expiry check.
func (s *shareService) ConsumeInvite(ctx context.Context, code string) (models.InviteRecord, error) {
	log := logger.FromContext(ctx)

	if code == "" {
		return models.InviteRecord{}, ErrInvalidDataProvided
	}

	invite, err := s.codeRepository.TakeInvite(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			return models.InviteRecord{}, ErrNotFound
		}
		log.Err(err).Str("func", "shareService.ConsumeInvite").Msg("invite consumption ended with error")
		return models.InviteRecord{}, fmt.Errorf("invite consumption ended with error: %w", err)
	}

	if time.Now().After(invite.ExpiresAt) {
		log.Debug().Str("func", "shareService.ConsumeInvite").Str("entity_id", invite.EntityID).Msg("invite code expired")
		return models.InviteRecord{}, ErrExpired
	}

	return invite, nil
}

// CreateShare stores a one-time property-share code carrying the sealed
// content key for one named property.
func (s *shareService) CreateShare(ctx context.Context, sourceEntityID, code, propertyName string, sealedKey models.SealedPayload, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	share := models.ShareRecord{
		Code:           code,
		SourceEntityID: sourceEntityID,
		PropertyName:   propertyName,
		SealedKey:      sealedKey,
		ExpiresAt:      time.Now().UTC().Add(s.ttl(ttl)),
	}
	if err := s.validator.Validate(ctx, share); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if err := s.codeRepository.SaveShare(ctx, share); err != nil {
		if errors.Is(err, store.ErrCodeAlreadyExists) {
			return ErrConflict
		}
		log.Err(err).Str("func", "shareService.CreateShare").Str("source_entity_id", sourceEntityID).Msg("share creation ended with error")
		return fmt.Errorf("share creation ended with error: %w", err)
	}

	return nil
}

// ConsumeShare takes the share code on behalf of targetEntityID and
// establishes the mirrored grant.
//
// Outcomes, in evaluation order:
//   - ErrNotFound — the code never existed or was already consumed.
//   - ErrExpired — retrieved but past its deadline.
//   - ErrInvalidOperation — the source consuming its own code. The code is
//     already burned at this point; single-use holds even for bad attempts.
//   - ErrConflict — the grant already exists for this triple.
func (s *shareService) ConsumeShare(ctx context.Context, code, targetEntityID string) (models.ShareRecord, error) {
	log := logger.FromContext(ctx)

	if code == "" || targetEntityID == "" {
		return models.ShareRecord{}, ErrInvalidDataProvided
	}

	share, err := s.codeRepository.TakeShare(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			return models.ShareRecord{}, ErrNotFound
		}
		log.Err(err).Str("func", "shareService.ConsumeShare").Msg("share consumption ended with error")
		return models.ShareRecord{}, fmt.Errorf("share consumption ended with error: %w", err)
	}

	if time.Now().After(share.ExpiresAt) {
		return models.ShareRecord{}, ErrExpired
	}

	if share.SourceEntityID == targetEntityID {
		log.Warn().
			Str("func", "shareService.ConsumeShare").
			Str("entity_id", targetEntityID).
			Msg("entity attempted to consume its own share code")
		return models.ShareRecord{}, ErrInvalidOperation
	}

	grant := models.GrantRecord{
		SourceEntityID: share.SourceEntityID,
		TargetEntityID: targetEntityID,
		PropertyName:   share.PropertyName,
		SealedKey:      share.SealedKey,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.grantRepository.SaveGrant(ctx, grant); err != nil {
		if errors.Is(err, store.ErrGrantAlreadyExists) {
			return models.ShareRecord{}, ErrConflict
		}
		log.Err(err).
			Str("func", "shareService.ConsumeShare").
			Str("source_entity_id", share.SourceEntityID).
			Str("target_entity_id", targetEntityID).
			Msg("grant creation ended with error")
		return models.ShareRecord{}, fmt.Errorf("grant creation ended with error: %w", err)
	}

	log.Info().
		Str("func", "shareService.ConsumeShare").
		Str("source_entity_id", share.SourceEntityID).
		Str("target_entity_id", targetEntityID).
		Str("property_name", share.PropertyName).
		Msg("share established")

	return share, nil
}

// RevokeShare removes both halves of the grant. The single underlying row
// makes the removal atomic; ErrNotFound reports that nothing was removed.
func (s *shareService) RevokeShare(ctx context.Context, sourceEntityID, targetEntityID, propertyName string) error {
	log := logger.FromContext(ctx)

	if sourceEntityID == "" || targetEntityID == "" || propertyName == "" {
		return ErrInvalidDataProvided
	}

	if err := s.grantRepository.DeleteGrant(ctx, sourceEntityID, targetEntityID, propertyName); err != nil {
		if errors.Is(err, store.ErrGrantNotFound) {
			return ErrNotFound
		}
		log.Err(err).
			Str("func", "shareService.RevokeShare").
			Str("source_entity_id", sourceEntityID).
			Str("target_entity_id", targetEntityID).
			Msg("revocation ended with error")
		return fmt.Errorf("revocation ended with error: %w", err)
	}

	return nil
}

// ListShares returns both directions of the entity's live grants.
func (s *shareService) ListShares(ctx context.Context, entityID string) (models.ShareList, error) {
	log := logger.FromContext(ctx)

	outgoing, err := s.grantRepository.ListGrantsBySource(ctx, entityID)
	if err != nil {
		log.Err(err).Str("func", "shareService.ListShares").Str("entity_id", entityID).Msg("outgoing listing ended with error")
		return models.ShareList{}, fmt.Errorf("outgoing listing ended with error: %w", err)
	}

	incoming, err := s.grantRepository.ListGrantsByTarget(ctx, entityID)
	if err != nil {
		log.Err(err).Str("func", "shareService.ListShares").Str("entity_id", entityID).Msg("incoming listing ended with error")
		return models.ShareList{}, fmt.Errorf("incoming listing ended with error: %w", err)
	}

	list := models.ShareList{
		Outgoing: make([]models.OutgoingShare, 0, len(outgoing)),
		Incoming: make([]models.IncomingShare, 0, len(incoming)),
	}
	for _, grant := range outgoing {
		list.Outgoing = append(list.Outgoing, grant.Outgoing())
	}
	for _, grant := range incoming {
		list.Incoming = append(list.Incoming, grant.Incoming())
	}

	return list, nil
}

// ShareTargets returns the entities holding a live grant on the property.
func (s *shareService) ShareTargets(ctx context.Context, sourceEntityID, propertyName string) ([]string, error) {
	targets, err := s.grantRepository.ListGrantTargets(ctx, sourceEntityID, propertyName)
	if err != nil {
		return nil, fmt.Errorf("grant target listing ended with error: %w", err)
	}

	return targets, nil
}

// SweepExpiredCodes removes already-expired codes from both registries.
func (s *shareService) SweepExpiredCodes(ctx context.Context) (int64, error) {
	removed, err := s.codeRepository.DeleteExpiredCodes(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expired code sweep ended with error: %w", err)
	}

	if removed > 0 {
		s.logger.Info().Str("func", "shareService.SweepExpiredCodes").Int64("removed", removed).Msg("expired codes swept")
	}

	return removed, nil
}

func (s *shareService) ttl(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	return s.defaultTTL
}
