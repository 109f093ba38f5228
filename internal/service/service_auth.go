package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/vault-sync/internal/config"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/store"
	"github.com/MKhiriev/vault-sync/internal/utils"
	"github.com/MKhiriev/vault-sync/models"
)

// authService is the concrete implementation of AuthService.
// It handles entity registration and JWT session token lifecycle. The server
// never receives key material here: the credential id is an opaque
// client-derived string and the public key is the only key half ever sent.
type authService struct {
	// entityRepository is the data-access layer used to create and look up
	// entities.
	entityRepository store.EntityRepository

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	// uuid produces entity identifiers.
	uuid *utils.UUIDGenerator

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewAuthService constructs a new AuthService wired to the given
// EntityRepository and populated with token parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(entityRepository store.EntityRepository, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		entityRepository: entityRepository,
		tokenSignKey:     cfg.TokenSignKey,
		tokenIssuer:      cfg.TokenIssuer,
		tokenDuration:    cfg.TokenDuration,
		uuid:             utils.NewUUIDGenerator(),
		logger:           logger,
	}
}

// RegisterEntity registers the credential and issues a session token.
//
// Registration is idempotent per credential id: a repeated call with the
// same credential returns the originally assigned entity id with a fresh
// token. Returns ErrInvalidDataProvided when credentialID or publicKey is
// empty.
func (a *authService) RegisterEntity(ctx context.Context, credentialID, publicKey string) (models.EntityRecord, models.Token, error) {
	log := logger.FromContext(ctx)

	if credentialID == "" || publicKey == "" {
		log.Error().Str("func", "authService.RegisterEntity").Msg("empty credential id or public key")
		return models.EntityRecord{}, models.Token{}, ErrInvalidDataProvided
	}

	entity := models.EntityRecord{
		EntityID:     a.uuid.Generate(),
		CredentialID: credentialID,
		PublicKey:    publicKey,
		CreatedAt:    time.Now().UTC(),
	}

	registered, created, err := a.entityRepository.RegisterEntity(ctx, entity)
	if err != nil {
		log.Err(err).Str("func", "authService.RegisterEntity").Msg("entity registration ended with error")
		return models.EntityRecord{}, models.Token{}, fmt.Errorf("entity registration ended with error: %w", err)
	}

	token, err := a.CreateToken(ctx, registered.EntityID)
	if err != nil {
		return models.EntityRecord{}, models.Token{}, err
	}

	log.Info().
		Str("func", "authService.RegisterEntity").
		Str("entity_id", registered.EntityID).
		Bool("created", created).
		Msg("entity registered")

	return registered, token, nil
}

// CreateToken issues a signed session token whose subject is the entity id.
func (a *authService) CreateToken(ctx context.Context, entityID string) (models.Token, error) {
	log := logger.FromContext(ctx)

	token, err := utils.GenerateJWTToken(a.tokenIssuer, entityID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		log.Err(err).Str("func", "authService.CreateToken").Str("entity_id", entityID).Msg("token generation failed")
		return models.Token{}, fmt.Errorf("token generation failed: %w", err)
	}

	return token, nil
}

// ParseToken verifies the signature, issuer and expiry of tokenString and
// returns the parsed token. All failures are reported as
// ErrAuthenticationFailed; the precise cause is logged server-side only.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	log := logger.FromContext(ctx)

	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		log.Err(err).Str("func", "authService.ParseToken").Msg("token rejected")
		return models.Token{}, ErrAuthenticationFailed
	}

	return token, nil
}
