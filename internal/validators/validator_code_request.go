package validators

import (
	"context"

	"github.com/MKhiriev/vault-sync/models"
)

// CodeRequestValidator validates one-time code records (device invites and
// property shares) and the grants established by consuming them, before
// they reach the code and grant registries.
type CodeRequestValidator struct {
}

func NewCodeRequestValidator() Validator {
	return &CodeRequestValidator{}
}

func (v *CodeRequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.InviteRecord:
		return v.validateInviteRecord(ctx, value, fields...)
	case *models.InviteRecord:
		return v.validateInviteRecord(ctx, *value, fields...)

	case models.ShareRecord:
		return v.validateShareRecord(ctx, value, fields...)
	case *models.ShareRecord:
		return v.validateShareRecord(ctx, *value, fields...)

	case models.GrantRecord:
		return v.validateGrantRecord(ctx, value, fields...)
	case *models.GrantRecord:
		return v.validateGrantRecord(ctx, *value, fields...)

	case models.SealedPayload:
		return v.validateSealedPayload(value)
	case *models.SealedPayload:
		return v.validateSealedPayload(*value)

	default:
		return ErrUnsupportedType
	}
}

func isAllowedSealAlgorithm(algorithm string) bool {
	for _, a := range allowedSealAlgorithms {
		if algorithm == a {
			return true
		}
	}
	return false
}

func isAllowedKDFAlgorithm(algorithm string) bool {
	for _, a := range allowedKDFAlgorithms {
		if algorithm == a {
			return true
		}
	}
	return false
}

func (v *CodeRequestValidator) validateInviteRecord(ctx context.Context, invite models.InviteRecord, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCode, FieldEntityID, FieldSealedKey, FieldExpiresAt}
	}

	for _, f := range fields {
		switch f {
		case FieldCode:
			if invite.Code == "" {
				return ErrEmptyCode
			}
		case FieldEntityID:
			if invite.EntityID == "" {
				return ErrEmptyEntityID
			}
		case FieldSealedKey:
			if err := v.validateSealedPayload(invite.SealedKey); err != nil {
				return err
			}
		case FieldExpiresAt:
			if invite.ExpiresAt.IsZero() {
				return ErrMissingExpiry
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *CodeRequestValidator) validateShareRecord(ctx context.Context, share models.ShareRecord, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCode, FieldSourceEntityID, FieldPropertyName, FieldSealedKey, FieldExpiresAt}
	}

	for _, f := range fields {
		switch f {
		case FieldCode:
			if share.Code == "" {
				return ErrEmptyCode
			}
		case FieldSourceEntityID:
			if share.SourceEntityID == "" {
				return ErrEmptySourceEntityID
			}
		case FieldPropertyName:
			if share.PropertyName == "" {
				return ErrEmptyPropertyName
			}
		case FieldSealedKey:
			if err := v.validateSealedPayload(share.SealedKey); err != nil {
				return err
			}
		case FieldExpiresAt:
			if share.ExpiresAt.IsZero() {
				return ErrMissingExpiry
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *CodeRequestValidator) validateGrantRecord(ctx context.Context, grant models.GrantRecord, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldSourceEntityID, FieldTargetEntityID, FieldPropertyName, FieldSealedKey}
	}

	for _, f := range fields {
		switch f {
		case FieldSourceEntityID:
			if grant.SourceEntityID == "" {
				return ErrEmptySourceEntityID
			}
		case FieldTargetEntityID:
			if grant.TargetEntityID == "" {
				return ErrEmptyTargetEntityID
			}
		case FieldPropertyName:
			if grant.PropertyName == "" {
				return ErrEmptyPropertyName
			}
		case FieldSealedKey:
			if err := v.validateSealedPayload(grant.SealedKey); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateSealedPayload enforces the structural shape of a code-sealed
// payload. The server cannot open the seal, so shape is all it can check.
func (v *CodeRequestValidator) validateSealedPayload(payload models.SealedPayload) error {
	if payload.Ciphertext == "" {
		return ErrEmptyCiphertext
	}
	if payload.Nonce == "" {
		return ErrEmptyNonce
	}
	if payload.Salt == "" {
		return ErrEmptySalt
	}
	if payload.Version != models.PayloadVersion {
		return ErrInvalidPayloadVersion
	}
	if !isAllowedSealAlgorithm(payload.Algorithm) {
		return ErrUnknownSealAlgorithm
	}
	if !isAllowedKDFAlgorithm(payload.KDFAlgorithmID) {
		return ErrUnknownKDFAlgorithm
	}
	if payload.KDFCostParams.Opslimit == 0 || payload.KDFCostParams.Memlimit == 0 {
		return ErrInvalidKDFCost
	}

	return nil
}
