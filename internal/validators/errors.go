package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyCode           = errors.New("code is required")
	ErrEmptyEntityID       = errors.New("entity id is required")
	ErrEmptySourceEntityID = errors.New("source entity id is required")
	ErrEmptyTargetEntityID = errors.New("target entity id is required")
	ErrEmptyPropertyName   = errors.New("property name is required")
	ErrMissingExpiry       = errors.New("expiry deadline is required")

	ErrEmptyCiphertext       = errors.New("ciphertext is required")
	ErrEmptyNonce            = errors.New("nonce is required")
	ErrEmptySalt             = errors.New("salt is required")
	ErrInvalidPayloadVersion = errors.New("invalid payload version")
	ErrUnknownSealAlgorithm  = errors.New("unknown seal algorithm")
	ErrUnknownKDFAlgorithm   = errors.New("unknown KDF algorithm")
	ErrInvalidKDFCost        = errors.New("invalid KDF cost parameters")
)
