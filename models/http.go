// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Control-plane request/response bodies. Every field is an opaque
// identifier or a sealed/encrypted blob; plaintext property values and
// private keys never appear here.

// RegisterRequest exchanges an opaque passkey credential identifier for a
// session. The WebAuthn ceremony itself happens outside this service.
type RegisterRequest struct {
	// CredentialID is the opaque identifier produced by the passkey
	// ceremony. Registration is idempotent per credential id.
	CredentialID string `json:"credential_id"`

	// PublicKey is the entity's base64-encoded public key, stored so other
	// devices can address the entity. Only meaningful on first
	// registration.
	PublicKey string `json:"public_key,omitempty"`
}

// RegisterResponse carries the stable entity id and a signed session token.
type RegisterResponse struct {
	EntityID string `json:"entity_id"`
	Token    string `json:"token"`
}

// CreateInviteRequest registers a one-time device-link code. The entity id
// comes from the session, never from the body.
type CreateInviteRequest struct {
	Code       string        `json:"code"`
	SealedKey  SealedPayload `json:"sealed_key"`
	TTLSeconds int64         `json:"ttl_seconds,omitempty"`
}

// ConsumeInviteRequest claims a pending invite code.
type ConsumeInviteRequest struct {
	Code string `json:"code"`
}

// ConsumeInviteResponse delivers the sealed private key to the new device.
// Opening the seal still requires the human code; the server cannot.
type ConsumeInviteResponse struct {
	EntityID  string        `json:"entity_id"`
	SealedKey SealedPayload `json:"sealed_key"`
}

// CreateShareRequest registers a one-time share code for one property of
// the session entity.
type CreateShareRequest struct {
	Code         string        `json:"code"`
	PropertyName string        `json:"property_name"`
	SealedKey    SealedPayload `json:"sealed_key"`
	TTLSeconds   int64         `json:"ttl_seconds,omitempty"`
}

// ConsumeShareRequest claims a pending share code for the session entity.
type ConsumeShareRequest struct {
	Code string `json:"code"`
}

// ConsumeShareResponse delivers the sealed content key and the share scope.
type ConsumeShareResponse struct {
	SourceEntityID string        `json:"source_entity_id"`
	PropertyName   string        `json:"property_name"`
	SealedKey      SealedPayload `json:"sealed_key"`
}

// RevokeShareRequest removes a live grant from either side. Exactly one of
// SourceEntityID/TargetEntityID is set; the other side is the session
// entity.
type RevokeShareRequest struct {
	PropertyName   string `json:"property_name"`
	SourceEntityID string `json:"source_entity_id,omitempty"`
	TargetEntityID string `json:"target_entity_id,omitempty"`
}

// RevokeShareResponse reports whether any grant was actually removed.
type RevokeShareResponse struct {
	Removed bool `json:"removed"`
}

// ErrorResponse is the uniform control-plane error body.
type ErrorResponse struct {
	Message string `json:"message"`
}
