// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// EntityRecord is the server-side registration of one entity. The server
// stores only the public half of the entity keypair and an opaque credential
// identifier; it never sees private keys or content keys.
type EntityRecord struct {
	// EntityID is the server-assigned stable identifier.
	EntityID string `json:"entity_id"`

	// CredentialID is the opaque client-derived credential the entity
	// registered under. Registration is idempotent per credential.
	CredentialID string `json:"credential_id"`

	// PublicKey is the base64-encoded X25519 public key.
	PublicKey string `json:"public_key"`

	CreatedAt time.Time `json:"created_at"`
}

// GrantRecord is one established property grant. A single row carries both
// directions: the source's outgoing view and the target's incoming view
// (with the sealed key material), so creation and revocation of the pair are
// atomic by construction.
type GrantRecord struct {
	SourceEntityID string        `json:"source_entity_id"`
	TargetEntityID string        `json:"target_entity_id"`
	PropertyName   string        `json:"property_name"`
	SealedKey      SealedPayload `json:"sealed_key"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Outgoing projects the source-side view of the grant.
func (g GrantRecord) Outgoing() OutgoingShare {
	return OutgoingShare{
		SourceEntityID: g.SourceEntityID,
		TargetEntityID: g.TargetEntityID,
		PropertyName:   g.PropertyName,
	}
}

// Incoming projects the target-side view of the grant.
func (g GrantRecord) Incoming() IncomingShare {
	return IncomingShare{
		SourceEntityID: g.SourceEntityID,
		TargetEntityID: g.TargetEntityID,
		PropertyName:   g.PropertyName,
		SealedKey:      g.SealedKey,
	}
}
