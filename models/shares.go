// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// InviteRecord is a one-time device-link credential: a private key sealed
// under a human code, waiting to be claimed by a new device of the same
// entity. Deleted on successful consumption or reported expired at consume
// time; there is no background sweep.
type InviteRecord struct {
	// Code is the short human-readable lookup code. The code is not the
	// secret: validity is gated by opening SealedKey, which requires the
	// same code as KDF input.
	Code string `json:"code"`

	// EntityID is the entity whose private key is sealed inside.
	EntityID string `json:"entity_id"`

	// SealedKey is the entity private key sealed under Code.
	SealedKey SealedPayload `json:"sealed_key"`

	// ExpiresAt is the lazy-checked expiry deadline.
	ExpiresAt time.Time `json:"expires_at"`
}

// ShareRecord is a one-time share credential: a content (or derived) key
// sealed under a human code, scoped to one named property of the source
// entity. Same single-use and lazy-expiry semantics as [InviteRecord].
type ShareRecord struct {
	Code           string        `json:"code"`
	SourceEntityID string        `json:"source_entity_id"`
	PropertyName   string        `json:"property_name"`
	SealedKey      SealedPayload `json:"sealed_key"`
	ExpiresAt      time.Time     `json:"expires_at"`
}

// OutgoingShare is a live grant held on the source side: target receives
// live updates to one named property. Mirrored by exactly one
// [IncomingShare] until revoked.
type OutgoingShare struct {
	SourceEntityID string `json:"source_entity_id"`
	TargetEntityID string `json:"target_entity_id"`
	PropertyName   string `json:"property_name"`
}

// IncomingShare is the target-side mirror of an [OutgoingShare]. SealedKey
// keeps the wrapped key material delivered at consume time so a device that
// still knows the share code can recover the content key later.
type IncomingShare struct {
	SourceEntityID string        `json:"source_entity_id"`
	TargetEntityID string        `json:"target_entity_id"`
	PropertyName   string        `json:"property_name"`
	SealedKey      SealedPayload `json:"sealed_key"`
}

// ShareList groups both directions of an entity's live grants for the
// control plane.
type ShareList struct {
	Outgoing []OutgoingShare `json:"outgoing"`
	Incoming []IncomingShare `json:"incoming"`
}
