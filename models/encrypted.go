// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Wire-format identifiers. These are persisted inside every payload so a
// reader can reproduce the exact decryption procedure even after defaults
// change.
const (
	// PayloadVersion is the current encrypted payload format version.
	PayloadVersion = 1

	// AlgorithmAESGCM identifies AES-256-GCM authenticated encryption.
	AlgorithmAESGCM = "aes-256-gcm"

	// KDFArgon2id identifies the Argon2id password-hardening KDF used to
	// seal key material under a human-entered code.
	KDFArgon2id = "argon2id"
)

// EncryptedPayload is the stable wire form of one encrypted blob. Nonce and
// Ciphertext are base64 (standard encoding) strings; the server treats the
// whole structure as opaque and never holds a key that opens it.
type EncryptedPayload struct {
	// Version is the payload format version, currently [PayloadVersion].
	Version int `json:"version"`

	// Algorithm names the AEAD used, e.g. [AlgorithmAESGCM].
	Algorithm string `json:"algorithm"`

	// Nonce is the base64-encoded AEAD nonce, freshly generated per payload.
	Nonce string `json:"nonce"`

	// Ciphertext is the base64-encoded AEAD output (ciphertext + tag).
	Ciphertext string `json:"ciphertext"`
}

// KDFCostParams carries the CPU and memory cost of a password-based KDF
// invocation. Persisted beside the ciphertext so verification reproduces
// the exact derivation used at seal time.
type KDFCostParams struct {
	// Opslimit is the iteration (time) cost.
	Opslimit uint32 `json:"opslimit"`

	// Memlimit is the memory cost in KiB.
	Memlimit uint32 `json:"memlimit"`
}

// SealedPayload is an [EncryptedPayload] whose key was derived from a
// low-entropy human code via a cost-hardened KDF. It additionally carries
// the salt and the KDF parameters of the seal-time derivation.
type SealedPayload struct {
	EncryptedPayload

	// Salt is the base64-encoded KDF salt.
	Salt string `json:"salt"`

	// KDFCostParams are the cost parameters used at seal time.
	KDFCostParams KDFCostParams `json:"kdf_cost_params"`

	// KDFAlgorithmID names the KDF, e.g. [KDFArgon2id].
	KDFAlgorithmID string `json:"kdf_algorithm_id"`
}

// EncryptedEvent is one immutable fact in an entity's history as stored and
// broadcast by the server. The payload is opaque ciphertext; Sequence is the
// per-entity append order and the only ordering authority for the stream.
type EncryptedEvent struct {
	// ID is the globally unique event identifier (UUIDv7).
	ID string `json:"id"`

	// EntityID is the owning entity's identifier.
	EntityID string `json:"entity_id"`

	// Sequence is the per-entity monotonically increasing append index,
	// starting at 1. Clients resolve "latest" by Sequence, never by clock.
	Sequence int64 `json:"sequence"`

	// CreatedAt is the server-observed append timestamp. Informational
	// only; it carries no ordering guarantees.
	CreatedAt time.Time `json:"created_at"`

	// Payload is the encrypted logical event.
	Payload EncryptedPayload `json:"payload"`
}
