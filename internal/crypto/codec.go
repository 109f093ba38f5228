// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"fmt"

	"github.com/MKhiriev/vault-sync/models"
)

// eventCodec is the private implementation of [EventCodec]. It reuses the
// same AES-256-GCM primitives as the keyring so the two payload kinds stay
// byte-compatible on the wire.
type eventCodec struct {
}

// NewEventCodec constructs an [EventCodec].
func NewEventCodec() EventCodec {
	return &eventCodec{}
}

// EncryptEvent implements [EventCodec]. It serializes the event into its
// tagged envelope and seals it under key with a fresh random nonce.
func (c *eventCodec) EncryptEvent(key []byte, event models.Event) (models.EncryptedPayload, error) {
	plaintext, err := models.EncodeEvent(event)
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("encode event: %w", err)
	}

	return sealAESGCM(key, plaintext)
}

// DecryptEvent implements [EventCodec]. Returns [ErrAuthenticationFailed]
// if the key is wrong or the payload was tampered with.
func (c *eventCodec) DecryptEvent(key []byte, payload models.EncryptedPayload) (models.Event, error) {
	plaintext, err := openAESGCM(key, payload)
	if err != nil {
		return nil, err
	}

	event, err := models.DecodeEvent(plaintext)
	if err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	return event, nil
}
