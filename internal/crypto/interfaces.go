package crypto

import "github.com/MKhiriev/vault-sync/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// Keyring владеет всей клиентской криптографией в схеме Zero-Knowledge.
// Он не знает ничего о сети, базе данных или сущностях.
// Его единственная задача — генерировать и защищать ключи.
//
// Схема работы:
//
//	KeyPair    = GenerateEntityKeyPair()            (Шаг 1)
//	ContentKey = DeriveContentKey(PrivateKey)       (Шаг 2)
//	Wrapped    = WrapPrivateKey(PrivateKey, DevKey) (Шаг 3, at rest)
//	Sealed     = SealForCode(Key, humanCode)        (Шаг 4, transfer)
type Keyring interface {
	// GenerateEntityKeyPair creates the entity's root keypair (X25519).
	// The private key never leaves a device in plaintext.
	GenerateEntityKeyPair() (KeyPair, error)

	// GenerateDeviceKey creates a random 256-bit symmetric key that is
	// persisted only in one device's local storage and never transmitted.
	// It wraps the entity private key at rest on that device.
	GenerateDeviceKey() ([]byte, error)

	// DeriveContentKey derives the symmetric content key from the entity
	// private key. The derivation is deterministic (keyed hash under a
	// fixed domain-separation label): the same private key always yields
	// the same content key, so every linked device arrives at it
	// independently.
	DeriveContentKey(privateKey []byte) ([]byte, error)

	// WrapPrivateKey authenticated-encrypts the entity private key under
	// the local device key. The device key is a full-entropy secret, so no
	// KDF hardening is involved — this is a different threat model from
	// SealForCode and deliberately a different code path.
	WrapPrivateKey(privateKey, deviceKey []byte) (models.EncryptedPayload, error)

	// UnwrapPrivateKey reverses WrapPrivateKey. Returns
	// ErrAuthenticationFailed if the device key is wrong or the payload
	// was tampered with.
	UnwrapPrivateKey(payload models.EncryptedPayload, deviceKey []byte) ([]byte, error)

	// SealForCode authenticated-encrypts arbitrary key material under a
	// key derived from a low-entropy human code via Argon2id. Salt and
	// cost parameters are persisted in the returned payload so the exact
	// derivation is reproducible at open time even if defaults change.
	SealForCode(material []byte, code string) (models.SealedPayload, error)

	// OpenSealedPayload reverses SealForCode using the KDF parameters
	// carried by the payload. Returns ErrAuthenticationFailed if the code
	// is wrong or the payload was tampered with — deliberately
	// indistinguishable, this is the sole validity gate on a code.
	OpenSealedPayload(payload models.SealedPayload, code string) ([]byte, error)
}

// EventCodec encrypts and decrypts logical events with an entity's (or a
// shared) content key.
type EventCodec interface {
	// EncryptEvent serializes the event and authenticated-encrypts it with
	// a fresh random nonce. The nonce is generated inside the call and
	// never accepted as a parameter, so nonce reuse under one key is
	// structurally impossible.
	EncryptEvent(key []byte, event models.Event) (models.EncryptedPayload, error)

	// DecryptEvent reverses EncryptEvent. Returns ErrAuthenticationFailed
	// on tag mismatch (wrong key, corrupted ciphertext or nonce); callers
	// must keep this distinguishable from "not found".
	DecryptEvent(key []byte, payload models.EncryptedPayload) (models.Event, error)
}
