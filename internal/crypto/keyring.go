// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/MKhiriev/vault-sync/models"
)

// contentKeyLabel domain-separates the content-key derivation from any
// other use of the private key as HKDF input material.
const contentKeyLabel = "vault-sync/content-key/v1"

const (
	keySize  = 32
	saltSize = 16

	// argonThreads is fixed: parallelism changes the Argon2id output but is
	// not part of the persisted cost parameters, so it must never vary
	// between seal and open.
	argonThreads = 4
)

// KeyPair is an entity's root X25519 keypair.
type KeyPair struct {
	Public  []byte
	Private []byte
}

// keyring is the private implementation of [Keyring].
type keyring struct {
	// Argon2id tuning parameters for code sealing. Stored in the struct so
	// they can be adjusted per deployment target; the values actually used
	// are persisted inside every sealed payload.
	argonTime   uint32
	argonMemory uint32
}

// NewKeyring constructs a [Keyring] with Argon2id parameters following the
// OWASP recommendation:
//   - time cost:   3 iterations
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//
// Sealing a code-protected payload takes a perceptible fraction of a second
// on purpose: human codes are low entropy, and the KDF cost is the only
// brake on brute force.
func NewKeyring() Keyring {
	return &keyring{
		argonTime:   3,
		argonMemory: 64 * 1024, // 64 MiB
	}
}

// NewKeyringWithCost constructs a [Keyring] with explicit Argon2id cost
// parameters. Used by tests (cheap parameters) and by deployments that tune
// the sealing cost.
func NewKeyringWithCost(time, memoryKiB uint32) Keyring {
	return &keyring{
		argonTime:   time,
		argonMemory: memoryKiB,
	}
}

// GenerateEntityKeyPair implements [Keyring]. It reads 32 random bytes from
// the OS CSPRNG, clamps them per the X25519 requirements, and derives the
// public key via scalar base multiplication.
func (k *keyring) GenerateEntityKeyPair() (KeyPair, error) {
	private := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, private); err != nil {
		return KeyPair{}, fmt.Errorf("generate private key: %w", err)
	}

	// Clamp for X25519.
	private[0] &= 248
	private[31] &= 127
	private[31] |= 64

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("derive public key: %w", err)
	}

	return KeyPair{Public: public, Private: private}, nil
}

// GenerateDeviceKey implements [Keyring]. It reads 32 random bytes from the
// OS CSPRNG and returns them as the device wrapping key.
func (k *keyring) GenerateDeviceKey() ([]byte, error) {
	deviceKey := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, deviceKey); err != nil {
		return nil, err
	}
	return deviceKey, nil
}

// DeriveContentKey implements [Keyring]. It expands the private key through
// HKDF-SHA256 under the fixed [contentKeyLabel] and returns a 256-bit
// symmetric key. Deterministic: same private key, same content key.
func (k *keyring) DeriveContentKey(privateKey []byte) ([]byte, error) {
	if len(privateKey) != keySize {
		return nil, fmt.Errorf("invalid private key size %d", len(privateKey))
	}

	h := hkdf.New(sha256.New, privateKey, nil, []byte(contentKeyLabel))

	contentKey := make([]byte, keySize)
	if _, err := io.ReadFull(h, contentKey); err != nil {
		return nil, fmt.Errorf("derive content key: %w", err)
	}

	return contentKey, nil
}

// WrapPrivateKey implements [Keyring]. It encrypts the private key with the
// device key using AES-256-GCM and a fresh random nonce.
func (k *keyring) WrapPrivateKey(privateKey, deviceKey []byte) (models.EncryptedPayload, error) {
	return sealAESGCM(deviceKey, privateKey)
}

// UnwrapPrivateKey implements [Keyring]. It reverses [keyring.WrapPrivateKey].
// Returns [ErrAuthenticationFailed] on auth-tag mismatch.
func (k *keyring) UnwrapPrivateKey(payload models.EncryptedPayload, deviceKey []byte) ([]byte, error) {
	return openAESGCM(deviceKey, payload)
}

// SealForCode implements [Keyring]. It derives a wrapping key from the
// human code via Argon2id (fresh random salt, the receiver's cost
// parameters) and seals the material with AES-256-GCM. Salt and cost
// parameters travel inside the payload.
func (k *keyring) SealForCode(material []byte, code string) (models.SealedPayload, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return models.SealedPayload{}, fmt.Errorf("generate salt: %w", err)
	}

	wrapKey := argon2.IDKey([]byte(code), salt, k.argonTime, k.argonMemory, argonThreads, keySize)

	payload, err := sealAESGCM(wrapKey, material)
	if err != nil {
		return models.SealedPayload{}, err
	}

	return models.SealedPayload{
		EncryptedPayload: payload,
		Salt:             base64.StdEncoding.EncodeToString(salt),
		KDFCostParams: models.KDFCostParams{
			Opslimit: k.argonTime,
			Memlimit: k.argonMemory,
		},
		KDFAlgorithmID: models.KDFArgon2id,
	}, nil
}

// OpenSealedPayload implements [Keyring]. It re-derives the wrapping key
// using the salt and cost parameters carried by the payload — never the
// receiver's current defaults — and opens the ciphertext. Any failure after
// parameter validation surfaces as [ErrAuthenticationFailed].
func (k *keyring) OpenSealedPayload(payload models.SealedPayload, code string) ([]byte, error) {
	if payload.KDFAlgorithmID != models.KDFArgon2id {
		return nil, fmt.Errorf("unsupported kdf algorithm %q", payload.KDFAlgorithmID)
	}

	salt, err := base64.StdEncoding.DecodeString(payload.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	wrapKey := argon2.IDKey(
		[]byte(code),
		salt,
		payload.KDFCostParams.Opslimit,
		payload.KDFCostParams.Memlimit,
		argonThreads,
		keySize,
	)

	return openAESGCM(wrapKey, payload.EncryptedPayload)
}

// sealAESGCM encrypts plaintext under key with AES-256-GCM and a fresh
// random nonce, producing the stable wire payload.
func sealAESGCM(key, plaintext []byte) (models.EncryptedPayload, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return models.EncryptedPayload{
		Version:    models.PayloadVersion,
		Algorithm:  models.AlgorithmAESGCM,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// openAESGCM reverses sealAESGCM. Structural problems with the payload
// (bad base64, wrong algorithm tag) are reported as such; a failed open is
// always [ErrAuthenticationFailed] with no further detail.
func openAESGCM(key []byte, payload models.EncryptedPayload) ([]byte, error) {
	if payload.Algorithm != models.AlgorithmAESGCM {
		return nil, fmt.Errorf("unsupported algorithm %q", payload.Algorithm)
	}

	nonce, err := base64.StdEncoding.DecodeString(payload.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}
