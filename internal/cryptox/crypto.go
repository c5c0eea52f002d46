// Package cryptox seals small local secrets (the persisted session snapshot)
// with AES-256-GCM under a key derived from a passphrase with Argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/salonmate/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt fed to DeriveKey.
const SaltSize = 16

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// DeriveKey stretches secret into a 32-byte AES key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// NewSalt returns a fresh random salt of SaltSize bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Sealer encrypts and authenticates opaque blobs with a fixed key.
// The output layout is nonce || ciphertext.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key from (secret, salt) and prepares AES-GCM.
func NewSealer(secret []byte, salt []byte) (*Sealer, error) {
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext under a new random nonce.
func (s *Sealer) Seal(plaintext []byte) []byte {
	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	return s.aead.Seal(nonce, nonce, plaintext, nil)
}

// Open reverses Seal. Tampered or truncated input is an error.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrMalformedCiphertext
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], nil)
}
