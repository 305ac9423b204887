package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the secretbox key length in bytes.
const KeySize = 32

const nonceSize = 24

// ErrSealedTokenCorrupt is returned when a stored token fails authentication.
var ErrSealedTokenCorrupt = errors.New("stored bearer token failed to decrypt")

// Sealer encrypts bearer tokens before they reach the database.
type Sealer struct {
	key [KeySize]byte
}

// NewSealer builds a Sealer from a 32-byte key.
func NewSealer(key [KeySize]byte) *Sealer {
	return &Sealer{key: key}
}

// ParseKey decodes a 64-character hex key.
// PRE: none
// POST: Returns an error unless s decodes to exactly KeySize bytes
func ParseKey(s string) ([KeySize]byte, error) {
	var key [KeySize]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("session key: %w", err)
	}
	if len(raw) != KeySize {
		return key, fmt.Errorf("session key must be %d bytes (%d hex chars), got %d bytes", KeySize, KeySize*2, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// RandomKey returns a fresh key. Sessions sealed with it do not survive a restart.
func RandomKey() ([KeySize]byte, error) {
	var key [KeySize]byte
	_, err := io.ReadFull(rand.Reader, key[:])
	return key, err
}

// Seal encrypts plaintext and returns base64(nonce || box).
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("seal nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal.
// POST: Returns ErrSealedTokenCorrupt for tampered data or a different key
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrSealedTokenCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrSealedTokenCorrupt
	}
	return string(plain), nil
}
