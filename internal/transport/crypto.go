package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// roomCipher seals sync frames with a key derived from the room's shared
// secret. It scopes and obscures room traffic on a shared relay; it is not
// a security boundary against a malicious household member.
type roomCipher struct {
	aead cipher.AEAD
}

// newRoomCipher derives an AES-256-GCM cipher from the secret using
// Argon2id. The room name salts the derivation so the same passphrase on
// two rooms yields different keys.
func newRoomCipher(secret, room string) (*roomCipher, error) {
	key := argon2.IDKey([]byte(secret), []byte("hearth/"+room), argonTime, argonMem, argonPar, keySize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &roomCipher{aead: aead}, nil
}

// Seal encrypts a frame payload. Output format: [12-byte nonce][ciphertext].
func (c *roomCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, nonceSize+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a sealed payload.
func (c *roomCipher) Open(data []byte) ([]byte, error) {
	if len(data) < nonceSize {
		return nil, fmt.Errorf("sealed payload too short: %d bytes", len(data))
	}
	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return plaintext, nil
}
