// Package secretbox encrypts workspace backend secrets at rest. The key is
// derived once from a deployment-wide master secret; every record gets a
// fresh random nonce.
package secretbox

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	pkgcrypto "github.com/and161185/ticketgate/internal/crypto"
	"github.com/and161185/ticketgate/internal/errs"
)

// keyInfo pins the derived key to this purpose; changing it invalidates all
// stored ciphertexts.
const keyInfo = "ticketgate/workspace-secret/v1"

const keyLen = 32

// Box holds the derived AEAD key. A nil *Box is a valid "not configured"
// state: all operations fail closed with errs.ErrNotConfigured.
type Box struct {
	key []byte
}

// New derives the AEAD key from the deployment master secret. An empty
// master secret returns nil: encryption is unconfigured, not weakened.
func New(masterSecret string) (*Box, error) {
	if masterSecret == "" {
		return nil, nil
	}
	r := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(keyInfo))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return &Box{key: key}, nil
}

// Seal encrypts plaintext with XChaCha20-Poly1305 under a fresh random nonce
// and returns ciphertext and nonce separately for storage.
func (b *Box) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	if b == nil {
		return nil, nil, errs.ErrNotConfigured
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return nil, nil, err
	}
	nonce, err = pkgcrypto.RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open decrypts a stored ciphertext. Any failure (wrong key, truncated
// nonce, tampered ciphertext) is reported identically.
func (b *Box) Open(ciphertext, nonce []byte) ([]byte, error) {
	if b == nil {
		return nil, errs.ErrNotConfigured
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, errors.New("secretbox: bad nonce")
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}
