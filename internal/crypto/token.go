package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// TokenPrefix marks all gateway-issued bearer secrets.
const TokenPrefix = "tgk_"

// tokenEntropy is the number of random bytes behind each secret.
const tokenEntropy = 32

// displayLen is how many leading characters of the secret are kept as a
// non-secret display prefix.
const displayLen = 12

// NewTokenSecret generates a fresh bearer secret and returns the plaintext
// secret, its display prefix and its lookup hash. The plaintext is returned
// exactly once and only the hash is ever stored.
func NewTokenSecret() (secret, prefix string, hash []byte, err error) {
	raw, err := RandBytes(tokenEntropy)
	if err != nil {
		return "", "", nil, err
	}
	secret = TokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return secret, secret[:displayLen], HashTokenSecret(secret), nil
}

// HashTokenSecret returns the deterministic lookup hash of a bearer secret.
// SHA-256 of the full secret string: the secret itself carries the entropy,
// so no salt or slow KDF is needed here.
func HashTokenSecret(secret string) []byte {
	h := sha256.Sum256([]byte(secret))
	return h[:]
}

// EqualSecret compares two secrets in constant time.
func EqualSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
