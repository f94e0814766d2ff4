package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// refreshSecretBytes is the entropy of a raw refresh secret (256 bits).
const refreshSecretBytes = 32

// NewRefreshSecret generates a high-entropy random refresh secret. The raw
// secret exists only here and in the response to the client; everything
// persisted is its hash.
func NewRefreshSecret() (string, error) {
	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashRefreshSecret returns the SHA-256 hash of the raw secret, hex-encoded.
// Used for storing and looking up refresh tokens without storing the secret.
func HashRefreshSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// RefreshSecretHashEqual compares the provided secret's hash with the stored
// hash in constant time.
func RefreshSecretHashEqual(secret, storedHash string) bool {
	providedHash := HashRefreshSecret(secret)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
