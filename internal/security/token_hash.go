package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenFingerprint returns the hex SHA-256 of a bearer token. Used as a cache key so raw
// tokens never leave the primary store.
func TokenFingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
