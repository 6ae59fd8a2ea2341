package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns a stable hex digest, used wherever a secret id must not be stored or logged raw.
func HashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ShortHash is the first 12 hex characters of HashToken, for log correlation.
func ShortHash(s string) string {
	if s == "" {
		return ""
	}
	return HashToken(s)[:12]
}
