package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps a user ID, which may contain ':' and other characters
// unfriendly to object keys, to a stable 64-char hex string.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
