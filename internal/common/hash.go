package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex hashes input with SHA-256 and returns the lowercase hex digest.
// Used to keep raw idempotency keys out of Redis.
func Sha256Hex(input string) string {
	digest := sha256.Sum256([]byte(input))
	return hex.EncodeToString(digest[:])
}
