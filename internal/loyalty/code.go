package loyalty

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet drops 0/O/1/I to keep codes readable over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// newCode returns a random discount code. Uniqueness against live codes is
// the caller's job; this only guarantees entropy.
func newCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("loyalty: generate code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
