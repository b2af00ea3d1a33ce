package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint identifies a client by its IP address and user agent.
// The result is a hex encoded SHA-256 digest, so raw addresses are never
// persisted.
func Fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(ip) + "|" + strings.TrimSpace(userAgent)))
	return hex.EncodeToString(sum[:])
}
