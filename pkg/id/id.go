// Package id provides sortable ID generation utilities.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U to avoid confusion).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewULID generates a ULID (Universally Unique Lexicographically Sortable Identifier).
// Returns a 26-character string: 10 chars timestamp (48-bit ms) + 16 chars random (80-bit).
func NewULID() string {
	ms := uint64(time.Now().UnixMilli())
	return encode(ms, 10, randomBytes(10), 16)
}

// NewShortID generates a shorter sortable ID.
// Returns a 16-character string: 6 chars timestamp + 10 chars random.
// The timestamp keeps the lower 30 bits of milliseconds, so ordering wraps roughly every 12 days.
func NewShortID() string {
	ms := uint64(time.Now().UnixMilli()) & 0x3FFFFFFF
	return encode(ms, 6, randomBytes(6), 10)
}

// NewCorrelationID returns a ShortID prefixed with kind, e.g. "KONTAKT-01HZX3K7F9QW2E4R".
// An empty kind yields a bare ShortID.
func NewCorrelationID(kind string) string {
	if kind == "" {
		return NewShortID()
	}
	return kind + "-" + NewShortID()
}

func randomBytes(n int) []byte {
	b := make([]byte, max(n, 8))
	if _, err := rand.Read(b); err != nil {
		// Fallback: use time-based entropy (degraded but functional)
		binary.BigEndian.PutUint64(b, uint64(time.Now().UnixNano()))
	}
	return b[:n]
}

// encode writes tsChars base32 digits of ts followed by randChars digits
// taken MSB-first from random. A trailing partial digit is zero-padded.
func encode(ts uint64, tsChars int, random []byte, randChars int) string {
	out := make([]byte, 0, tsChars+randChars)
	for i := tsChars - 1; i >= 0; i-- {
		out = append(out, crockfordBase32[(ts>>(uint(i)*5))&0x1F])
	}

	var acc, bits uint
	for _, b := range random {
		acc = acc<<8 | uint(b)
		bits += 8
		for bits >= 5 && len(out) < cap(out) {
			bits -= 5
			out = append(out, crockfordBase32[(acc>>bits)&0x1F])
		}
		acc &= (1 << bits) - 1
	}
	if bits > 0 && len(out) < cap(out) {
		out = append(out, crockfordBase32[(acc<<(5-bits))&0x1F])
	}

	return string(out)
}
