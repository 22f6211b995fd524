// Package daily derives the per-day keys used to pick and store the daily word.
package daily

import (
	"encoding/binary"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Layout is the calendar date format used for every daily key.
const Layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(Layout)
}

// ParseKey parses a YYYY-MM-DD key as a UTC date.
func ParseKey(key string) (time.Time, error) {
	return time.ParseInLocation(Layout, key, time.UTC)
}

// WordIndex returns a deterministic index for a date key using a BLAKE2b MAC
// keyed with salt, reduced modulo answersLen.
func WordIndex(dateKey, salt string, answersLen int) int {
	if answersLen <= 0 {
		return 0
	}
	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return 0
	}
	h.Write([]byte(dateKey))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for modulus distribution
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(answersLen))
}
