// Package hasher derives the pseudonymous actor fingerprints (namehashes)
// used throughout the forum core. The salt is generated at process start, so
// fingerprints rotate on every deployment and never reveal the underlying
// identity.
package hasher

import (
	"crypto/sha256"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns a random alphanumeric string of the given length.
func RandomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphanumeric[rand.Intn(len(alphanumeric))])
	}
	return b.String()
}

// RandomHasher hashes identities with a process-lifetime salt.
type RandomHasher struct {
	Salt      string
	StartTime time.Time
}

// New creates a hasher with a fresh random salt.
func New() *RandomHasher {
	return &RandomHasher{
		Salt:      RandomString(16),
		StartTime: time.Now(),
	}
}

// HashWithSalt returns the 16-character fingerprint of text under the
// current salt.
func (h *RandomHasher) HashWithSalt(text string) string {
	sum := sha256.Sum256([]byte(text + h.Salt))
	return fmt.Sprintf("%X", sum)[5:21]
}

// TmpToken returns the anonymous-session token prefix. It rotates every 15
// minutes so leaked tokens go stale quickly.
func (h *RandomHasher) TmpToken() string {
	return h.HashWithSalt(fmt.Sprintf("%d_%d",
		time.Now().Unix()/60/15,
		h.StartTime.Nanosecond()))
}

// Look renders an abbreviated fingerprint safe for log lines.
func Look(s string) string {
	if len(s) < 4 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[:2], s[len(s)-2:])
}
