package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID32 returns exactly 32 lowercase hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewEventID returns an identifier for loan event rows. The "evt_" prefix
// keeps event ids distinguishable from loan ids in logs and dumps.
func NewEventID() string {
	return "evt_" + NewID32()
}
