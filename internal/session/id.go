package session

import (
	"crypto/rand"
	"encoding/binary"
)

// NewID generates a random session ID in [0, MaxInt64], so it can be stored
// in a signed 64-bit SQLite column alongside the other entity IDs drawn from
// the same space.
func NewID() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return binary.BigEndian.Uint64(b[:]) &^ (1 << 63)
}
