package persist

import (
	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Checksum is the cheap running checksum stamped on every snapshot: fast
// enough to compute on autosave cadence, strong enough to catch a desynced
// peer or a corrupted save early.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest is the full-strength snapshot digest used by replay verification and
// host/client resync comparison, where "probably equal" is not good enough.
func Digest(data []byte) [32]byte {
	return blake2b.Sum256(data)
}
