package media

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ContentDigest returns the hex BLAKE2b-256 digest of album content. The
// digest keys the local upload history for the duplicate pre-check.
func ContentDigest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
