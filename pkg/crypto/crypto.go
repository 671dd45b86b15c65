// Package crypto provides the hashing and curve checks used by the
// migrator runtime.
//
// The package implements SHA256 hashing compatible with Solana's hashv
// and the Ed25519 curve membership test used during program-derived
// address search. Addresses produced by PDA derivation must not be valid
// curve points, which guarantees no private key exists for them; the
// check here performs real point decompression rather than a heuristic.
package crypto

import (
	"crypto/sha256"

	"filippo.io/edwards25519"
)

// HashSize is the size of a SHA256 hash in bytes.
const HashSize = 32

// Hash computes the SHA256 hash of the input data.
func Hash(data []byte) [HashSize]byte {
	return sha256.Sum256(data)
}

// Hashv computes the SHA256 hash of a slice of byte slices.
// This is equivalent to Solana's hashv function and is used for
// computing hashes over multiple pieces of data in a deterministic way.
func Hashv(slices [][]byte) [HashSize]byte {
	h := sha256.New()
	for _, s := range slices {
		h.Write(s)
	}
	var result [HashSize]byte
	copy(result[:], h.Sum(nil))
	return result
}

// IsOnCurve reports whether the 32-byte value decompresses to a valid
// Ed25519 curve point. Values on the curve correspond to possible public
// keys; program-derived addresses must fail this test.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
