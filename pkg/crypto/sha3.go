// sha3.go wraps SHA3-256, the hash used for block addressing, master-key
// derivation, and identity seed expansion throughout Zault.
package crypto

import (
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/pzverkov/zault/internal/constants"
)

// NewHasher returns a fresh SHA3-256 hash.Hash.
func NewHasher() hash.Hash {
	return sha3.New256()
}

// Hash256 returns the SHA3-256 digest of data.
func Hash256(data []byte) [constants.HashSize]byte {
	h := NewHasher()
	h.Write(data)
	var out [constants.HashSize]byte
	h.Sum(out[:0])
	return out
}

// DomainHash computes SHA3-256(domain || input) — the concatenation-based
// domain separation spec.md uses for master-key and identity derivation.
// Unlike a length-prefixed KDF, the domain string and input are simply
// concatenated; callers must pick domain strings that cannot be confused
// with a prefix of another domain plus different input (Zault's domain
// strings are fixed, named constants rather than caller-supplied).
func DomainHash(domain string, inputs ...[]byte) [constants.HashSize]byte {
	h := NewHasher()
	h.Write([]byte(domain))
	for _, in := range inputs {
		h.Write(in)
	}
	var out [constants.HashSize]byte
	h.Sum(out[:0])
	return out
}
