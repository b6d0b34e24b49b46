package crypto

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2b"
)

// TokenDigest returns the BLAKE2b-256 digest of a token. Lookups compare
// digests so the comparison time does not depend on the token contents.
func TokenDigest(token string) [blake2b.Size256]byte {
	return blake2b.Sum256([]byte(token))
}

// TokensEqual compares two tokens in constant time. Empty tokens never match.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	da, db := TokenDigest(a), TokenDigest(b)
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}
