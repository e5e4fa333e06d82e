// Package otp generates the one-time codes and opaque capability tokens
// used by account verification and password reset.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

// Generate returns a 6-digit numeric code in [100000, 999999].
func Generate() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the system entropy source is broken;
		// nothing sensible can continue from that.
		panic(err)
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String()
}

// CapabilityToken returns a 32-byte random token, hex encoded.
func CapabilityToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Equal compares two codes in constant time.
func Equal(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
