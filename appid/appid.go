// Package appid derives extension style identifiers from public keys.
package appid

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
)

// Alphabet holds the identifier symbols. Hex digit v maps to Alphabet[v].
const Alphabet = "abcdefghijklmnop"

// Length is the number of characters in an identifier.
const Length = 32

// Derive returns the identifier for a DER encoded SubjectPublicKeyInfo.
//
// The SHA-256 digest is rendered as hex and each hex digit is shifted into
// the letters a through p. Only the first Length digits are kept, which is
// the first half of the digest.
func Derive(spki []byte) string {
	sum := sha256.Sum256(spki)
	var id [Length]byte
	for i := 0; i < Length/2; i++ {
		id[2*i] = Alphabet[sum[i]>>4]
		id[2*i+1] = Alphabet[sum[i]&0x0f]
	}
	return string(id[:])
}

// FromPublicKey marshals pub as PKIX and derives its identifier.
func FromPublicKey(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return Derive(der), nil
}

// Valid reports whether id is a well-formed identifier.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 'a' || id[i] > 'p' {
			return false
		}
	}
	return true
}
