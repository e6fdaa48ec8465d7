package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
)

// DefaultBits is the RSA modulus size used when none is configured.
const DefaultBits = 2048

// KeyPair holds the exported halves of a generated key.
type KeyPair struct {
	// PrivateKeyPEM is the PKCS#8 "PRIVATE KEY" PEM block.
	PrivateKeyPEM []byte
	// PublicKeyDER is the DER encoded SubjectPublicKeyInfo. Identifiers are
	// derived from these exact bytes.
	PublicKeyDER []byte
}

// Provider generates key pairs. Each call returns a fresh, independent pair.
type Provider interface {
	GenerateKeyPair() (KeyPair, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() (KeyPair, error)

// GenerateKeyPair calls f.
func (f ProviderFunc) GenerateKeyPair() (KeyPair, error) { return f() }

// RSAProvider generates RSA key pairs. The zero value generates DefaultBits
// keys from crypto/rand.
type RSAProvider struct {
	Bits int
	Rand io.Reader
}

// GenerateKeyPair generates and exports one RSA key pair.
func (p RSAProvider) GenerateKeyPair() (KeyPair, error) {
	bits := p.Bits
	if bits == 0 {
		bits = DefaultBits
	}
	random := p.Rand
	if random == nil {
		random = rand.Reader
	}

	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate rsa key: %w", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return KeyPair{}, fmt.Errorf("marshal private key: %w", err)
	}
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("marshal public key: %w", err)
	}

	return KeyPair{
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}),
		PublicKeyDER:  spki,
	}, nil
}
