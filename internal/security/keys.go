package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidKey is returned when PEM or key type is invalid.
var ErrInvalidKey = errors.New("invalid key")

// loadPEM reads content from path if s does not look like inline PEM; otherwise returns s as bytes.
func loadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	return os.ReadFile(s)
}

// ParseKeyPair parses a PEM private/public key pair (inline PEM or file paths)
// and returns the signer, the public key, and the JWS algorithm the pair signs
// with. Only RSA (RS256) and ECDSA P-256 (ES256) are accepted; anything else
// is rejected rather than signed with a guessed algorithm.
func ParseKeyPair(privatePEM, publicPEM string) (crypto.Signer, crypto.PublicKey, string, error) {
	signer, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, nil, "", fmt.Errorf("private key: %w", err)
	}
	pub, err := parsePublicKey(publicPEM)
	if err != nil {
		return nil, nil, "", fmt.Errorf("public key: %w", err)
	}
	alg := keyAlg(pub)
	if alg == "" {
		return nil, nil, "", fmt.Errorf("unsupported key type: %w", ErrInvalidKey)
	}
	if keyAlg(signer.Public()) != alg {
		return nil, nil, "", fmt.Errorf("key pair mismatch: %w", ErrInvalidKey)
	}
	return signer, pub, alg, nil
}

func parsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := loadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

func parsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := loadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// keyAlg returns "RS256" for RSA and "ES256" for ECDSA P-256; empty otherwise.
func keyAlg(pub crypto.PublicKey) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		if k.Curve == elliptic.P256() {
			return "ES256"
		}
		return ""
	default:
		return ""
	}
}
