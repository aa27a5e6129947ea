package keyjar

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
)

var ErrNoPEMKey = errors.New("no key found in PEM data")

// ParsePEM decodes the first key block found in data. Private keys may be
// PKCS#1, SEC1 or PKCS#8; "ENCRYPTED PRIVATE KEY" blocks are decrypted with
// password. Public keys may be PKIX or PKCS#1.
func ParsePEM(data []byte, password []byte) (any, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, ErrNoPEMKey
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			return x509.ParseECPrivateKey(block.Bytes)
		case "PRIVATE KEY":
			return pkcs8.ParsePKCS8PrivateKey(block.Bytes)
		case "ENCRYPTED PRIVATE KEY":
			if len(password) == 0 {
				return nil, errors.New("encrypted private key requires a password")
			}
			key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, password)
			if err != nil {
				return nil, fmt.Errorf("failed to parse PKCS#8: %w", err)
			}
			return key, nil
		case "PUBLIC KEY":
			return x509.ParsePKIXPublicKey(block.Bytes)
		case "RSA PUBLIC KEY":
			return x509.ParsePKCS1PublicKey(block.Bytes)
		}
	}
}

// LoadPEMFile reads a PEM file and wraps its key.
func LoadPEMFile(path, kid string, use Use, password []byte) (Key, error) {
	// #nosec G304 - key file path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return Key{}, fmt.Errorf("could not read key file: %w", err)
	}
	raw, err := ParsePEM(data, password)
	if err != nil {
		return Key{}, fmt.Errorf("%s: %w", path, err)
	}
	return NewKey(kid, use, raw)
}

// EncodePEM renders a private key as PKCS#8 PEM, encrypted when password
// is non-empty.
func EncodePEM(k Key, password []byte) ([]byte, error) {
	if !k.IsPrivate() {
		return nil, errors.New("key has no private part")
	}
	if len(password) == 0 {
		password = nil
	}
	der, err := pkcs8.MarshalPrivateKey(k.Private, password, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PKCS#8: %w", err)
	}
	blockType := "PRIVATE KEY"
	if password != nil {
		blockType = "ENCRYPTED PRIVATE KEY"
	}
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), nil
}
