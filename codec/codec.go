// Package codec serializes and parses compact JWS and JWE tokens and performs
// the raw signing and encryption operations on resolved keys.
package codec

import (
	"github.com/axent-pl/josetoken/common/sig"
	"github.com/axent-pl/josetoken/keyjar"
)

// Signed is a parsed, not yet verified, compact JWS.
type Signed struct {
	Raw     string
	Header  map[string]any
	Alg     string
	Kid     string
	Payload map[string]any
}

// Encrypted is a parsed compact JWE. Only the protected header is readable
// before decryption.
type Encrypted struct {
	Raw string
	Alg string
	Enc string
	Cty string
	Kid string

	decrypt func(key any) ([]byte, error)
}

type Codec interface {
	// ParseSigned reports false when token is not a compact JWS.
	ParseSigned(token string) (*Signed, bool)
	// ParseEncrypted reports false when token is not a compact JWE.
	ParseEncrypted(token string) (*Encrypted, bool)
	Sign(claims map[string]any, header map[string]any, key keyjar.Key, alg sig.SigAlg) (string, error)
	// Verify tries the candidate keys in order and returns the payload of
	// the first one that validates the signature.
	Verify(signed *Signed, keys []keyjar.Key) (map[string]any, error)
	Encrypt(content []byte, keys []keyjar.Key, alg, enc, cty string) (string, error)
	Decrypt(encrypted *Encrypted, keys []keyjar.Key) ([]byte, error)
}
