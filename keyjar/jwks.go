package keyjar

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/axent-pl/josetoken/common/logx"
)

// jwksDocument is a JWKS extended with the optional "issuer" member, so
// a fetched set can name the owner it belongs to.
type jwksDocument struct {
	Issuer string             `json:"issuer,omitempty"`
	Keys   []jose.JSONWebKey `json:"keys"`
}

// ExportJWKS renders the public half of owner's asymmetric keys as a JWKS.
// Symmetric keys are never exported.
func (j *KeyJar) ExportJWKS(owner, issuer string) ([]byte, error) {
	doc := jwksDocument{Issuer: issuer, Keys: make([]jose.JSONWebKey, 0)}
	for _, k := range j.Keys(owner) {
		switch k.Public.(type) {
		case *rsa.PublicKey, *ecdsa.PublicKey:
		default:
			continue
		}
		doc.Keys = append(doc.Keys, jose.JSONWebKey{
			Key:   k.Public,
			KeyID: k.Kid,
			Use:   string(k.Use),
		})
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("could not marshal jwks: %w", err)
	}
	return out, nil
}

// rawJWKSDocument defers key decoding so one key of an unknown or
// unsupported type does not reject the whole set.
type rawJWKSDocument struct {
	Issuer string            `json:"issuer,omitempty"`
	Keys   []json.RawMessage `json:"keys"`
}

// ParseJWKS decodes a JWKS into public keys. It also returns the optional
// issuer member of the document. Symmetric keys and keys of a type the jar
// cannot hold are skipped; it fails only when no usable key is left.
func ParseJWKS(data []byte) ([]Key, string, error) {
	var doc rawJWKSDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("jwks decode failed: %w", err)
	}
	if len(doc.Keys) == 0 {
		return nil, doc.Issuer, errors.New("jwks contains no keys")
	}
	keys := make([]Key, 0, len(doc.Keys))
	for i, raw := range doc.Keys {
		var jwk jose.JSONWebKey
		if err := jwk.UnmarshalJSON(raw); err != nil {
			logx.L().Debug("skipping undecodable jwk", "index", i, "error", err)
			continue
		}
		if _, ok := jwk.Key.([]byte); ok {
			continue
		}
		if !jwk.IsPublic() {
			jwk = jwk.Public()
		}
		k, err := NewKey(jwk.KeyID, Use(jwk.Use), jwk.Key)
		if err != nil {
			logx.L().Debug("skipping unsupported jwk", "kid", jwk.KeyID, "error", err)
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, doc.Issuer, errors.New("no usable keys in jwks")
	}
	return keys, doc.Issuer, nil
}

// ImportJWKS adds the keys of a JWKS document to owner's keyset.
func (j *KeyJar) ImportJWKS(owner string, data []byte) error {
	keys, _, err := ParseJWKS(data)
	if err != nil {
		return err
	}
	j.Add(owner, keys...)
	return nil
}
