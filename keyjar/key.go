package keyjar

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/axent-pl/josetoken/common/sig"
)

// Use restricts what a key may be used for. The empty Use allows both.
type Use string

const (
	UseAny Use = ""
	UseSig Use = "sig"
	UseEnc Use = "enc"
)

// Key is a resolved key handle. Private is nil for public-only keys; for
// symmetric keys Private and Public hold the same secret.
type Key struct {
	Kid     string
	Type    sig.KeyType
	Use     Use
	Private crypto.PrivateKey
	Public  crypto.PublicKey
}

// NewKey wraps a crypto key, inferring its type and public half.
// Accepted: *rsa.PrivateKey, *rsa.PublicKey, *ecdsa.PrivateKey,
// *ecdsa.PublicKey and []byte (symmetric secret).
func NewKey(kid string, use Use, key any) (Key, error) {
	k := Key{Kid: kid, Use: use}
	switch v := key.(type) {
	case *rsa.PrivateKey:
		k.Type, k.Private, k.Public = sig.KeyTypeRSA, v, &v.PublicKey
	case *rsa.PublicKey:
		k.Type, k.Public = sig.KeyTypeRSA, v
	case *ecdsa.PrivateKey:
		k.Type, k.Private, k.Public = sig.KeyTypeEC, v, &v.PublicKey
	case *ecdsa.PublicKey:
		k.Type, k.Public = sig.KeyTypeEC, v
	case []byte:
		if len(v) == 0 {
			return Key{}, errors.New("empty symmetric key")
		}
		k.Type, k.Private, k.Public = sig.KeyTypeOct, v, v
	case nil:
		return Key{}, errors.New("nil key")
	default:
		return Key{}, fmt.Errorf("unsupported key type: %T", key)
	}
	return k, nil
}

// MustKey is NewKey for statically known keys; it panics on error.
func MustKey(kid string, use Use, key any) Key {
	k, err := NewKey(kid, use, key)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) IsPrivate() bool { return k.Private != nil }

// PublicOnly drops the private half. Symmetric keys have no public half and
// are returned unchanged.
func (k Key) PublicOnly() Key {
	if k.Type == sig.KeyTypeOct {
		return k
	}
	k.Private = nil
	return k
}

func (k Key) usableFor(use Use) bool {
	return k.Use == UseAny || k.Use == use
}
