package sig

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SigAlg represents a JWS signature algorithm
type SigAlg int

const (
	SigAlgUnknown SigAlg = iota

	// RSA PKCS#1 v1.5
	SigAlgRS256
	SigAlgRS384
	SigAlgRS512

	// ECDSA over P-256/384/512 (aka P-521) with SHA-2
	SigAlgES256
	SigAlgES384
	SigAlgES512

	// RSA-PSS
	SigAlgPS256
	SigAlgPS384
	SigAlgPS512

	// HMAC with SHA-2
	SigAlgHS256
	SigAlgHS384
	SigAlgHS512
)

// KeyType is the JWK "kty" a key must have to be usable with an algorithm.
type KeyType string

const (
	KeyTypeUnknown KeyType = ""
	KeyTypeRSA     KeyType = "RSA"
	KeyTypeEC      KeyType = "EC"
	KeyTypeOct     KeyType = "oct"
)

var algNames = map[SigAlg]string{
	SigAlgRS256: "RS256",
	SigAlgRS384: "RS384",
	SigAlgRS512: "RS512",
	SigAlgES256: "ES256",
	SigAlgES384: "ES384",
	SigAlgES512: "ES512",
	SigAlgPS256: "PS256",
	SigAlgPS384: "PS384",
	SigAlgPS512: "PS512",
	SigAlgHS256: "HS256",
	SigAlgHS384: "HS384",
	SigAlgHS512: "HS512",
}

func (sa SigAlg) String() string {
	if alg, ok := algNames[sa]; ok {
		return alg
	}
	return "unknown"
}

// KeyType maps the algorithm to the key type it signs with.
func (sa SigAlg) KeyType() KeyType {
	switch sa {
	case SigAlgRS256, SigAlgRS384, SigAlgRS512, SigAlgPS256, SigAlgPS384, SigAlgPS512:
		return KeyTypeRSA
	case SigAlgES256, SigAlgES384, SigAlgES512:
		return KeyTypeEC
	case SigAlgHS256, SigAlgHS384, SigAlgHS512:
		return KeyTypeOct
	default:
		return KeyTypeUnknown
	}
}

// ---------- JWT package ---
func (sa SigAlg) ToGoJWT() (jwt.SigningMethod, error) {
	mapping := map[SigAlg]jwt.SigningMethod{
		SigAlgRS256: jwt.SigningMethodRS256,
		SigAlgRS384: jwt.SigningMethodRS384,
		SigAlgRS512: jwt.SigningMethodRS512,
		SigAlgES256: jwt.SigningMethodES256,
		SigAlgES384: jwt.SigningMethodES384,
		SigAlgES512: jwt.SigningMethodES512,
		SigAlgPS256: jwt.SigningMethodPS256,
		SigAlgPS384: jwt.SigningMethodPS384,
		SigAlgPS512: jwt.SigningMethodPS512,
		SigAlgHS256: jwt.SigningMethodHS256,
		SigAlgHS384: jwt.SigningMethodHS384,
		SigAlgHS512: jwt.SigningMethodHS512,
	}
	if alg, ok := mapping[sa]; ok {
		return alg, nil
	}
	return nil, fmt.Errorf("unknown alg: %s", sa)
}

// FromJOSE parses the "alg" header value. "none" is never accepted.
func FromJOSE(s string) (SigAlg, error) {
	for alg, name := range algNames {
		if name == s {
			return alg, nil
		}
	}
	return SigAlgUnknown, fmt.Errorf("unknown alg: %q", s)
}

func (sa SigAlg) ToJOSE() (string, error) {
	if alg, ok := algNames[sa]; ok {
		return alg, nil
	}
	return "unknown", fmt.Errorf("unknown alg: %s", sa)
}

// MarshalText and UnmarshalText let SigAlg be used directly in config files.
func (sa SigAlg) MarshalText() ([]byte, error) {
	s, err := sa.ToJOSE()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (sa *SigAlg) UnmarshalText(b []byte) error {
	alg, err := FromJOSE(string(b))
	if err != nil {
		return err
	}
	*sa = alg
	return nil
}
