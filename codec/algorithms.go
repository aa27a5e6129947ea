package codec

import (
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/axent-pl/josetoken/common/sig"
)

var keyAlgorithms = []jose.KeyAlgorithm{
	jose.RSA_OAEP,
	jose.RSA_OAEP_256,
	jose.ECDH_ES,
	jose.ECDH_ES_A128KW,
	jose.ECDH_ES_A192KW,
	jose.ECDH_ES_A256KW,
	jose.A128KW,
	jose.A192KW,
	jose.A256KW,
	jose.A128GCMKW,
	jose.A192GCMKW,
	jose.A256GCMKW,
	jose.DIRECT,
}

var contentEncryptions = []jose.ContentEncryption{
	jose.A128GCM,
	jose.A192GCM,
	jose.A256GCM,
	jose.A128CBC_HS256,
	jose.A192CBC_HS384,
	jose.A256CBC_HS512,
}

// ParseKeyAlgorithm maps a JWE "alg" value to its go-jose constant.
func ParseKeyAlgorithm(alg string) (jose.KeyAlgorithm, error) {
	for _, a := range keyAlgorithms {
		if string(a) == alg {
			return a, nil
		}
	}
	return "", fmt.Errorf("unsupported key algorithm: %s", alg)
}

// ParseContentEncryption maps a JWE "enc" value to its go-jose constant.
func ParseContentEncryption(enc string) (jose.ContentEncryption, error) {
	for _, e := range contentEncryptions {
		if string(e) == enc {
			return e, nil
		}
	}
	return "", fmt.Errorf("unsupported content encryption algorithm: %s", enc)
}

// KeyTypeFor returns the key type a JWE key management algorithm wraps with.
func KeyTypeFor(alg jose.KeyAlgorithm) sig.KeyType {
	switch alg {
	case jose.RSA_OAEP, jose.RSA_OAEP_256:
		return sig.KeyTypeRSA
	case jose.ECDH_ES, jose.ECDH_ES_A128KW, jose.ECDH_ES_A192KW, jose.ECDH_ES_A256KW:
		return sig.KeyTypeEC
	case jose.A128KW, jose.A192KW, jose.A256KW, jose.A128GCMKW, jose.A192GCMKW, jose.A256GCMKW, jose.DIRECT:
		return sig.KeyTypeOct
	default:
		return sig.KeyTypeUnknown
	}
}
