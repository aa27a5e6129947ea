package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/go-jose/go-jose/v4"
	jwtx "github.com/golang-jwt/jwt/v5"

	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/common/sig"
	"github.com/axent-pl/josetoken/keyjar"
)

// JOSE is the default Codec: JWS through golang-jwt, JWE through go-jose.
// It is stateless and safe for concurrent use.
type JOSE struct{}

var _ Codec = JOSE{}

func New() JOSE { return JOSE{} }

func (JOSE) ParseSigned(token string) (*Signed, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	parser := jwtx.NewParser()
	claims := jwtx.MapClaims{}
	unverified, _, err := parser.ParseUnverified(token, claims)
	if err != nil || unverified == nil {
		return nil, false
	}
	alg, _ := unverified.Header["alg"].(string)
	if alg == "" {
		return nil, false
	}
	kid, _ := unverified.Header["kid"].(string)
	return &Signed{
		Raw:     token,
		Header:  unverified.Header,
		Alg:     alg,
		Kid:     kid,
		Payload: map[string]any(claims),
	}, true
}

type protectedHeader struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
	Cty string `json:"cty,omitempty"`
	Kid string `json:"kid,omitempty"`
}

func (JOSE) ParseEncrypted(token string) (*Encrypted, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return nil, false
	}
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	var header protectedHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, false
	}
	object, err := jose.ParseEncrypted(token, keyAlgorithms, contentEncryptions)
	if err != nil {
		return nil, false
	}
	return &Encrypted{
		Raw:     token,
		Alg:     header.Alg,
		Enc:     header.Enc,
		Cty:     header.Cty,
		Kid:     header.Kid,
		decrypt: object.Decrypt,
	}, true
}

func (JOSE) Sign(claims map[string]any, header map[string]any, key keyjar.Key, alg sig.SigAlg) (string, error) {
	if !key.IsPrivate() {
		return "", errors.New("could not sign payload: key has no private part")
	}
	if key.Type != alg.KeyType() {
		return "", fmt.Errorf("could not sign payload: %s key cannot sign %s", key.Type, alg)
	}
	signingMethod, err := alg.ToGoJWT()
	if err != nil {
		return "", fmt.Errorf("could not sign payload: %w", err)
	}

	token := jwtx.NewWithClaims(signingMethod, jwtx.MapClaims(maps.Clone(claims)))
	for k, v := range header {
		if k == "alg" {
			continue
		}
		token.Header[k] = v
	}

	tokenString, err := token.SignedString(key.Private)
	if err != nil {
		return "", fmt.Errorf("could not sign payload: %w", err)
	}
	return tokenString, nil
}

func (JOSE) Verify(signed *Signed, keys []keyjar.Key) (map[string]any, error) {
	if signed == nil {
		return nil, common.ErrMalformedToken
	}
	candidates := matchKid(keys, signed.Kid)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate key for kid %q", common.ErrSignatureInvalid, signed.Kid)
	}

	// exp/nbf are checked by the caller, not here
	parser := jwtx.NewParser(
		jwtx.WithValidMethods([]string{signed.Alg}),
		jwtx.WithoutClaimsValidation(),
	)
	var lastErr error
	for _, k := range candidates {
		claims := jwtx.MapClaims{}
		token, err := parser.ParseWithClaims(signed.Raw, claims, func(*jwtx.Token) (any, error) {
			return k.Public, nil
		})
		if err != nil {
			lastErr = err
			continue
		}
		if token == nil || !token.Valid {
			lastErr = errors.New("token is invalid")
			continue
		}
		return map[string]any(claims), nil
	}
	return nil, fmt.Errorf("%w: %v", common.ErrSignatureInvalid, lastErr)
}

func (JOSE) Encrypt(content []byte, keys []keyjar.Key, alg, enc, cty string) (string, error) {
	keyAlg, err := ParseKeyAlgorithm(alg)
	if err != nil {
		return "", err
	}
	contentEnc, err := ParseContentEncryption(enc)
	if err != nil {
		return "", err
	}

	want := KeyTypeFor(keyAlg)
	var recipient *jose.Recipient
	for _, k := range keys {
		if k.Type == want && k.Public != nil {
			recipient = &jose.Recipient{Algorithm: keyAlg, Key: k.Public, KeyID: k.Kid}
			break
		}
	}
	if recipient == nil {
		return "", fmt.Errorf("%w: no %s key for %s", common.ErrUnresolvableKey, want, alg)
	}

	opts := &jose.EncrypterOptions{Compression: jose.NONE}
	if cty != "" {
		opts = opts.WithContentType(jose.ContentType(cty))
	}
	encrypter, err := jose.NewEncrypter(contentEnc, *recipient, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create encrypter: %w", err)
	}
	object, err := encrypter.Encrypt(content)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	serialized, err := object.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize JWE: %w", err)
	}
	return serialized, nil
}

func (JOSE) Decrypt(encrypted *Encrypted, keys []keyjar.Key) ([]byte, error) {
	if encrypted == nil || encrypted.decrypt == nil {
		return nil, common.ErrMalformedToken
	}
	keyAlg, err := ParseKeyAlgorithm(encrypted.Alg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
	want := KeyTypeFor(keyAlg)

	var lastErr error = errors.New("no candidate key")
	for _, k := range matchKid(keys, encrypted.Kid) {
		if k.Type != want || !k.IsPrivate() {
			continue
		}
		plaintext, err := encrypted.decrypt(k.Private)
		if err != nil {
			lastErr = err
			continue
		}
		return plaintext, nil
	}
	return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, lastErr)
}

// matchKid narrows keys to those with the given kid. Keys without a kid stay
// eligible; an empty kid keeps every key.
func matchKid(keys []keyjar.Key, kid string) []keyjar.Key {
	if kid == "" {
		return keys
	}
	out := make([]keyjar.Key, 0, len(keys))
	for _, k := range keys {
		if k.Kid == "" || k.Kid == kid {
			out = append(out, k)
		}
	}
	return out
}
