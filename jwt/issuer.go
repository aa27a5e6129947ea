package jwt

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/axent-pl/josetoken/codec"
	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/common/logx"
	"github.com/axent-pl/josetoken/keyjar"
	"github.com/axent-pl/josetoken/metrics"
)

// nested JWT content type of the encryption layer
const contentTypeJWT = "JWT"

// TokenIssuer packs claims into signed, optionally encrypted, tokens and
// unpacks them again. It keeps no state besides its configuration and is
// safe for concurrent use; the key resolver is borrowed, never owned.
type TokenIssuer struct {
	cfg     Config
	keys    keyjar.Resolver
	codec   codec.Codec
	metrics *metrics.Collector
	now     func() time.Time
	newJTI  func() string
}

func New(cfg Config, keys keyjar.Resolver, opts ...Option) (*TokenIssuer, error) {
	if keys == nil {
		return nil, fmt.Errorf("%w: nil key resolver", common.ErrInvalidConfig)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	iss := &TokenIssuer{
		cfg:    cfg,
		keys:   keys,
		codec:  codec.New(),
		now:    time.Now,
		newJTI: randomJTI,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss, nil
}

// Pack builds a claim set from claims, signs it with the first matching
// signing key and, when encryption is in effect, wraps the signed token in
// a JWE addressed to the local encryption key.
//
// "iss" and "iat" are always set by the issuer. "exp" defaults to
// iat+Lifetime unless given explicitly (option or claim) or suppressed.
func (iss *TokenIssuer) Pack(ctx context.Context, claims Claims, opts ...PackOption) (token string, err error) {
	var p packParams
	for _, opt := range opts {
		opt(&p)
	}
	encrypt := iss.cfg.Encrypt
	if p.encrypt != nil {
		encrypt = *p.encrypt
	}

	started := time.Now()
	defer func() { iss.metrics.Observe(metrics.OpPack, encrypt, started, err) }()

	keys, err := iss.keys.SigningKeys(ctx, iss.cfg.SignAlg.KeyType(), p.owner, p.kid)
	if err != nil {
		logx.L().Debug("could not resolve signing keys", "context", ctx, "kid", p.kid, "owner", p.owner, "error", err)
		return "", &common.TokenError{Kind: common.ErrNoSuitableSigningKey, Kid: p.kid, Owner: p.owner, Err: err}
	}
	if len(keys) == 0 {
		logx.L().Debug("no signing key", "context", ctx, "kid", p.kid, "owner", p.owner)
		return "", &common.TokenError{Kind: common.ErrNoSuitableSigningKey, Kid: p.kid, Owner: p.owner}
	}
	// first match in resolver order; pass a kid when several keys qualify
	key := keys[0]

	header := make(map[string]any)
	if key.Kid != "" {
		header["kid"] = key.Kid
	}

	payload := iss.buildClaims(claims, p)
	signed, err := iss.codec.Sign(payload, header, key, iss.cfg.SignAlg)
	if err != nil {
		logx.L().Debug("could not sign token", "context", ctx, "kid", key.Kid, "error", err)
		return "", &common.TokenError{Kind: common.ErrInternal, Kid: key.Kid, Err: err}
	}
	if !encrypt {
		return signed, nil
	}
	return iss.encrypt(ctx, signed)
}

func (iss *TokenIssuer) buildClaims(claims Claims, p packParams) Claims {
	out := make(Claims, len(claims)+4)
	maps.Copy(out, claims)

	iat := iss.now().UTC().Unix()
	out["iss"] = iss.cfg.Issuer
	out["iat"] = iat

	switch {
	case p.noExp:
		delete(out, "exp")
	case p.exp != nil:
		out["exp"] = p.exp.Unix()
	case out["exp"] != nil:
		if secs, ok := numericDate(out["exp"]); ok {
			out["exp"] = secs
		}
	default:
		out["exp"] = iat + int64(iss.cfg.Lifetime/time.Second)
	}

	switch {
	case p.jti != "":
		out["jti"] = p.jti
	case iss.cfg.Shape == nil || !iss.cfg.Shape.JTI:
	case hasString(out, "jti"):
	default:
		out["jti"] = iss.newJTI()
	}
	return out
}

func (iss *TokenIssuer) encrypt(ctx context.Context, signed string) (string, error) {
	keys, err := iss.keys.EncryptionKeys(ctx, "")
	if err != nil || len(keys) == 0 {
		logx.L().Debug("no encryption key", "context", ctx, "error", err)
		return "", &common.TokenError{Kind: common.ErrUnresolvableKey, Err: err}
	}
	token, err := iss.codec.Encrypt([]byte(signed), keys, iss.cfg.EncAlg, iss.cfg.EncEnc, contentTypeJWT)
	if err != nil {
		logx.L().Debug("could not encrypt token", "context", ctx, "error", err)
		kind := common.ErrInternal
		if errors.Is(err, common.ErrUnresolvableKey) {
			kind = common.ErrUnresolvableKey
		}
		return "", &common.TokenError{Kind: kind, Err: err}
	}
	return token, nil
}

func hasString(c Claims, name string) bool {
	s, ok := c[name].(string)
	return ok && s != ""
}

func randomJTI() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
