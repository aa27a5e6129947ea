package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/axent-pl/josetoken/codec"
	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/common/logx"
	"github.com/axent-pl/josetoken/common/sig"
	"github.com/axent-pl/josetoken/metrics"
)

// Unpack recovers the claims of a token produced by Pack, or by a
// counterparty whose keys the resolver knows. Encrypted tokens are decrypted
// first and the enclosed signed token is always verified; a token is never
// accepted on decryption alone.
//
// Unpack does not check "exp" or "nbf"; run a Validator on the result.
func (iss *TokenIssuer) Unpack(ctx context.Context, token string) (claims Claims, err error) {
	encrypted := false
	started := time.Now()
	defer func() { iss.metrics.Observe(metrics.OpUnpack, encrypted, started, err) }()

	if token == "" {
		logx.L().Debug("empty token", "context", ctx)
		return nil, &common.TokenError{Kind: common.ErrMissingToken}
	}

	if signed, ok := iss.codec.ParseSigned(token); ok {
		claims, err = iss.verify(ctx, signed)
	} else if enc, ok := iss.codec.ParseEncrypted(token); ok {
		encrypted = true
		claims, err = iss.decrypt(ctx, enc)
	} else {
		logx.L().Debug("token is neither JWS nor JWE", "context", ctx)
		return nil, &common.TokenError{Kind: common.ErrMalformedToken}
	}
	if err != nil {
		return nil, err
	}

	if iss.cfg.Shape != nil {
		if err := iss.cfg.Shape.check(claims); err != nil {
			logx.L().Debug("claims do not fit shape", "context", ctx, "error", err)
			return nil, &common.TokenError{Kind: common.ErrMalformedToken, Err: err}
		}
	}
	return claims, nil
}

// verify picks the verification keyset from the unverified "iss" claim: the
// local keyset for our own tokens, the claimed issuer's keyset otherwise.
func (iss *TokenIssuer) verify(ctx context.Context, signed *codec.Signed) (Claims, error) {
	claimed, ok := signed.Payload["iss"].(string)
	if !ok {
		logx.L().Debug("token has no issuer", "context", ctx)
		return nil, &common.TokenError{Kind: common.ErrMalformedToken, Kid: signed.Kid, Err: errors.New("missing iss claim")}
	}
	owner := claimed
	if claimed == iss.cfg.Issuer {
		owner = ""
	}

	alg, err := sig.FromJOSE(signed.Alg)
	if err != nil {
		logx.L().Debug("unsupported signature algorithm", "context", ctx, "alg", signed.Alg)
		return nil, &common.TokenError{Kind: common.ErrMalformedToken, Kid: signed.Kid, Err: err}
	}

	keys, err := iss.keys.VerificationKeys(ctx, alg.KeyType(), owner)
	if err != nil || len(keys) == 0 {
		logx.L().Debug("no verification key", "context", ctx, "issuer", claimed, "kid", signed.Kid, "error", err)
		return nil, &common.TokenError{Kind: common.ErrUnresolvableKey, Kid: signed.Kid, Owner: claimed, Err: err}
	}

	payload, err := iss.codec.Verify(signed, keys)
	if err != nil {
		logx.L().Debug("signature verification failed", "context", ctx, "issuer", claimed, "kid", signed.Kid, "error", err)
		kind := common.ErrSignatureInvalid
		if errors.Is(err, common.ErrMalformedToken) {
			kind = common.ErrMalformedToken
		}
		return nil, &common.TokenError{Kind: kind, Kid: signed.Kid, Owner: claimed, Err: err}
	}
	return Claims(payload), nil
}

func (iss *TokenIssuer) decrypt(ctx context.Context, enc *codec.Encrypted) (Claims, error) {
	keys, err := iss.keys.DecryptionKeys(ctx, "")
	if err != nil || len(keys) == 0 {
		logx.L().Debug("no decryption key", "context", ctx, "kid", enc.Kid, "error", err)
		return nil, &common.TokenError{Kind: common.ErrUnresolvableKey, Kid: enc.Kid, Err: err}
	}

	content, err := iss.codec.Decrypt(enc, keys)
	if err != nil {
		logx.L().Debug("could not decrypt token", "context", ctx, "kid", enc.Kid, "error", err)
		kind := common.ErrDecryptionFailed
		if errors.Is(err, common.ErrMalformedToken) {
			kind = common.ErrMalformedToken
		}
		return nil, &common.TokenError{Kind: kind, Kid: enc.Kid, Err: err}
	}

	inner, ok := iss.codec.ParseSigned(string(content))
	if !ok {
		logx.L().Debug("decrypted content is not a signed token", "context", ctx, "cty", enc.Cty)
		return nil, &common.TokenError{Kind: common.ErrMalformedToken, Kid: enc.Kid, Err: errors.New("encrypted content is not a JWS")}
	}
	return iss.verify(ctx, inner)
}
