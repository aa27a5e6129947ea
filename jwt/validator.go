package jwt

import (
	"context"
	"errors"
	"time"

	jwtx "github.com/golang-jwt/jwt/v5"

	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/common/logx"
	"github.com/axent-pl/josetoken/replay"
)

const DefaultReplayWindow = time.Hour

// Validator checks time, issuer, audience and replay constraints of claims
// returned by Unpack. It is a separate step so callers decide whether and
// how expiry is enforced.
type Validator struct {
	// Issuer, when set, must equal the "iss" claim.
	Issuer string
	// Audience, when set, must be one of the "aud" values.
	Audience string
	// Leeway for "exp" and "nbf" claims
	// See
	//
	// - https://datatracker.ietf.org/doc/html/rfc7519#section-4.1.4
	//
	// - https://datatracker.ietf.org/doc/html/rfc7519#section-4.1.5
	Leeway     time.Duration
	RequireExp bool
	// Replay, when set, rejects a "jti" seen before. Tokens without "exp"
	// are remembered for ReplayWindow (DefaultReplayWindow if zero).
	Replay       replay.Checker
	ReplayWindow time.Duration
	Now          func() time.Time
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v Validator) parserOptions() []jwtx.ParserOption {
	opts := []jwtx.ParserOption{jwtx.WithTimeFunc(v.now)}
	if v.Leeway > 0 {
		opts = append(opts, jwtx.WithLeeway(v.Leeway))
	}
	if v.Issuer != "" {
		opts = append(opts, jwtx.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwtx.WithAudience(v.Audience))
	}
	if v.RequireExp {
		opts = append(opts, jwtx.WithExpirationRequired())
	}
	return opts
}

func (v Validator) Validate(ctx context.Context, claims Claims) error {
	mapClaims := make(jwtx.MapClaims, len(claims))
	for k, val := range claims {
		mapClaims[k] = val
	}
	// golang-jwt reads NumericDate only from float64 or json.Number
	for _, name := range []string{"exp", "nbf", "iat"} {
		if secs, ok := numericDate(claims[name]); ok {
			mapClaims[name] = float64(secs)
		}
	}

	if err := jwtx.NewValidator(v.parserOptions()...).Validate(mapClaims); err != nil {
		logx.L().Debug("claims validation failed", "context", ctx, "error", err)
		return &common.TokenError{Kind: validationKind(err), Err: err}
	}

	if v.Replay != nil {
		return v.checkReplay(ctx, claims)
	}
	return nil
}

func (v Validator) checkReplay(ctx context.Context, claims Claims) error {
	jti, ok := claims.String("jti")
	if !ok || jti == "" {
		return &common.TokenError{Kind: common.ErrClaimMismatch, Err: errors.New("missing jti claim")}
	}
	expiresAt, ok := claims.Time("exp")
	if !ok {
		window := v.ReplayWindow
		if window <= 0 {
			window = DefaultReplayWindow
		}
		expiresAt = v.now().Add(window)
	}
	expiresAt = expiresAt.Add(v.Leeway)

	seen, err := v.Replay.Seen(ctx, jti, expiresAt)
	if err != nil {
		logx.L().Warn("replay check failed", "context", ctx, "error", err)
		return &common.TokenError{Kind: common.ErrInternal, Err: err}
	}
	if seen {
		logx.L().Debug("token replayed", "context", ctx, "jti", jti)
		return &common.TokenError{Kind: common.ErrTokenReplayed}
	}
	return nil
}

func validationKind(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwtx.ErrTokenNotValidYet), errors.Is(err, jwtx.ErrTokenUsedBeforeIssued):
		return common.ErrTokenNotYetValid
	default:
		return common.ErrClaimMismatch
	}
}
