package jwt

import (
	"time"

	"github.com/axent-pl/josetoken/codec"
	"github.com/axent-pl/josetoken/metrics"
)

type packParams struct {
	kid     string
	owner   string
	encrypt *bool
	exp     *time.Time
	noExp   bool
	jti     string
}

// PackOption adjusts a single Pack call.
type PackOption func(*packParams)

// WithKid selects the signing key by id. Without it the first signing key
// the resolver returns is used.
func WithKid(kid string) PackOption {
	return func(p *packParams) { p.kid = kid }
}

// WithOwner signs with another owner's keyset instead of the local one.
func WithOwner(owner string) PackOption {
	return func(p *packParams) { p.owner = owner }
}

func WithEncrypt(encrypt bool) PackOption {
	return func(p *packParams) { p.encrypt = &encrypt }
}

func WithExpiration(exp time.Time) PackOption {
	return func(p *packParams) { p.exp = &exp; p.noExp = false }
}

func WithoutExpiration() PackOption {
	return func(p *packParams) { p.exp = nil; p.noExp = true }
}

func WithJTI(jti string) PackOption {
	return func(p *packParams) { p.jti = jti }
}

// Option configures a TokenIssuer.
type Option func(*TokenIssuer)

func WithCodec(c codec.Codec) Option {
	return func(iss *TokenIssuer) { iss.codec = c }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(iss *TokenIssuer) { iss.metrics = m }
}

// WithClock replaces the wall clock used for "iat".
func WithClock(now func() time.Time) Option {
	return func(iss *TokenIssuer) { iss.now = now }
}

func WithJTIGenerator(gen func() string) Option {
	return func(iss *TokenIssuer) { iss.newJTI = gen }
}
