package jwt

import (
	"fmt"
	"slices"
	"time"

	"github.com/axent-pl/josetoken/codec"
	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/common/sig"
)

const (
	DefaultSignAlg = sig.SigAlgRS256
	DefaultEncAlg  = "RSA-OAEP"
	DefaultEncEnc  = "A128CBC-HS256"
)

// Config is the issuer configuration. It is copied by New and never changed
// afterwards.
type Config struct {
	// Issuer is stamped into the "iss" claim of every packed token and
	// decides, on unpack, whether a token is verified with the local keyset.
	Issuer string
	// Lifetime is the default validity, in whole seconds. Packed tokens get
	// exp = iat + Lifetime unless exp is given explicitly or suppressed, so a
	// zero Lifetime yields exp == iat.
	Lifetime time.Duration
	SignAlg  sig.SigAlg
	// Encrypt wraps packed tokens in a JWE unless overridden per call.
	Encrypt bool
	EncAlg  string
	EncEnc  string
	// Shape describes the claim set. Nil means unpack returns the raw claims.
	Shape *Shape
}

func (c Config) withDefaults() Config {
	if c.SignAlg == sig.SigAlgUnknown {
		c.SignAlg = DefaultSignAlg
	}
	if c.EncAlg == "" {
		c.EncAlg = DefaultEncAlg
	}
	if c.EncEnc == "" {
		c.EncEnc = DefaultEncEnc
	}
	if c.Shape != nil {
		shape := *c.Shape
		shape.Required = slices.Clone(shape.Required)
		c.Shape = &shape
	}
	return c
}

func (c Config) Validate() error {
	if c.Lifetime < 0 {
		return fmt.Errorf("%w: negative lifetime", common.ErrInvalidConfig)
	}
	if c.Lifetime%time.Second != 0 {
		return fmt.Errorf("%w: lifetime %s is not a whole number of seconds", common.ErrInvalidConfig, c.Lifetime)
	}
	if _, err := c.SignAlg.ToGoJWT(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if _, err := codec.ParseKeyAlgorithm(c.EncAlg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if _, err := codec.ParseContentEncryption(c.EncEnc); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return nil
}
