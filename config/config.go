// Package config loads the issuer configuration and its key material from a
// YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/common/logx"
	"github.com/axent-pl/josetoken/common/sig"
	"github.com/axent-pl/josetoken/jwt"
	"github.com/axent-pl/josetoken/keyjar"
)

const envPrefix = "JOSETOKEN_"

// Config is the on-disk configuration.
type Config struct {
	Issuer     IssuerConfig     `yaml:"issuer"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Keys       []KeyConfig      `yaml:"keys"`
	JWKS       []JWKSConfig     `yaml:"jwks"`
}

type IssuerConfig struct {
	ID       string        `yaml:"id"`
	Lifetime time.Duration `yaml:"lifetime"`
	SignAlg  sig.SigAlg    `yaml:"sign_alg"`
	// Shape is "jwt" for the RFC 7519 claim set or empty for raw claims.
	Shape string `yaml:"shape"`
}

type EncryptionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Alg     string `yaml:"alg"`
	Enc     string `yaml:"enc"`
}

// KeyConfig points to a PEM key file. Owner "" is the local keyset.
type KeyConfig struct {
	Owner       string     `yaml:"owner"`
	Kid         string     `yaml:"kid"`
	Use         keyjar.Use `yaml:"use"`
	File        string     `yaml:"file"`
	PasswordEnv string     `yaml:"password_env"`
}

// JWKSConfig is a remote keyset of a counterparty. Without Owner the keys
// are filed under the "issuer" the document names, so only leave it empty
// for endpoints trusted to name themselves.
type JWKSConfig struct {
	Owner           string        `yaml:"owner"`
	URL             string        `yaml:"url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// Load reads the file, applies JOSETOKEN_* environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if id := os.Getenv(envPrefix + "ISSUER"); id != "" {
		cfg.Issuer.ID = id
	}
	if lifetime := os.Getenv(envPrefix + "LIFETIME"); lifetime != "" {
		d, err := time.ParseDuration(lifetime)
		if err != nil {
			logx.L().Warn("invalid lifetime override, keeping file value", "env", envPrefix+"LIFETIME", "value", lifetime, "error", err)
		} else {
			cfg.Issuer.Lifetime = d
		}
	}
	if alg := os.Getenv(envPrefix + "SIGN_ALG"); alg != "" {
		if err := cfg.Issuer.SignAlg.UnmarshalText([]byte(alg)); err != nil {
			logx.L().Warn("invalid sign_alg override, keeping file value", "env", envPrefix+"SIGN_ALG", "value", alg, "error", err)
		}
	}
	if enabled := os.Getenv(envPrefix + "ENCRYPT"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			logx.L().Warn("invalid encrypt override, keeping file value", "env", envPrefix+"ENCRYPT", "value", enabled, "error", err)
		} else {
			cfg.Encryption.Enabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Issuer.SignAlg == sig.SigAlgUnknown {
		c.Issuer.SignAlg = jwt.DefaultSignAlg
	}
	if c.Encryption.Alg == "" {
		c.Encryption.Alg = jwt.DefaultEncAlg
	}
	if c.Encryption.Enc == "" {
		c.Encryption.Enc = jwt.DefaultEncEnc
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Issuer.ID == "" {
		errs = append(errs, errors.New("issuer.id is required"))
	}
	switch c.Issuer.Shape {
	case "", "jwt":
	default:
		errs = append(errs, fmt.Errorf("unknown issuer.shape %q", c.Issuer.Shape))
	}
	if err := c.TokenConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, k := range c.Keys {
		if k.File == "" {
			errs = append(errs, fmt.Errorf("keys[%d]: file is required", i))
		}
		switch k.Use {
		case keyjar.UseAny, keyjar.UseSig, keyjar.UseEnc:
		default:
			errs = append(errs, fmt.Errorf("keys[%d]: unknown use %q", i, k.Use))
		}
	}
	for i, j := range c.JWKS {
		if j.URL == "" {
			errs = append(errs, fmt.Errorf("jwks[%d]: url is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// TokenConfig converts the file configuration into the token issuer config.
func (c *Config) TokenConfig() jwt.Config {
	out := jwt.Config{
		Issuer:   c.Issuer.ID,
		Lifetime: c.Issuer.Lifetime,
		SignAlg:  c.Issuer.SignAlg,
		Encrypt:  c.Encryption.Enabled,
		EncAlg:   c.Encryption.Alg,
		EncEnc:   c.Encryption.Enc,
	}
	if c.Issuer.Shape == "jwt" {
		shape := jwt.JWTShape
		out.Shape = &shape
	}
	return out
}
