package config

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/axent-pl/josetoken/keyjar"
)

// KeyJar loads the configured key files into a new jar and starts a
// fetcher for every configured JWKS. Callers Close the fetchers on shutdown.
func (c *Config) KeyJar(ctx context.Context) (*keyjar.KeyJar, []*keyjar.JWKSFetcher, error) {
	jar := keyjar.New()
	for i, kc := range c.Keys {
		var password []byte
		if kc.PasswordEnv != "" {
			password = []byte(os.Getenv(kc.PasswordEnv))
		}
		key, err := keyjar.LoadPEMFile(kc.File, kc.Kid, kc.Use, password)
		if err != nil {
			return nil, nil, fmt.Errorf("keys[%d]: %w", i, err)
		}
		jar.Add(kc.Owner, key)
	}

	fetchers := make([]*keyjar.JWKSFetcher, 0, len(c.JWKS))
	closeAll := func() {
		for _, f := range fetchers {
			f.Close()
		}
	}
	for i, jc := range c.JWKS {
		u, err := url.Parse(jc.URL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("jwks[%d]: invalid url: %w", i, err)
		}
		f := &keyjar.JWKSFetcher{
			JWKSURL:         *u,
			Owner:           jc.Owner,
			Jar:             jar,
			RefreshInterval: jc.RefreshInterval,
		}
		fetchers = append(fetchers, f)
		if err := f.Start(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("jwks[%d]: %w", i, err)
		}
	}
	return jar, fetchers, nil
}
