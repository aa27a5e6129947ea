package keyjar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/axent-pl/josetoken/common/logx"
)

// JWKSFetcher keeps a counterparty's keyset in a KeyJar in sync with its
// published JWKS. When Owner is empty the "issuer" member of the document
// is used as owner, which trusts the endpoint to name itself: it may claim
// any issuer, including one another fetcher or static key file fills. Set
// Owner for endpoints that are not trusted that far.
type JWKSFetcher struct {
	JWKSURL         url.URL
	Owner           string
	Jar             *KeyJar
	Client          *http.Client  // optional; defaults to http.DefaultClient
	RefreshInterval time.Duration // RefreshInterval <= 0 disables background refresh

	mu        sync.RWMutex
	lastErr   error
	etag      string
	lastMod   string
	lastFetch time.Time
	owner     string
	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	closed    bool
}

var ErrFetcherClosed = errors.New("jwks fetcher closed")

// Start primes the jar synchronously and then refreshes it in the background.
// Start after Close returns ErrFetcherClosed.
func (f *JWKSFetcher) Start(ctx context.Context) error {
	var err error
	f.startOnce.Do(func() {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			err = ErrFetcherClosed
			return
		}
		stop := make(chan struct{})
		f.stopCh = stop
		f.mu.Unlock()

		err = f.Refresh(ctx)

		if f.RefreshInterval <= 0 {
			return
		}

		t := time.NewTicker(f.RefreshInterval)
		go func() {
			defer t.Stop()
			for {
				select {
				case <-t.C:
					if rerr := f.Refresh(context.Background()); rerr != nil {
						logx.L().Warn("jwks refresh failed", "url", f.JWKSURL.String(), "error", rerr)
					}
				case <-stop:
					return
				}
			}
		}()
	})
	return err
}

func (f *JWKSFetcher) Close() {
	f.stopOnce.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closed = true
		if f.stopCh != nil {
			close(f.stopCh)
		}
	})
}

func (f *JWKSFetcher) LastError() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastErr
}

func (f *JWKSFetcher) LastFetch() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastFetch
}

func (f *JWKSFetcher) fail(err error) error {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	return err
}

// Refresh fetches the JWKS with conditional headers and replaces the owner's
// keyset when the document changed.
func (f *JWKSFetcher) Refresh(ctx context.Context) error {
	if f.Jar == nil {
		return errors.New("jwks fetcher has no key jar")
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.JWKSURL.String(), nil)
	if err != nil {
		return fmt.Errorf("jwks request build failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	f.mu.RLock()
	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}
	if f.lastMod != "" {
		req.Header.Set("If-Modified-Since", f.lastMod)
	}
	f.mu.RUnlock()

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return f.fail(fmt.Errorf("jwks fetch failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		f.mu.Lock()
		f.lastFetch = time.Now()
		f.lastErr = nil
		f.mu.Unlock()
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return f.fail(fmt.Errorf("jwks fetch failed: unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return f.fail(fmt.Errorf("jwks read failed: %w", err))
	}
	keys, issuer, err := ParseJWKS(body)
	if err != nil {
		return f.fail(err)
	}

	owner := f.Owner
	if owner == "" {
		owner = issuer
	}
	if owner == "" {
		return f.fail(errors.New("jwks has no issuer and fetcher has no owner"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner != "" && f.owner != owner {
		f.Jar.Remove(f.owner)
	}
	f.Jar.Replace(owner, keys)
	f.owner = owner
	f.lastErr = nil
	f.lastFetch = time.Now()
	if etag := resp.Header.Get("ETag"); etag != "" {
		f.etag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		f.lastMod = lastMod
	}
	return nil
}
