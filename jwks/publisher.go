// Package jwks publishes the public half of a keyset so counterparties can
// verify tokens and encrypt to this issuer.
package jwks

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/axent-pl/josetoken/common/logx"
	"github.com/axent-pl/josetoken/keyjar"
)

const mediaType = "application/json"

// Publisher serves the JWKS of one keyset owner. The document is rendered on
// every request so key rotation in the jar is visible immediately.
type Publisher struct {
	Jar    *keyjar.KeyJar
	Owner  string
	Issuer string
	// MaxAge sets Cache-Control; zero omits the header.
	MaxAge time.Duration
}

var _ http.Handler = &Publisher{}

// Document renders the keyset and its entity tag.
func (p *Publisher) Document() ([]byte, string, error) {
	doc, err := p.Jar.ExportJWKS(p.Owner, p.Issuer)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(doc)
	return doc, `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	doc, etag, err := p.Document()
	if err != nil {
		logx.L().Error("could not render JWKS", "context", r.Context(), "owner", p.Owner, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", etag)
	if p.MaxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(p.MaxAge/time.Second)))
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(doc); err != nil {
		logx.L().Debug("could not write JWKS response", "context", r.Context(), "error", err)
	}
}
