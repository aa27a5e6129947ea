package jwt_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"testing"

	"github.com/axent-pl/josetoken/codec"
	"github.com/axent-pl/josetoken/common/sig"
	"github.com/axent-pl/josetoken/keyjar"
)

type ClaimCheckFunction func(got map[string]any) error

func CheckClaimStringValue(claim string, value string) ClaimCheckFunction {
	return func(got map[string]any) error {
		if v, ok := got[claim]; ok {
			if v != value {
				return fmt.Errorf("invalid claim `%s` value: want '%s' got '%v'", claim, value, v)
			}
			return nil
		}
		return fmt.Errorf("missing claim `%s`", claim)
	}
}

// JSON numbers decode as float64
func CheckClaimNumberValue(claim string, value int64) ClaimCheckFunction {
	return func(got map[string]any) error {
		if v, ok := got[claim]; ok {
			if v != float64(value) {
				return fmt.Errorf("invalid claim `%s` value: want %d got %v", claim, value, v)
			}
			return nil
		}
		return fmt.Errorf("missing claim `%s`", claim)
	}
}

func CheckClaimExists(claim string) ClaimCheckFunction {
	return func(got map[string]any) error {
		if _, ok := got[claim]; !ok {
			return fmt.Errorf("missing claim `%s`", claim)
		}
		return nil
	}
}

func CheckClaimNotExists(claim string) ClaimCheckFunction {
	return func(got map[string]any) error {
		if v, ok := got[claim]; ok {
			return fmt.Errorf("want empty claim `%s`, got value `%v`", claim, v)
		}
		return nil
	}
}

func rsaKey(t *testing.T, kid string, use keyjar.Use) keyjar.Key {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	return keyjar.MustKey(kid, use, k)
}

func ecKey(t *testing.T, kid string, use keyjar.Use) keyjar.Key {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa.GenerateKey: %v", err)
	}
	return keyjar.MustKey(kid, use, k)
}

func octKey(t *testing.T, kid string, use keyjar.Use, size int) keyjar.Key {
	t.Helper()
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return keyjar.MustKey(kid, use, b)
}

func payloadOf(t *testing.T, token string) (map[string]any, map[string]any) {
	t.Helper()
	signed, ok := codec.New().ParseSigned(token)
	if !ok {
		t.Fatalf("not a signed token: %q", token)
	}
	return signed.Payload, signed.Header
}

type resolverCall struct {
	Method  string
	KeyType sig.KeyType
	Owner   string
	Kid     string
}

// recordingResolver records every lookup before delegating to a KeyJar.
type recordingResolver struct {
	jar   *keyjar.KeyJar
	mu    sync.Mutex
	calls []resolverCall
}

func (r *recordingResolver) record(c resolverCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recordingResolver) Calls() []resolverCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]resolverCall(nil), r.calls...)
}

func (r *recordingResolver) SigningKeys(ctx context.Context, keyType sig.KeyType, owner, kid string) ([]keyjar.Key, error) {
	r.record(resolverCall{Method: "SigningKeys", KeyType: keyType, Owner: owner, Kid: kid})
	return r.jar.SigningKeys(ctx, keyType, owner, kid)
}

func (r *recordingResolver) VerificationKeys(ctx context.Context, keyType sig.KeyType, owner string) ([]keyjar.Key, error) {
	r.record(resolverCall{Method: "VerificationKeys", KeyType: keyType, Owner: owner})
	return r.jar.VerificationKeys(ctx, keyType, owner)
}

func (r *recordingResolver) EncryptionKeys(ctx context.Context, owner string) ([]keyjar.Key, error) {
	r.record(resolverCall{Method: "EncryptionKeys", Owner: owner})
	return r.jar.EncryptionKeys(ctx, owner)
}

func (r *recordingResolver) DecryptionKeys(ctx context.Context, owner string) ([]keyjar.Key, error) {
	r.record(resolverCall{Method: "DecryptionKeys", Owner: owner})
	return r.jar.DecryptionKeys(ctx, owner)
}
