package jwt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/axent-pl/josetoken/common"
	"github.com/axent-pl/josetoken/jwt"
	"github.com/axent-pl/josetoken/keyjar"
)

const testIssuer = "https://idp.example"

var fixedNow = time.Unix(1_700_000_000, 0)

func TestTokenIssuer_Pack(t *testing.T) {
	signingKey := rsaKey(t, "k1", keyjar.UseSig)
	jar := keyjar.New()
	jar.Add("", signingKey)

	explicitExp := fixedNow.Add(10 * time.Minute)
	shape := jwt.JWTShape

	tests := []struct {
		name   string
		config jwt.Config
		claims jwt.Claims
		opts   []jwt.PackOption
		checks []ClaimCheckFunction
	}{
		{
			name:   "default lifetime",
			config: jwt.Config{Issuer: testIssuer, Lifetime: time.Minute},
			claims: jwt.Claims{"sub": "subject-id"},
			checks: []ClaimCheckFunction{
				CheckClaimStringValue("iss", testIssuer),
				CheckClaimStringValue("sub", "subject-id"),
				CheckClaimNumberValue("iat", fixedNow.Unix()),
				CheckClaimNumberValue("exp", fixedNow.Unix()+60),
				CheckClaimNotExists("jti"),
			},
		},
		{
			name:   "zero lifetime sets exp to iat",
			config: jwt.Config{Issuer: testIssuer},
			claims: jwt.Claims{"sub": "subject-id"},
			checks: []ClaimCheckFunction{
				CheckClaimNumberValue("iat", fixedNow.Unix()),
				CheckClaimNumberValue("exp", fixedNow.Unix()),
			},
		},
		{
			name:   "explicit expiration wins over lifetime",
			config: jwt.Config{Issuer: testIssuer, Lifetime: time.Minute},
			opts:   []jwt.PackOption{jwt.WithExpiration(explicitExp)},
			checks: []ClaimCheckFunction{
				CheckClaimNumberValue("exp", explicitExp.Unix()),
			},
		},
		{
			name:   "exp claim supplied by caller",
			config: jwt.Config{Issuer: testIssuer, Lifetime: time.Minute},
			claims: jwt.Claims{"exp": explicitExp},
			checks: []ClaimCheckFunction{
				CheckClaimNumberValue("exp", explicitExp.Unix()),
			},
		},
		{
			name:   "expiration suppressed",
			config: jwt.Config{Issuer: testIssuer, Lifetime: time.Minute},
			claims: jwt.Claims{"exp": explicitExp.Unix()},
			opts:   []jwt.PackOption{jwt.WithoutExpiration()},
			checks: []ClaimCheckFunction{
				CheckClaimNotExists("exp"),
			},
		},
		{
			name:   "issuer values win over caller",
			config: jwt.Config{Issuer: testIssuer},
			claims: jwt.Claims{"iss": "https://evil.example", "iat": 1},
			checks: []ClaimCheckFunction{
				CheckClaimStringValue("iss", testIssuer),
				CheckClaimNumberValue("iat", fixedNow.Unix()),
			},
		},
		{
			name:   "jti generated by shape",
			config: jwt.Config{Issuer: testIssuer, Shape: &shape},
			checks: []ClaimCheckFunction{
				CheckClaimStringValue("jti", "generated"),
			},
		},
		{
			name:   "caller jti kept",
			config: jwt.Config{Issuer: testIssuer, Shape: &shape},
			claims: jwt.Claims{"jti": "caller-jti"},
			checks: []ClaimCheckFunction{
				CheckClaimStringValue("jti", "caller-jti"),
			},
		},
		{
			name:   "jti option",
			config: jwt.Config{Issuer: testIssuer},
			opts:   []jwt.PackOption{jwt.WithJTI("option-jti")},
			checks: []ClaimCheckFunction{
				CheckClaimStringValue("jti", "option-jti"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iss, err := jwt.New(tt.config, jar,
				jwt.WithClock(func() time.Time { return fixedNow }),
				jwt.WithJTIGenerator(func() string { return "generated" }),
			)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			token, err := iss.Pack(context.Background(), tt.claims, tt.opts...)
			if err != nil {
				t.Fatalf("Pack() failed: %v", err)
			}
			payload, header := payloadOf(t, token)
			if header["kid"] != "k1" {
				t.Errorf("Pack() header kid = %v, want k1", header["kid"])
			}
			if header["alg"] != "RS256" {
				t.Errorf("Pack() header alg = %v, want RS256", header["alg"])
			}
			for _, checkFunc := range tt.checks {
				if err := checkFunc(payload); err != nil {
					t.Errorf("Pack(): %v", err)
				}
			}
		})
	}
}

func TestTokenIssuer_Pack_KeySelection(t *testing.T) {
	first := rsaKey(t, "first", keyjar.UseSig)
	second := rsaKey(t, "second", keyjar.UseSig)
	noKid := rsaKey(t, "", keyjar.UseSig)

	tests := []struct {
		name    string
		keys    []keyjar.Key
		opts    []jwt.PackOption
		wantKid any
		wantErr bool
	}{
		{name: "first key without kid option", keys: []keyjar.Key{first, second}, wantKid: "first"},
		{name: "kid option", keys: []keyjar.Key{first, second}, opts: []jwt.PackOption{jwt.WithKid("second")}, wantKid: "second"},
		{name: "key without kid leaves header clean", keys: []keyjar.Key{noKid}, wantKid: nil},
		{name: "unknown kid", keys: []keyjar.Key{first}, opts: []jwt.PackOption{jwt.WithKid("missing")}, wantErr: true},
		{name: "owner without keys", keys: []keyjar.Key{first}, opts: []jwt.PackOption{jwt.WithOwner("https://other.example")}, wantErr: true},
		{name: "encryption-only key", keys: []keyjar.Key{rsaKey(t, "enc", keyjar.UseEnc)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := keyjar.New()
			jar.Add("", tt.keys...)
			iss, err := jwt.New(jwt.Config{Issuer: testIssuer}, jar)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			token, gotErr := iss.Pack(context.Background(), jwt.Claims{"sub": "s"}, tt.opts...)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("Pack() failed: %v", gotErr)
				}
				if !errors.Is(gotErr, common.ErrNoSuitableSigningKey) {
					t.Errorf("Pack() error = %v, want ErrNoSuitableSigningKey", gotErr)
				}
				if token != "" {
					t.Errorf("Pack() returned token %q together with an error", token)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("Pack() succeeded unexpectedly")
			}
			_, header := payloadOf(t, token)
			if header["kid"] != tt.wantKid {
				t.Errorf("Pack() header kid = %v, want %v", header["kid"], tt.wantKid)
			}
		})
	}
}

func TestTokenIssuer_Pack_NoSuitableSigningKeyCarriesKid(t *testing.T) {
	iss, err := jwt.New(jwt.Config{Issuer: testIssuer}, keyjar.New())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	_, err = iss.Pack(context.Background(), nil, jwt.WithKid("wanted"))
	var tokenErr *common.TokenError
	if !errors.As(err, &tokenErr) {
		t.Fatalf("Pack() error = %v, want *common.TokenError", err)
	}
	if tokenErr.Kind != common.ErrNoSuitableSigningKey {
		t.Errorf("Kind = %v, want ErrNoSuitableSigningKey", tokenErr.Kind)
	}
	if tokenErr.Kid != "wanted" {
		t.Errorf("Kid = %q, want %q", tokenErr.Kid, "wanted")
	}
}

func TestTokenIssuer_Pack_UniqueJTI(t *testing.T) {
	jar := keyjar.New()
	jar.Add("", rsaKey(t, "k1", keyjar.UseSig))
	shape := jwt.JWTShape
	iss, err := jwt.New(jwt.Config{Issuer: testIssuer, Lifetime: time.Minute, Shape: &shape}, jar,
		jwt.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	seen := make(map[any]struct{})
	for range 5 {
		token, err := iss.Pack(context.Background(), jwt.Claims{"sub": "same"})
		if err != nil {
			t.Fatalf("Pack() failed: %v", err)
		}
		payload, _ := payloadOf(t, token)
		jti, ok := payload["jti"].(string)
		if !ok || len(jti) != 32 {
			t.Fatalf("jti = %v, want 32 hex characters", payload["jti"])
		}
		if _, dup := seen[jti]; dup {
			t.Fatalf("jti %q generated twice", jti)
		}
		seen[jti] = struct{}{}
	}
}

func TestTokenIssuer_Pack_Encrypted(t *testing.T) {
	jar := keyjar.New()
	jar.Add("", rsaKey(t, "sig", keyjar.UseSig), rsaKey(t, "enc", keyjar.UseEnc))

	tests := []struct {
		name         string
		encryptByDef bool
		opts         []jwt.PackOption
		wantSegments int
	}{
		{name: "default off", wantSegments: 3},
		{name: "default on", encryptByDef: true, wantSegments: 5},
		{name: "per call on", opts: []jwt.PackOption{jwt.WithEncrypt(true)}, wantSegments: 5},
		{name: "per call off wins over default", encryptByDef: true, opts: []jwt.PackOption{jwt.WithEncrypt(false)}, wantSegments: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iss, err := jwt.New(jwt.Config{Issuer: testIssuer, Encrypt: tt.encryptByDef}, jar)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			token, err := iss.Pack(context.Background(), jwt.Claims{"sub": "s"}, tt.opts...)
			if err != nil {
				t.Fatalf("Pack() failed: %v", err)
			}
			if got := segments(token); got != tt.wantSegments {
				t.Errorf("Pack() produced %d segments, want %d", got, tt.wantSegments)
			}
		})
	}
}

func TestTokenIssuer_Pack_EncryptWithoutKey(t *testing.T) {
	jar := keyjar.New()
	jar.Add("", rsaKey(t, "sig", keyjar.UseSig))
	iss, err := jwt.New(jwt.Config{Issuer: testIssuer, Encrypt: true}, jar)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	token, err := iss.Pack(context.Background(), jwt.Claims{"sub": "s"})
	if !errors.Is(err, common.ErrUnresolvableKey) {
		t.Fatalf("Pack() error = %v, want ErrUnresolvableKey", err)
	}
	if token != "" {
		t.Errorf("Pack() returned partial token %q", token)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config jwt.Config
	}{
		{name: "negative lifetime", config: jwt.Config{Lifetime: -time.Second}},
		{name: "sub-second lifetime", config: jwt.Config{Lifetime: 500 * time.Millisecond}},
		{name: "fractional lifetime", config: jwt.Config{Lifetime: 1500 * time.Millisecond}},
		{name: "unknown key algorithm", config: jwt.Config{EncAlg: "RSA1_5"}},
		{name: "unknown content encryption", config: jwt.Config{EncEnc: "A1024GCM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwt.New(tt.config, keyjar.New())
			if !errors.Is(err, common.ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
	if _, err := jwt.New(jwt.Config{}, nil); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("New() with nil resolver error = %v, want ErrInvalidConfig", err)
	}
}

func segments(token string) int {
	n := 1
	for _, c := range token {
		if c == '.' {
			n++
		}
	}
	return n
}
