package jwt

import (
	"encoding/json"
	"fmt"
)

// Shape describes a claim set: the claims that must be present on unpack
// and whether it mandates a unique token id.
type Shape struct {
	Name     string
	Required []string
	JTI      bool
}

// JWTShape is the RFC 7519 claim set.
var JWTShape = Shape{
	Name:     "JsonWebToken",
	Required: []string{"iss", "iat"},
	JTI:      true,
}

// check reports the first required claim missing from c.
func (s *Shape) check(c Claims) error {
	for _, name := range s.Required {
		if _, ok := c[name]; !ok {
			return fmt.Errorf("%s: missing required claim %q", s.Name, name)
		}
	}
	return nil
}

// Decode converts unpacked claims into a typed claim struct, e.g. one
// embedding jwt.RegisteredClaims.
func Decode[T any](c Claims) (T, error) {
	var out T
	raw, err := json.Marshal(c)
	if err != nil {
		return out, fmt.Errorf("could not marshal claims: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("could not decode claims: %w", err)
	}
	return out, nil
}
