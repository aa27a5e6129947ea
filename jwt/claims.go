package jwt

import (
	"encoding/json"
	"math"
	"time"

	jwtx "github.com/golang-jwt/jwt/v5"
)

// Claims is a decoded claim set.
type Claims map[string]any

func (c Claims) String(name string) (string, bool) {
	s, ok := c[name].(string)
	return s, ok
}

// Time reads a NumericDate claim.
func (c Claims) Time(name string) (time.Time, bool) {
	secs, ok := numericDate(c[name])
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

func numericDate(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(math.Round(n)), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f)), true
	case time.Time:
		return n.Unix(), true
	case *jwtx.NumericDate:
		if n == nil {
			return 0, false
		}
		return n.Unix(), true
	default:
		return 0, false
	}
}
