package common

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoSuitableSigningKey = errors.New("no suitable signing key")
var ErrMissingToken = errors.New("missing token")
var ErrMalformedToken = errors.New("malformed token")
var ErrUnresolvableKey = errors.New("unresolvable key")
var ErrSignatureInvalid = errors.New("invalid signature")
var ErrDecryptionFailed = errors.New("decryption failed")

// claim validation, applied after a successful unpack
var ErrTokenExpired = errors.New("token expired")
var ErrTokenNotYetValid = errors.New("token not yet valid")
var ErrClaimMismatch = errors.New("claim mismatch")
var ErrTokenReplayed = errors.New("token replayed")

var ErrInvalidConfig = errors.New("invalid configuration")
var ErrInternal = errors.New("internal error")

// TokenError is returned by pack/unpack. Kind is one of the sentinel errors
// above, Err is the underlying cause (may be nil).
type TokenError struct {
	Kind  error
	Kid   string
	Owner string
	Err   error
}

func (e *TokenError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Kid != "" {
		fmt.Fprintf(&b, " kid=%q", e.Kid)
	}
	if e.Owner != "" {
		fmt.Fprintf(&b, " owner=%q", e.Owner)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
