// Package replay detects reuse of token identifiers (jti).
package replay

import (
	"context"
	"time"
)

// Checker records an id until expiresAt. Seen reports true when the id was
// already recorded and has not expired yet.
type Checker interface {
	Seen(ctx context.Context, id string, expiresAt time.Time) (bool, error)
}
