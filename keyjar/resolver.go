package keyjar

import (
	"context"

	"github.com/axent-pl/josetoken/common/sig"
)

// Resolver looks up keys by owner. The owner "" is the local party's own
// keyset; any other owner names a counterparty, typically by issuer URL.
// Every method may return an empty slice. The order of returned keys is
// defined by the implementation and callers picking "the first" key rely on it.
type Resolver interface {
	SigningKeys(ctx context.Context, keyType sig.KeyType, owner, kid string) ([]Key, error)
	VerificationKeys(ctx context.Context, keyType sig.KeyType, owner string) ([]Key, error)
	EncryptionKeys(ctx context.Context, owner string) ([]Key, error)
	DecryptionKeys(ctx context.Context, owner string) ([]Key, error)
}
