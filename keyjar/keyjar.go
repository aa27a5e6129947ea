package keyjar

import (
	"context"
	"slices"
	"sync"

	"github.com/axent-pl/josetoken/common/sig"
)

// KeyJar is an in-memory, owner-indexed key store. Keys are returned in the
// order they were added.
type KeyJar struct {
	mu   sync.RWMutex
	keys map[string][]Key
}

var _ Resolver = &KeyJar{}

func New() *KeyJar {
	return &KeyJar{keys: make(map[string][]Key)}
}

func (j *KeyJar) Add(owner string, keys ...Key) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.keys == nil {
		j.keys = make(map[string][]Key)
	}
	j.keys[owner] = append(j.keys[owner], keys...)
}

// Replace swaps the whole keyset of owner, e.g. after a JWKS refresh.
func (j *KeyJar) Replace(owner string, keys []Key) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.keys == nil {
		j.keys = make(map[string][]Key)
	}
	j.keys[owner] = slices.Clone(keys)
}

func (j *KeyJar) Remove(owner string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.keys, owner)
}

// Keys returns a copy of the keyset of owner.
func (j *KeyJar) Keys(owner string) []Key {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Clone(j.keys[owner])
}

func (j *KeyJar) Owners() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]string, 0, len(j.keys))
	for owner := range j.keys {
		out = append(out, owner)
	}
	slices.Sort(out)
	return out
}

func (j *KeyJar) SigningKeys(ctx context.Context, keyType sig.KeyType, owner, kid string) ([]Key, error) {
	return j.selectKeys(ctx, owner, func(k Key) (Key, bool) {
		if k.Type != keyType || !k.usableFor(UseSig) || !k.IsPrivate() {
			return Key{}, false
		}
		if kid != "" && k.Kid != kid {
			return Key{}, false
		}
		return k, true
	})
}

func (j *KeyJar) VerificationKeys(ctx context.Context, keyType sig.KeyType, owner string) ([]Key, error) {
	return j.selectKeys(ctx, owner, func(k Key) (Key, bool) {
		if k.Type != keyType || !k.usableFor(UseSig) || k.Public == nil {
			return Key{}, false
		}
		return k.PublicOnly(), true
	})
}

func (j *KeyJar) EncryptionKeys(ctx context.Context, owner string) ([]Key, error) {
	return j.selectKeys(ctx, owner, func(k Key) (Key, bool) {
		if !k.usableFor(UseEnc) || k.Public == nil {
			return Key{}, false
		}
		return k.PublicOnly(), true
	})
}

func (j *KeyJar) DecryptionKeys(ctx context.Context, owner string) ([]Key, error) {
	return j.selectKeys(ctx, owner, func(k Key) (Key, bool) {
		if !k.usableFor(UseEnc) || !k.IsPrivate() {
			return Key{}, false
		}
		return k, true
	})
}

func (j *KeyJar) selectKeys(ctx context.Context, owner string, match func(Key) (Key, bool)) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Key, 0)
	for _, k := range j.keys[owner] {
		if m, ok := match(k); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
