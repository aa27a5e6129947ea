package replay

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Checker. Expired entries are purged periodically.
type Memory struct {
	mu     sync.Mutex
	seen   map[string]time.Time // id -> expiration time
	now    func() time.Time
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

var _ Checker = &Memory{}

// NewMemory creates a new in-memory replay checker.
// cleanupInterval defines how often expired entries will be purged.
func NewMemory(cleanupInterval time.Duration) *Memory {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	rc := &Memory{
		seen:   make(map[string]time.Time),
		now:    time.Now,
		ticker: time.NewTicker(cleanupInterval),
		done:   make(chan struct{}),
	}

	go rc.cleanupLoop()

	return rc
}

func (rc *Memory) Seen(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if exp, ok := rc.seen[id]; ok {
		if rc.now().Before(exp) {
			return true, nil
		}
		delete(rc.seen, id)
	}

	rc.seen[id] = expiresAt
	return false, nil
}

func (rc *Memory) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.seen)
}

func (rc *Memory) cleanupLoop() {
	for {
		select {
		case <-rc.ticker.C:
			rc.cleanup()
		case <-rc.done:
			rc.ticker.Stop()
			return
		}
	}
}

func (rc *Memory) cleanup() {
	now := rc.now()
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for id, exp := range rc.seen {
		if now.After(exp) {
			delete(rc.seen, id)
		}
	}
}

// Stop stops the background cleanup goroutine. It is safe to call twice.
func (rc *Memory) Stop() {
	rc.once.Do(func() { close(rc.done) })
}
