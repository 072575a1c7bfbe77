package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Revoker remembers logged-out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "sitelog:revoked:"

// RedisRevoker keeps revoked ids as expiring keys so that every instance
// behind a load balancer sees a logout.
type RedisRevoker struct {
	c *redis.Client
}

func NewRedisRevoker(c *redis.Client) *RedisRevoker { return &RedisRevoker{c: c} }

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.c.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.c.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevoker is used when REDIS_ADDR is unset. Entries are dropped
// lazily once expired.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if until.After(m.now()) {
		m.revoked[tokenID] = until
	}
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
