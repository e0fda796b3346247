package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
)

// MemoryParticipantCache keeps address → participant id mappings for the process lifetime,
// optionally expiring them after ttl.
type MemoryParticipantCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedParticipant
}

type cachedParticipant struct {
	id       model.ParticipantID
	storedAt time.Time
}

var _ core.ParticipantCache = (*MemoryParticipantCache)(nil)

// NewMemoryParticipantCache creates a cache. A non-positive ttl never expires entries.
func NewMemoryParticipantCache(ttl time.Duration, now func() time.Time) *MemoryParticipantCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryParticipantCache{ttl: ttl, now: now, entries: make(map[string]cachedParticipant)}
}

// Get implements core.ParticipantCache.
func (c *MemoryParticipantCache) Get(_ context.Context, address string) (model.ParticipantID, bool, error) {
	address = normalizeAddress(address)
	if address == "" {
		return "", false, ErrAddressRequired
	}
	c.mu.RLock()
	e, ok := c.entries[address]
	c.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, address)
		c.mu.Unlock()
		return "", false, nil
	}
	return e.id, true, nil
}

// Set implements core.ParticipantCache.
func (c *MemoryParticipantCache) Set(_ context.Context, address string, id model.ParticipantID) error {
	address = normalizeAddress(address)
	if address == "" {
		return ErrAddressRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[address] = cachedParticipant{id: id, storedAt: c.now()}
	return nil
}

// RedisParticipantCache shares resolved participants between replicas.
type RedisParticipantCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ core.ParticipantCache = (*RedisParticipantCache)(nil)

// NewRedisParticipantCache creates a Redis-backed cache with keys under prefix.
func NewRedisParticipantCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisParticipantCache {
	if prefix == "" {
		prefix = "interview-reminder:participant"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisParticipantCache{client: client, prefix: prefix, ttl: ttl}
}

// Get implements core.ParticipantCache.
func (c *RedisParticipantCache) Get(ctx context.Context, address string) (model.ParticipantID, bool, error) {
	address = normalizeAddress(address)
	if address == "" {
		return "", false, ErrAddressRequired
	}
	v, err := c.client.Get(ctx, c.prefix+":"+address).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return model.ParticipantID(v), true, nil
}

// Set implements core.ParticipantCache.
func (c *RedisParticipantCache) Set(ctx context.Context, address string, id model.ParticipantID) error {
	address = normalizeAddress(address)
	if address == "" {
		return ErrAddressRequired
	}
	if err := c.client.Set(ctx, c.prefix+":"+address, string(id), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func normalizeAddress(a string) string { return strings.ToLower(strings.TrimSpace(a)) }
