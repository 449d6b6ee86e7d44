package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// PendingTTL bounds how long an in-flight reservation blocks retries. A
// process that dies between Reserve and Complete frees the key after it.
const PendingTTL = 2 * time.Minute

func pendingTTL(ttl time.Duration) time.Duration {
	if ttl < PendingTTL {
		return ttl
	}
	return PendingTTL
}

// Idempotency deduplicates report submissions that carry an
// Idempotency-Key header.
//
// Reserve claims key. It returns reserved=true when the caller owns the
// key and must later Complete or Release it. Otherwise reportID holds the
// report created by an earlier request, or is empty while that request is
// still in flight.
type Idempotency interface {
	Reserve(ctx context.Context, key string) (reportID string, reserved bool, err error)
	Complete(ctx context.Context, key, reportID string) error
	Release(ctx context.Context, key string) error
}

// RedisIdempotency keeps keys in Redis so retries are recognized across
// server instances.
type RedisIdempotency struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisIdempotency returns a Redis backed key store.
func NewRedisIdempotency(rdb *redis.Client, ttl time.Duration) *RedisIdempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdempotency{rdb: rdb, ttl: ttl, prefix: "idem:report:"}
}

func (r *RedisIdempotency) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, pendingMarker, pendingTTL(r.ttl)).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; let the caller retry.
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if v == pendingMarker {
		return "", false, nil
	}
	return v, false, nil
}

// Complete records the created report and extends the key to the full TTL.
func (r *RedisIdempotency) Complete(ctx context.Context, key, reportID string) error {
	return r.rdb.Set(ctx, r.prefix+key, reportID, r.ttl).Err()
}

func (r *RedisIdempotency) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}

// MemoryIdempotency is the single-instance fallback used when Redis is
// not reachable.
type MemoryIdempotency struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]idemEntry
	now  func() time.Time
}

type idemEntry struct {
	reportID string
	expires  time.Time
}

// NewMemoryIdempotency returns an in-process key store.
func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryIdempotency{ttl: ttl, keys: map[string]idemEntry{}, now: time.Now}
}

func (m *MemoryIdempotency) Reserve(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.keys[key]; ok && now.Before(e.expires) {
		return e.reportID, false, nil
	}
	m.keys[key] = idemEntry{expires: now.Add(pendingTTL(m.ttl))}
	return "", true, nil
}

func (m *MemoryIdempotency) Complete(_ context.Context, key, reportID string) error {
	m.mu.Lock()
	m.keys[key] = idemEntry{reportID: reportID, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.keys, key)
	m.mu.Unlock()
	return nil
}
