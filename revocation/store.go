package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minKeyTTL keeps a record alive briefly even when the token it names is
// already past its natural lifetime.
const minKeyTTL = time.Minute

// RedisStore is a Redis-backed revocation ledger. Each revoked jti is one key
// whose TTL covers the remaining lifetime of any token carrying it.
//
//	Performance: 1 Redis command per operation.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore creates a [RedisStore]. retention must be at least the
// longest token lifetime in use plus any validation leeway.
func NewRedisStore(rdb redis.UniversalClient, prefix string, retention time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gs:rev"
	}
	return &RedisStore{
		redis:     rdb,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

// WithClock replaces the time source used to compute key TTLs.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + ":" + jti
}

// IsRevoked reports whether jti has been revoked.
func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Revoke records jti as revoked. A second revoke of the same jti keeps the
// first record and returns nil.
func (s *RedisStore) Revoke(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	data, err := Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	ttl := rec.IssuedAt.Add(s.retention).Sub(s.now())
	if ttl < minKeyTTL {
		ttl = minKeyTTL
	}

	if err := s.redis.SetNX(ctx, s.key(rec.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Lookup returns the stored record for jti.
func (s *RedisStore) Lookup(ctx context.Context, jti string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(jti)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	rec.JTI = jti
	return rec, nil
}

// Ping measures Redis round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
