package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const compareAndSwapScript = `
local current = redis.call("GET", KEYS[1])
if not current or current ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

const defaultTTL = 7 * 24 * time.Hour

var compareAndSwapLua = redis.NewScript(compareAndSwapScript)

// RedisStore keeps refresh-token hashes as plain Redis strings. Each entry
// expires with the refresh token it was issued for, so an expired entry reads
// as no session.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore]. prefix sets the key namespace and ttl
// is applied on every write; it should equal the refresh token lifetime.
// A non-positive ttl falls back to seven days.
func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "rt"
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(subject string) string {
	return s.prefix + ":" + subject
}

// DeviceScoped reports true: any subject string maps to its own key.
func (s *RedisStore) DeviceScoped() bool { return true }

// Record overwrites the hash for subject and resets its expiry.
//
//	Performance: 1 Redis SET.
func (s *RedisStore) Record(ctx context.Context, subject, hash string) error {
	if err := s.redis.Set(ctx, s.key(subject), hash, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load returns the stored hash for subject.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Load(ctx context.Context, subject string) (string, bool, error) {
	hash, err := s.redis.Get(ctx, s.key(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return hash, true, nil
}

// CompareAndSwap atomically replaces expected with next. The check and the
// write run inside one Lua script, so concurrent callers presenting the same
// expected hash see exactly one success.
//
//	Performance: 1 EVALSHA.
func (s *RedisStore) CompareAndSwap(ctx context.Context, subject, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	swapped, err := compareAndSwapLua.Run(ctx, s.redis,
		[]string{s.key(subject)},
		expected, next, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return swapped == 1, nil
}

// Invalidate deletes the hash for subject. Deleting a missing key succeeds.
//
//	Performance: 1 Redis DEL.
func (s *RedisStore) Invalidate(ctx context.Context, subject string) error {
	if err := s.redis.Del(ctx, s.key(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
