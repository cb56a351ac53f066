package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

const defaultRedisPrefix = "leads:cooldown"

// RedisStore shares the cooldown across instances. A key is created with
// SET NX PX, so only the first caller inside the window wins and blocked
// callers never extend it.
type RedisStore struct {
	rdb      redis.Cmdable
	prefix   string
	cooldown time.Duration
	logger   *logging.Logger
}

// NewRedisStore creates a Redis-backed limiter.
func NewRedisStore(rdb redis.Cmdable, cooldown time.Duration, prefix string, logger *logging.Logger) *RedisStore {
	if logger == nil {
		logger = logging.Default()
	}
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		rdb:      rdb,
		prefix:   prefix,
		cooldown: cooldown,
		logger:   logger,
	}
}

// Allow fails open when Redis is unavailable.
func (s *RedisStore) Allow(ctx context.Context, id string) bool {
	if s == nil || s.rdb == nil {
		return true
	}
	// The key outlives the cooldown by 1ms so a call at exactly the cooldown
	// is still blocked, as in MemoryStore and DynamoStore.
	ok, err := s.rdb.SetNX(ctx, s.key(id), time.Now().UnixMilli(), s.cooldown+time.Millisecond).Result()
	if err != nil {
		s.logger.Warn("ratelimit: redis unavailable, allowing request", "error", err, "client_id", id)
		return true
	}
	return ok
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

var _ Limiter = (*RedisStore)(nil)
