package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	matchKeyPrefix = "superover:match:"
	lockKeyPrefix  = "superover:lock:"

	// DefaultMatchTTL bounds how long an abandoned match lingers in Redis.
	DefaultMatchTTL = 2 * time.Hour
	// DefaultLockTTL bounds how long a crashed holder can block a match.
	DefaultLockTTL = 5 * time.Second

	lockRetryInterval = 25 * time.Millisecond
)

// unlockScript only deletes the lock when we still own it.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisStore keeps match documents in Redis so several API instances can
// serve the same match.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis backed store. A non-positive ttl selects DefaultMatchTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultMatchTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "match_store").Logger(),
	}
}

func matchKey(matchID string) string {
	return matchKeyPrefix + matchID
}

// Create writes a new match document.
func (s *RedisStore) Create(ctx context.Context, m *Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}

	created, err := s.redis.SetNX(ctx, matchKey(m.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	if !created {
		return ErrDuplicateMatch
	}
	return nil
}

// Get loads a match document.
func (s *RedisStore) Get(ctx context.Context, matchID string) (*Match, error) {
	data, err := s.redis.Get(ctx, matchKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}

	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID).Msg("corrupted match document")
		return nil, fmt.Errorf("unmarshal match: %w", err)
	}
	return &m, nil
}

// Put overwrites an existing document and refreshes its TTL. A match that has
// expired in the meantime is reported as not found.
func (s *RedisStore) Put(ctx context.Context, m *Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}

	updated, err := s.redis.SetXX(ctx, matchKey(m.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("put match: %w", err)
	}
	if !updated {
		return ErrMatchNotFound
	}
	return nil
}

// RedisLocker serializes submissions for one match across instances.
type RedisLocker struct {
	redis *redis.Client
	ttl   time.Duration
	wait  time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a distributed locker. The lock expires after ttl and
// Lock gives up with ErrMatchBusy after waiting for roughly the same period.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{redis: client, ttl: ttl, wait: ttl}
}

// Lock acquires the lock for matchID, polling until it is free.
func (l *RedisLocker) Lock(ctx context.Context, matchID string) (func(), error) {
	key := lockKeyPrefix + matchID
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrMatchBusy
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	unlock := func() {
		// The caller's context may already be done; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = unlockScript.Run(releaseCtx, l.redis, []string{key}, token).Err()
	}
	return unlock, nil
}
