package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	appredis "github.com/inmobica/assistant-server/internal/redis"
)

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// releaseScript deletes the lock only if the caller still holds it.
var releaseScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisStore is a Store backed by Redis so multiple gateway processes share
// one session space. Per-user serialization uses a SET NX lock; idle pruning
// is delegated to key TTLs refreshed on every write.
type RedisStore struct {
	client  *appredis.Client
	idleTTL time.Duration
}

func NewRedisStore(client *appredis.Client, idleTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, idleTTL: idleTTL}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	raw, err := s.client.Get(ctx, appredis.SessionKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, userID string, fn func(*Session) error) (*Session, error) {
	token := uuid.NewString()
	lockKey := appredis.SessionLockKey(userID)

	if err := s.acquire(ctx, lockKey, token); err != nil {
		return nil, err
	}
	defer releaseScript.Run(context.WithoutCancel(ctx), s.client.Client, []string{lockKey}, token)

	sess, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = &Session{UserID: userID}
	}

	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UserID = userID
	sess.LastSeen = time.Now()

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, appredis.SessionKey(userID), raw, s.idleTTL).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, appredis.SessionKey(userID)).Err()
}

// PruneIdle is a no-op: sessions expire through the TTL set on every write.
func (s *RedisStore) PruneIdle(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (s *RedisStore) acquire(ctx context.Context, lockKey, token string) error {
	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
}
