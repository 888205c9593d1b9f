package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis under "<prefix>:<id>:token" and
// "<prefix>:<id>:user". Both keys share one TTL and are written in a single
// MULTI/EXEC.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store that expires idle sessions after ttl.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Session returns the storage for id.
func (r *RedisStore) Session(id string) Storage {
	base := r.prefix + ":" + id + ":"
	return redisSession{r: r, tokenKey: base + KeyToken, userKey: base + KeyUser}
}

type redisSession struct {
	r        *RedisStore
	tokenKey string
	userKey  string
}

func (s redisSession) Load(ctx context.Context) (string, []byte, error) {
	vals, err := s.r.rdb.MGet(ctx, s.tokenKey, s.userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", nil, err
	}
	var token string
	var user []byte
	if len(vals) == 2 {
		if v, ok := vals[0].(string); ok {
			token = v
		}
		if v, ok := vals[1].(string); ok {
			user = []byte(v)
		}
	}
	return token, user, nil
}

func (s redisSession) Save(ctx context.Context, token string, user []byte) error {
	_, err := s.r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.tokenKey, token, s.r.ttl)
		p.Set(ctx, s.userKey, user, s.r.ttl)
		return nil
	})
	return err
}

func (s redisSession) Clear(ctx context.Context) error {
	return s.r.rdb.Del(ctx, s.tokenKey, s.userKey).Err()
}
