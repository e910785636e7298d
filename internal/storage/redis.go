package storage

import (
	"context"
	"time"

	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// RedisKV is the slice of the redis client the adapter needs.
type RedisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	SessionKey(sessionID, name string) string
}

// Redis stores documents as strings; each write refreshes the session TTL.
type Redis struct {
	kv  RedisKV
	ttl time.Duration
}

func NewRedis(kv RedisKV, ttl time.Duration) *Redis {
	return &Redis{kv: kv, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	raw, err := r.kv.Get(ctx, r.kv.SessionKey(key.Session, key.Name))
	if pkgredis.IsNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (r *Redis) Save(ctx context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	return r.kv.Set(ctx, r.kv.SessionKey(key.Session, key.Name), string(value), r.ttl)
}

func (r *Redis) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	return r.kv.Del(ctx, r.kv.SessionKey(key.Session, key.Name))
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}
