package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each key as a plain string value under Prefix.
type Redis struct {
	Client *redis.Client
	Prefix string
	// TTL of zero keeps values forever.
	TTL time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{Client: client, Prefix: prefix, TTL: ttl}
}

func (s *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (s *Redis) Save(ctx context.Context, key string, data []byte) error {
	return s.Client.Set(ctx, s.Prefix+key, data, s.TTL).Err()
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Prefix+key).Err()
}
