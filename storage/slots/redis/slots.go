package redisslots

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/mahudhurio/core/session"
)

// Slots stores the session slots as redis strings under a key prefix.
type Slots struct {
	client redis.UniversalClient
	prefix string
}

var _ session.BatchStorage = (*Slots)(nil)

func New(client redis.UniversalClient, prefix string) *Slots {
	return &Slots{client: client, prefix: prefix}
}

func (s *Slots) key(key string) string {
	return s.prefix + key
}

func (s *Slots) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "getting %q slot", key)
	}
	return val, true, nil
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(s.client.Set(ctx, s.key(key), value, 0).Err(), "setting %q slot", key)
}

func (s *Slots) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(s.client.Del(ctx, s.key(key)).Err(), "removing %q slot", key)
}

// SetMany writes all values in a single MULTI/EXEC transaction.
func (s *Slots) SetMany(ctx context.Context, values map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, val := range values {
			pipe.Set(ctx, s.key(key), val, 0)
		}
		return nil
	})
	return errors.Wrap(err, "setting slots")
}

func (s *Slots) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, s.key(key))
	}
	return errors.Wrap(s.client.Del(ctx, prefixed...).Err(), "removing slots")
}
