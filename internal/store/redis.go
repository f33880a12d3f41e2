package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis implementa o Store sobre go-redis. Update usa WATCH + MULTI/EXEC,
// repetindo quando outra escrita muda alguma chave observada.
type Redis struct {
	rdb        *redis.Client
	maxRetries int
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, maxRetries: DefaultMaxRetries}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Update(ctx context.Context, keys []string, fn func(tx *Txn) error) error {
	if len(keys) == 0 {
		return ErrNoKeys
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.rdb.Watch(ctx, func(rtx *redis.Tx) error {
			vals, err := rtx.MGet(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("redis mget: %w", err)
			}

			snapshot := make(map[string][]byte, len(keys))
			for i, v := range vals {
				if s, ok := v.(string); ok {
					snapshot[keys[i]] = []byte(s)
				}
			}

			tx := newTxn(keys, snapshot)
			if err := fn(tx); err != nil {
				return err
			}

			ops := tx.ops()
			if len(ops) == 0 {
				return nil
			}

			// EXEC falha com TxFailedErr se alguma chave observada mudou
			_, err = rtx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				for _, o := range ops {
					if o.remove {
						p.Del(ctx, o.key)
						continue
					}
					p.Set(ctx, o.key, o.value, 0)
				}
				return nil
			})
			return err
		}, keys...)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("%w after %d attempts", ErrConflict, r.maxRetries)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
