package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kiliankoe/storychain/internal/game"
)

const backendRedis = "redis"

type RedisOptions struct {
	// Prefix is prepended to game ids to form keys.
	Prefix string
	// TTL expires games after inactivity; zero keeps them forever.
	TTL   time.Duration
	Retry RetryPolicy
}

// Redis stores each game as a JSON document and serialises updates with
// WATCH/MULTI, so several server instances can share one keyspace.
type Redis struct {
	rdb  *redis.Client
	opts RedisOptions
}

// OpenRedis connects to a redis:// or rediss:// URL and pings it.
func OpenRedis(ctx context.Context, rawURL string, opts RedisOptions) (*Redis, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	ro, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb, opts), nil
}

func NewRedis(rdb *redis.Client, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "storychain:game:"
	}
	return &Redis{rdb: rdb, opts: opts}
}

func (r *Redis) key(id string) string { return r.opts.Prefix + id }

func (r *Redis) Create(ctx context.Context, g game.Game) error {
	if err := g.Validate(); err != nil {
		return wrap(backendRedis, "create", err)
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return wrap(backendRedis, "create", err)
	}
	ok, err := r.rdb.SetNX(ctx, r.key(g.ID), raw, r.opts.TTL).Result()
	if err != nil {
		return wrap(backendRedis, "create", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (game.Game, error) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return game.Game{}, ErrNotFound
	}
	if err != nil {
		return game.Game{}, wrap(backendRedis, "get", err)
	}
	return decode(backendRedis, raw)
}

func (r *Redis) Atomic(ctx context.Context, id string, fn MutateFunc) (game.Game, error) {
	key := r.key(id)
	var out game.Game
	err := r.opts.Retry.retry(ctx, backendRedis, "atomic", func() error {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				return ErrNotFound
			}
			if err != nil {
				return wrap(backendRedis, "atomic", err)
			}
			cur, err := decode(backendRedis, raw)
			if err != nil {
				return err
			}
			next, changed, err := fn(cur)
			if err != nil {
				return err
			}
			if !changed {
				out = cur
				return nil
			}
			if err := commit(backendRedis, id, next); err != nil {
				return err
			}
			b, err := json.Marshal(next)
			if err != nil {
				return wrap(backendRedis, "atomic", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, b, r.opts.TTL)
				return nil
			})
			if err != nil && !errors.Is(err, redis.TxFailedErr) {
				return wrap(backendRedis, "atomic", err)
			}
			if err != nil {
				return err
			}
			out = next
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			return errConflict
		}
		return err
	})
	if err != nil {
		return game.Game{}, err
	}
	return out, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

func decode(backend string, raw []byte) (game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return game.Game{}, wrap(backend, "decode", err)
	}
	return g, nil
}
