// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisKeyPrefix  = "adscan:ads:"
	redisMaxRetries = 16
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps one JSON array per channel. Merges are optimistic
// WATCH/MULTI transactions so concurrent writers never lose intervals.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis ad store")

	return newRedisWithClient(client, logger), nil
}

func newRedisWithClient(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func redisKey(channel string) (string, error) {
	k, err := Key(channel)
	if err != nil {
		return "", err
	}
	return redisKeyPrefix + k, nil
}

func decodeIntervals(data []byte) ([]Interval, error) {
	var ivs []Interval
	if err := json.Unmarshal(data, &ivs); err != nil {
		return nil, fmt.Errorf("decode stored intervals: %w", err)
	}
	return ivs, nil
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable, key string) ([]Interval, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeIntervals(data)
}

func (s *RedisStore) Merge(ctx context.Context, channel string, ivs []Interval) error {
	key, err := redisKey(channel)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		existing, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		data, err := json.Marshal(MergeIntervals(existing, ivs))
		if err != nil {
			return fmt.Errorf("encode intervals: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= redisMaxRetries; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug().Str("key", key).Int("attempt", attempt).Msg("ad store merge conflict, retrying")
	}
	return fmt.Errorf("redis merge %s: %w", key, err)
}

func (s *RedisStore) List(ctx context.Context, channel string, fromMs, toMs int64) ([]Interval, error) {
	key, err := redisKey(channel)
	if err != nil {
		return nil, err
	}
	ivs, err := s.load(ctx, s.client, key)
	if err != nil {
		return nil, err
	}
	return Window(ivs, fromMs, toMs), nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
