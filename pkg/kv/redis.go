/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/go-redis/redis/v8"
)

const redisWatchPrefix = "netscope.kv.watch."

// RedisStore keeps entries in Redis. Changes are announced on a pub/sub
// channel per key so Watch works across processes.
type RedisStore struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisStore(ctx context.Context, addr, password string, db int, log logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, logger: log}, nil
}

func watchChannel(key string) string {
	return redisWatchPrefix + key
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

// Put writes key and publishes the value to its watchers in one transaction.
func (r *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, ttl)
		pipe.Publish(ctx, watchChannel(key), value)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Publish(ctx, watchChannel(key), "")

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (r *RedisStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	sub := r.client.Subscribe(ctx, watchChannel(key))

	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()

		return nil, fmt.Errorf("failed to watch key %s: %w", key, err)
	}

	ch := make(chan []byte, 1)

	go func() {
		defer close(ch)
		defer func() {
			if err := sub.Close(); err != nil {
				r.logger.Warn().Err(err).Str("key", key).Msg("Failed to close redis subscription")
			}
		}()

		msgs := sub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var value []byte
				if msg.Payload != "" {
					value = []byte(msg.Payload)
				}

				select {
				case ch <- value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ KVStore = (*RedisStore)(nil)
