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

//go:generate mockgen -destination=mock_kv.go -package=kv github.com/carverauto/netscope/pkg/kv KVStore

// Package kv provides the durable key/value backends behind the dashboard
// cache and preferences.
package kv

import (
	"context"
	"time"
)

// KVStore is a byte-oriented key/value store.
type KVStore interface {
	// Get retrieves the value associated with the given key.
	// Returns the value, whether the key was found, and an error if the operation fails.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores a value under the given key with an optional TTL (time-to-live).
	// If ttl is zero, the value persists until explicitly deleted.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Watch sends the new value of key (nil when deleted) on every change.
	// The channel is closed when ctx is canceled or the store is closed.
	Watch(ctx context.Context, key string) (<-chan []byte, error)

	Close() error
}
