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
	"testing"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store KVStore) {
	t.Helper()

	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "a", []byte("one"), 0))

	value, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("one"), value)

	require.NoError(t, store.Put(ctx, "a", []byte("two"), 0))

	value, _, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), value)

	require.NoError(t, store.Put(ctx, "c", []byte("sea"), 0))

	value, found, err = store.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("sea"), value)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	_, found, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)
}

func TestBadgerStore(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)

	defer func() { _ = store.Close() }()

	exerciseStore(t, store)
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(dir, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "netscope.prefs.layout", []byte(`{"showGauges":false}`), 0))
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(dir, logger.NewTestLogger())
	require.NoError(t, err)

	defer func() { _ = store.Close() }()

	value, found, err := store.Get(ctx, "netscope.prefs.layout")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"showGauges":false}`, string(value))
}

func TestMemoryStore_TTL(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(time.Minute)

	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Watch(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := store.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "other", []byte("x"), 0))
	require.NoError(t, store.Put(ctx, "k", []byte("v1"), 0))
	assert.Equal(t, []byte("v1"), <-ch)

	require.NoError(t, store.Delete(ctx, "k"))
	assert.Nil(t, <-ch)

	cancel()

	_, open := <-ch
	assert.False(t, open)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()

	ch, err := store.Watch(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, open := <-ch
	assert.False(t, open)

	_, _, err = store.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrStoreClosed)
	require.ErrorIs(t, store.Put(context.Background(), "k", nil, 0), ErrStoreClosed)
	require.NoError(t, store.Close())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		backend string
	}{
		{name: "defaults to badger", cfg: Config{Path: "/tmp/x/"}, backend: BackendBadger},
		{name: "badger without path", cfg: Config{Backend: "badger"}, wantErr: errPathRequired},
		{name: "nats default bucket", cfg: Config{Backend: "NATS", NATSURL: "nats://localhost:4222"}, backend: BackendNATS},
		{name: "nats without url", cfg: Config{Backend: "nats"}, wantErr: errNatsURLRequired},
		{name: "nats bad bucket", cfg: Config{Backend: "nats", NATSURL: "nats://x", Bucket: "a.b"}, wantErr: errInvalidBucket},
		{name: "redis without addr", cfg: Config{Backend: "redis"}, wantErr: errRedisAddrRequired},
		{name: "memory", cfg: Config{Backend: "memory"}, backend: BackendMemory},
		{name: "unknown", cfg: Config{Backend: "etcd"}, wantErr: errUnknownBackend},
		{name: "negative ttl", cfg: Config{Backend: "memory", TTL: -1}, wantErr: errTTLNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.backend, tt.cfg.Backend)
		})
	}

	cfg := Config{Backend: "nats", NATSURL: "nats://x"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultBucket, cfg.Bucket)
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), Config{Backend: BackendMemory}, logger.NewTestLogger())
	require.NoError(t, err)

	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
	require.NoError(t, store.Close())
}
