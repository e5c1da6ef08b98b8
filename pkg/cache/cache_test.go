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

package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/carverauto/netscope/pkg/kv"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestCache(t *testing.T) (*Cache, *kv.MemoryStore) {
	t.Helper()

	store := kv.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	return New(store, logger.NewTestLogger()), store
}

func TestSeed_Empty(t *testing.T) {
	c, _ := newTestCache(t)

	seed := c.Seed(context.Background())
	assert.True(t, seed.Empty())
	assert.Nil(t, seed.Summary)
}

func TestSeed_HydratesStoredSlots(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, SlotSummary, []byte(`{"total_packets": 1000, "suspicious": 0}`)))
	require.NoError(t, c.Store(ctx, SlotEvents, []byte(`[]`)))

	seed := c.Seed(ctx)
	require.NotNil(t, seed.Summary)
	assert.Equal(t, models.Count(1000), seed.Summary.TotalPackets)
	assert.Nil(t, seed.History)
	assert.True(t, seed.HasEvents())
	assert.Empty(t, seed.Events)
	assert.False(t, seed.HasConnections())
	assert.False(t, seed.Empty())
}

func TestLoad_CorruptEntryIsAbsent(t *testing.T) {
	c, store := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, string(SlotSummary), []byte(`{"total_packets": 10`), 0))
	require.NoError(t, store.Put(ctx, string(SlotConnections), []byte(`{"not": "a list"}`), 0))
	require.NoError(t, store.Put(ctx, string(SlotHistory), []byte{}, 0))

	var snap models.TelemetrySnapshot
	assert.False(t, c.Load(ctx, SlotSummary, &snap))

	seed := c.Seed(ctx)
	assert.True(t, seed.Empty())
}

func TestLoad_OldShapeStillDecodes(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, SlotSummary, []byte(`{"total_packets": "12", "retired_field": [1]}`)))

	var snap models.TelemetrySnapshot
	require.True(t, c.Load(ctx, SlotSummary, &snap))
	assert.Equal(t, models.Count(12), snap.TotalPackets)
}

func TestStore_ReplacesWholeSlot(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, SlotSummary, []byte(`{"total_packets": 1000, "protocols": {"TCP": 5, "UDP": 1}}`)))
	require.NoError(t, c.Store(ctx, SlotSummary, []byte(`{"total_packets": 1500, "protocols": {"TCP": 9}}`)))

	var snap models.TelemetrySnapshot
	require.True(t, c.Load(ctx, SlotSummary, &snap))
	assert.Equal(t, models.Count(1500), snap.TotalPackets)
	assert.Equal(t, map[string]models.Count{"TCP": 9}, snap.Protocols)
}

func TestLoad_StoreErrorIsAbsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := kv.NewMockKVStore(ctrl)

	store.EXPECT().Get(gomock.Any(), string(SlotSummary)).Return(nil, false, errors.New("disk on fire"))

	c := New(store, logger.NewTestLogger())

	var snap models.TelemetrySnapshot
	assert.False(t, c.Load(context.Background(), SlotSummary, &snap))
}

func TestStore_PropagatesWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := kv.NewMockKVStore(ctrl)

	store.EXPECT().Put(gomock.Any(), string(SlotEvents), []byte(`[]`), gomock.Any()).Return(kv.ErrStoreClosed)

	c := New(store, logger.NewTestLogger())
	require.ErrorIs(t, c.Store(context.Background(), SlotEvents, []byte(`[]`)), kv.ErrStoreClosed)
}

func TestClear(t *testing.T) {
	c, store := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, SlotHistory, []byte(`{}`)))
	require.NoError(t, c.Clear(ctx))

	_, found, err := store.Get(ctx, string(SlotHistory))
	require.NoError(t, err)
	assert.False(t, found)
}
