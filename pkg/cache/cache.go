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

// Package cache persists the last good backend payload of each entity
// family so the dashboard can render before the first poll completes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carverauto/netscope/pkg/kv"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
)

// Slot is the storage key of one entity family.
type Slot string

const (
	SlotSummary     Slot = "netscope.cache.summary"
	SlotHistory     Slot = "netscope.cache.history"
	SlotEvents      Slot = "netscope.cache.security_events"
	SlotConnections Slot = "netscope.cache.connections"
)

// Slots lists every entity slot in hydration order.
func Slots() []Slot {
	return []Slot{SlotSummary, SlotHistory, SlotEvents, SlotConnections}
}

// Cache reads and writes slots on a kv.KVStore. Reads never fail: a
// missing or unusable entry is reported as absent.
type Cache struct {
	store  kv.KVStore
	logger logger.Logger
}

func New(store kv.KVStore, log logger.Logger) *Cache {
	return &Cache{store: store, logger: log}
}

// Load decodes slot into dst and reports whether it did.
func (c *Cache) Load(ctx context.Context, slot Slot, dst interface{}) bool {
	raw, found, err := c.store.Get(ctx, string(slot))
	if err != nil {
		c.logger.Warn().Err(err).Str("slot", string(slot)).Msg("Cache read failed, ignoring slot")

		return false
	}

	if !found || len(raw) == 0 {
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn().Err(err).Str("slot", string(slot)).Int("bytes", len(raw)).
			Msg("Cache entry is corrupt, ignoring slot")

		return false
	}

	return true
}

// Store overwrites slot with raw. Callers pass the exact bytes of a
// response that already parsed.
func (c *Cache) Store(ctx context.Context, slot Slot, raw []byte) error {
	if err := c.store.Put(ctx, string(slot), raw, 0); err != nil {
		return fmt.Errorf("failed to write cache slot %s: %w", slot, err)
	}

	return nil
}

// Clear removes every slot.
func (c *Cache) Clear(ctx context.Context) error {
	for _, slot := range Slots() {
		if err := c.store.Delete(ctx, string(slot)); err != nil {
			return fmt.Errorf("failed to clear cache slot %s: %w", slot, err)
		}
	}

	return nil
}

// Seed is whatever the cache could hydrate. Nil fields were absent.
type Seed struct {
	Summary     *models.TelemetrySnapshot
	History     *models.HistoryResponse
	Events      []models.SecurityEvent
	Connections []models.ExternalConnection

	hasEvents      bool
	hasConnections bool
}

// HasEvents distinguishes a cached empty list from no entry.
func (s *Seed) HasEvents() bool { return s.hasEvents }

func (s *Seed) HasConnections() bool { return s.hasConnections }

// Empty reports whether nothing hydrated.
func (s *Seed) Empty() bool {
	return s.Summary == nil && s.History == nil && !s.hasEvents && !s.hasConnections
}

// Seed loads every slot.
func (c *Cache) Seed(ctx context.Context) Seed {
	var seed Seed

	var summary models.TelemetrySnapshot
	if c.Load(ctx, SlotSummary, &summary) {
		seed.Summary = &summary
	}

	var history models.HistoryResponse
	if c.Load(ctx, SlotHistory, &history) {
		seed.History = &history
	}

	seed.hasEvents = c.Load(ctx, SlotEvents, &seed.Events)
	seed.hasConnections = c.Load(ctx, SlotConnections, &seed.Connections)

	c.logger.Debug().
		Bool("summary", seed.Summary != nil).
		Bool("history", seed.History != nil).
		Bool("events", seed.hasEvents).
		Bool("connections", seed.hasConnections).
		Msg("Cache seed loaded")

	return seed
}
