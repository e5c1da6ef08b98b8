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

// Package layout owns the persisted dashboard widget visibility flags.
package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/netscope/pkg/kv"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
)

// Key is where the layout is persisted.
const Key = "netscope.prefs.layout"

var ErrUnknownFlag = errors.New("unknown layout flag")

// Store is the single owner of the DashboardLayoutConfig. Every mutation
// is written through to the kv store before it returns.
type Store struct {
	mu      sync.RWMutex
	current models.DashboardLayoutConfig
	kv      kv.KVStore
	logger  logger.Logger
}

func NewStore(store kv.KVStore, log logger.Logger) *Store {
	return &Store{current: models.DefaultLayout(), kv: store, logger: log}
}

// Load reads the persisted layout. A missing, unreadable or corrupt entry
// leaves the defaults in place.
func (s *Store) Load(ctx context.Context) models.DashboardLayoutConfig {
	cfg := models.DefaultLayout()

	raw, found, err := s.kv.Get(ctx, Key)

	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("Failed to read layout, using defaults")
	case !found:
		s.logger.Debug().Msg("No saved layout, using defaults")
	default:
		if err := json.Unmarshal(raw, &cfg); err != nil {
			s.logger.Warn().Err(err).Msg("Saved layout is corrupt, using defaults")

			cfg = models.DefaultLayout()
		}
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	return cfg
}

// Current returns a copy of the active layout.
func (s *Store) Current() models.DashboardLayoutConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Set assigns flag and persists the result.
func (s *Store) Set(ctx context.Context, flag string, value bool) (models.DashboardLayoutConfig, error) {
	return s.update(ctx, func(cfg *models.DashboardLayoutConfig) error {
		if !cfg.Set(flag, value) {
			return fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
		}

		return nil
	})
}

// Toggle flips flag and persists the result.
func (s *Store) Toggle(ctx context.Context, flag string) (models.DashboardLayoutConfig, error) {
	return s.update(ctx, func(cfg *models.DashboardLayoutConfig) error {
		v, ok := cfg.Get(flag)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
		}

		cfg.Set(flag, !v)

		return nil
	})
}

// Reset restores and persists the defaults.
func (s *Store) Reset(ctx context.Context) (models.DashboardLayoutConfig, error) {
	return s.update(ctx, func(cfg *models.DashboardLayoutConfig) error {
		*cfg = models.DefaultLayout()

		return nil
	})
}

// Watch follows the persisted layout so consoles sharing a store stay in
// sync. onChange runs after each external change is applied. A deleted or
// corrupt entry is ignored. Watching stops when ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(models.DashboardLayoutConfig)) error {
	updates, err := s.kv.Watch(ctx, Key)
	if err != nil {
		return fmt.Errorf("failed to watch layout: %w", err)
	}

	go func() {
		for raw := range updates {
			cfg, changed := s.apply(raw)
			if changed && onChange != nil {
				onChange(cfg)
			}
		}
	}()

	return nil
}

func (s *Store) apply(raw []byte) (models.DashboardLayoutConfig, bool) {
	if raw == nil {
		return s.Current(), false
	}

	cfg := models.DefaultLayout()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.logger.Warn().Err(err).Msg("Ignoring corrupt layout update")

		return s.Current(), false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg == s.current {
		return cfg, false
	}

	s.current = cfg

	return cfg, true
}

// update applies fn to a copy, persists it, then publishes it. A failed
// write leaves the in-memory layout unchanged.
func (s *Store) update(ctx context.Context, fn func(*models.DashboardLayoutConfig) error) (models.DashboardLayoutConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if err := fn(&next); err != nil {
		return s.current, err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return s.current, fmt.Errorf("failed to encode layout: %w", err)
	}

	if err := s.kv.Put(ctx, Key, raw, 0); err != nil {
		return s.current, fmt.Errorf("failed to save layout: %w", err)
	}

	s.current = next

	return next, nil
}
