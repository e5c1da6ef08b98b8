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
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is an in-process KVStore for tests and ephemeral runs.
// Watchers that fall behind miss intermediate values.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	watchers map[string]map[chan []byte]struct{}
	closed   bool
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		watchers: make(map[string]map[chan []byte]struct{}),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, ErrStoreClosed
	}

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)

		return nil, false, nil
	}

	return append([]byte(nil), e.value...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.entries[key] = entry
	m.notifyLocked(key, entry.value)

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, ok := m.entries[key]; ok {
		delete(m.entries, key)
		m.notifyLocked(key, nil)
	}

	return nil
}

func (m *MemoryStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	ch := make(chan []byte, 1)

	if m.watchers[key] == nil {
		m.watchers[key] = make(map[chan []byte]struct{})
	}

	m.watchers[key][ch] = struct{}{}

	go func() {
		<-ctx.Done()

		m.mu.Lock()
		defer m.mu.Unlock()

		if _, ok := m.watchers[key][ch]; ok {
			delete(m.watchers[key], ch)
			close(ch)
		}
	}()

	return ch, nil
}

func (m *MemoryStore) notifyLocked(key string, value []byte) {
	for ch := range m.watchers[key] {
		var v []byte
		if value != nil {
			v = append([]byte(nil), value...)
		}

		select {
		case ch <- v:
		default:
		}
	}
}

// Close closes every watcher channel; later calls fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	for key, set := range m.watchers {
		for ch := range set {
			close(ch)
		}

		delete(m.watchers, key)
	}

	return nil
}

var _ KVStore = (*MemoryStore)(nil)
