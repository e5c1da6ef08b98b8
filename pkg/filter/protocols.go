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

package filter

import (
	"sort"
	"sync"
)

// KnownProtocols are the protocol labels the backend emits, in toolbar order.
var KnownProtocols = []string{"TCP", "UDP", "ICMP", "DNS", "HTTP", "HTTPS", "TLS", "ARP", "SSH", "DHCP", "QUIC", "Other"}

// ProtocolSet is the mutable set of enabled protocols. It is safe for
// concurrent use; the renderer reads it while key handlers toggle it.
type ProtocolSet struct {
	mu      sync.RWMutex
	enabled map[string]struct{}
}

// NewProtocolSet enables every known protocol.
func NewProtocolSet() *ProtocolSet {
	s := &ProtocolSet{enabled: make(map[string]struct{}, len(KnownProtocols))}
	s.EnableAll()

	return s
}

// NewProtocolSetOf enables only the given protocols.
func NewProtocolSetOf(names ...string) *ProtocolSet {
	s := &ProtocolSet{enabled: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.enabled[n] = struct{}{}
	}

	return s
}

// Toggle flips name and returns its new state.
func (s *ProtocolSet) Toggle(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enabled[name]; ok {
		delete(s.enabled, name)

		return false
	}

	s.enabled[name] = struct{}{}

	return true
}

func (s *ProtocolSet) Enable(name string) {
	s.mu.Lock()
	s.enabled[name] = struct{}{}
	s.mu.Unlock()
}

func (s *ProtocolSet) Disable(name string) {
	s.mu.Lock()
	delete(s.enabled, name)
	s.mu.Unlock()
}

func (s *ProtocolSet) EnableAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range KnownProtocols {
		s.enabled[p] = struct{}{}
	}
}

func (s *ProtocolSet) Enabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.enabled[name]

	return ok
}

// Names returns the enabled protocols sorted by name.
func (s *ProtocolSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.enabled))
	for n := range s.enabled {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Clone returns an independent copy.
func (s *ProtocolSet) Clone() *ProtocolSet {
	return &ProtocolSet{enabled: s.snapshot()}
}

func (s *ProtocolSet) snapshot() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.enabled))
	for k := range s.enabled {
		out[k] = struct{}{}
	}

	return out
}
