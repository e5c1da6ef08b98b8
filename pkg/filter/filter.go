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

// Package filter applies the local packet-log predicates and classifies
// search text for server-side refetches.
package filter

import (
	"strings"

	"github.com/carverauto/netscope/pkg/models"
)

// NoMatchesMessage is shown in place of an empty filtered window.
const NoMatchesMessage = "no packets matching filters"

// Predicate is one term of the filter conjunction.
type Predicate interface {
	Match(entry *models.PacketLogEntry) bool
	Type() string
}

// State is the full filter input: enabled protocols, free text and flags.
type State struct {
	Protocols *ProtocolSet
	Query     string
	Flags     string
}

// NewState enables every known protocol with no text or flag filter.
func NewState() State {
	return State{Protocols: NewProtocolSet()}
}

// Chain builds the predicate list for s. Empty text inputs add no predicate.
func (s State) Chain() Chain {
	chain := Chain{}

	if s.Protocols != nil {
		chain = append(chain, protocolPredicate{set: s.Protocols.snapshot()})
	}

	if q := strings.TrimSpace(s.Query); q != "" {
		chain = append(chain, textPredicate{needle: strings.ToLower(q)})
	}

	if f := strings.TrimSpace(s.Flags); f != "" {
		chain = append(chain, flagPredicate{needle: strings.ToLower(f)})
	}

	return chain
}

// Chain matches an entry only when every predicate matches (AND logic).
type Chain []Predicate

func (c Chain) Match(entry *models.PacketLogEntry) bool {
	for _, p := range c {
		if !p.Match(entry) {
			return false
		}
	}

	return true
}

// Apply returns the entries of window that pass every predicate of state,
// in window order. The input is not modified and an empty result is valid.
func Apply(window []models.PacketLogEntry, state State) []models.PacketLogEntry {
	chain := state.Chain()
	out := make([]models.PacketLogEntry, 0, len(window))

	for i := range window {
		if chain.Match(&window[i]) {
			out = append(out, window[i])
		}
	}

	return out
}

type protocolPredicate struct {
	set map[string]struct{}
}

// Match is an exact, case-sensitive membership test.
func (p protocolPredicate) Match(entry *models.PacketLogEntry) bool {
	_, ok := p.set[entry.Proto]

	return ok
}

func (protocolPredicate) Type() string { return "protocol" }

type textPredicate struct {
	needle string
}

// Match checks source, destination and protocol label.
func (p textPredicate) Match(entry *models.PacketLogEntry) bool {
	return strings.Contains(strings.ToLower(entry.Src), p.needle) ||
		strings.Contains(strings.ToLower(entry.Dst), p.needle) ||
		strings.Contains(strings.ToLower(entry.Proto), p.needle)
}

func (textPredicate) Type() string { return "text" }

type flagPredicate struct {
	needle string
}

// Match never matches an entry without flags.
func (p flagPredicate) Match(entry *models.PacketLogEntry) bool {
	if entry.Flags == "" {
		return false
	}

	return strings.Contains(strings.ToLower(entry.Flags), p.needle)
}

func (flagPredicate) Type() string { return "flags" }
