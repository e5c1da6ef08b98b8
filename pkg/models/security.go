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

package models

import "strings"

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is one of the four known levels. Unknown values
// still decode so a newer backend cannot break an older client.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank orders severities for display; unknown sorts below LOW.
func (s Severity) Rank() int {
	switch Severity(strings.ToUpper(string(s))) {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// SecurityEvent is identified by ID; the server is the source of truth and
// the whole list is replaced on each poll.
type SecurityEvent struct {
	ID          Count    `json:"id"`
	Timestamp   string   `json:"timestamp"`
	EventType   string   `json:"event_type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	SourceIP    string   `json:"source_ip"`
	Resolved    bool     `json:"resolved"`
}

// AlertRule is the CRUD shape of /security/rules.
type AlertRule struct {
	ID          *int64 `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Condition   string `json:"condition"`
	Action      string `json:"action"`
	IsActive    bool   `json:"is_active"`
}
