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

package viewmodel

// DefaultColor is used for any label missing from a colour table.
const DefaultColor = "#9ca3af"

const (
	colorExternal = "#ef4444"
	colorInternal = "#3b82f6"
)

var protocolColors = map[string]string{
	"TCP":   "#3b82f6",
	"UDP":   "#10b981",
	"ICMP":  "#f59e0b",
	"DNS":   "#8b5cf6",
	"HTTP":  "#ec4899",
	"HTTPS": "#06b6d4",
	"TLS":   "#14b8a6",
	"ARP":   "#f97316",
	"SSH":   "#6366f1",
	"DHCP":  "#84cc16",
	"QUIC":  "#a855f7",
	"Other": "#6b7280",
}

// sizeBuckets is the display order of the packet size histogram.
var sizeBuckets = []string{
	"0-64 bytes",
	"65-128 bytes",
	"129-256 bytes",
	"257-512 bytes",
	"513-1024 bytes",
	"1025-1518 bytes",
	">1518 bytes",
}

var sizeColors = map[string]string{
	"0-64 bytes":      "#dbeafe",
	"65-128 bytes":    "#bfdbfe",
	"129-256 bytes":   "#93c5fd",
	"257-512 bytes":   "#60a5fa",
	"513-1024 bytes":  "#3b82f6",
	"1025-1518 bytes": "#2563eb",
	">1518 bytes":     "#1d4ed8",
}

// ProtocolColor returns the fixed colour for a protocol name.
func ProtocolColor(name string) string {
	return lookup(protocolColors, name)
}

// SizeColor returns the fixed colour for a packet size bucket label.
func SizeColor(label string) string {
	return lookup(sizeColors, label)
}

// ConnectionColor is red for the external class and blue for the rest.
func ConnectionColor(class string) string {
	if class == "external" {
		return colorExternal
	}

	return colorInternal
}

func lookup(table map[string]string, key string) string {
	if c, ok := table[key]; ok {
		return c
	}

	return DefaultColor
}
