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

import "time"

// TelemetrySnapshot is one /summary response. A snapshot is never patched:
// the next successful poll replaces it as a whole.
type TelemetrySnapshot struct {
	TotalPackets           Count            `json:"total_packets"`
	TotalBytes             Count            `json:"total_bytes"`
	PacketsPerSec          Gauge            `json:"packets_per_sec"`
	Suspicious             Count            `json:"suspicious"`
	UploadRate             Gauge            `json:"upload_rate"`
	DownloadRate           Gauge            `json:"download_rate"`
	DNSQueries             Count            `json:"dns_queries,omitempty"`
	HTTPRequests           Count            `json:"http_requests,omitempty"`
	Protocols              map[string]Count `json:"protocols"`
	BytesPerProtocol       map[string]Count `json:"bytes_per_protocol"`
	PacketSizeDistribution map[string]Count `json:"packet_size_distribution"`
	ConnectionTypes        map[string]Count `json:"connection_types"`
	TopDevices             []DeviceUsage    `json:"top_devices"`
	BandwidthHistory       []BandwidthPoint `json:"bandwidth_history"`
	PacketLog              []PacketLogEntry `json:"packet_log,omitempty"`
}

// DeviceUsage is a row of the top talkers table.
type DeviceUsage struct {
	IP       string `json:"ip"`
	MAC      string `json:"mac"`
	Hostname string `json:"hostname"`
	Upload   Count  `json:"upload"`
	Download Count  `json:"download"`
}

type BandwidthPoint struct {
	Time string `json:"time"`
	Up   Gauge  `json:"up"`
	Down Gauge  `json:"down"`
}

// PacketLogEntry is one row of the bounded packet window.
type PacketLogEntry struct {
	Time       string `json:"time"`
	Proto      string `json:"proto"`
	Src        string `json:"src"`
	Dst        string `json:"dst"`
	Size       Count  `json:"size"`
	Flags      string `json:"flags,omitempty"`
	Suspicious bool   `json:"suspicious,omitempty"`
}

// ExternalConnection is keyed by IP; the list is replaced on every poll.
type ExternalConnection struct {
	IP       string   `json:"ip"`
	Bytes    Count    `json:"bytes"`
	Hits     Count    `json:"hits"`
	City     string   `json:"city"`
	Country  string   `json:"country"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Hostname string   `json:"hostname,omitempty"`
}

// HasLocation reports whether both coordinates are present.
func (c *ExternalConnection) HasLocation() bool {
	return c.Lat != nil && c.Lon != nil
}

// HistoryResponse is the /history payload.
type HistoryResponse struct {
	Bandwidth []BandwidthSample `json:"bandwidth"`
	Latency   []LatencySample   `json:"latency"`
}

type BandwidthSample struct {
	Timestamp     string `json:"timestamp"`
	UploadBytes   Count  `json:"upload_bytes"`
	DownloadBytes Count  `json:"download_bytes"`
}

type LatencySample struct {
	Timestamp string `json:"timestamp"`
	Target    string `json:"target"`
	LatencyMS Gauge  `json:"latency_ms"`
}

// ParseTimestamp accepts the RFC 3339 variants and the bare
// "2006-01-02 15:04:05" form the backend uses for history rows.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
