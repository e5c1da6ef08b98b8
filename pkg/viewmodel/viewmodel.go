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

// Package viewmodel turns backend telemetry into ordered, coloured,
// render-ready series. Every function is pure: inputs are never mutated and
// equal inputs always produce equal outputs.
package viewmodel

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/carverauto/netscope/pkg/models"
)

const (
	unknownDevice = "unknown"
	macSuffixLen  = 5
)

// Slice is one labelled, coloured value of a chart.
type Slice struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

// SizeBucket is a packet size histogram bar.
type SizeBucket struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Value     int64  `json:"value"`
	Color     string `json:"color"`
}

// DeviceBar is a top-talker row.
type DeviceBar struct {
	Name     string `json:"name"`
	Download int64  `json:"Download"`
	Upload   int64  `json:"Upload"`
}

// BandwidthBar is one upload/download sample.
type BandwidthBar struct {
	Label string  `json:"label"`
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
}

// ViewModel is everything derived from a single snapshot.
type ViewModel struct {
	Protocols        []Slice        `json:"protocols"`
	PacketSizes      []SizeBucket   `json:"packet_sizes"`
	BytesPerProtocol []Slice        `json:"bytes_per_protocol"`
	ConnectionTypes  []Slice        `json:"connection_types"`
	TopDevices       []DeviceBar    `json:"top_devices"`
	LiveBandwidth    []BandwidthBar `json:"live_bandwidth"`
	UploadRate       float64        `json:"upload_rate"`
	DownloadRate     float64        `json:"download_rate"`
	PacketsPerSec    float64        `json:"packets_per_sec"`
}

// Build composes every transform for snap. A nil snapshot yields an empty
// view model.
func Build(snap *models.TelemetrySnapshot) ViewModel {
	if snap == nil {
		return ViewModel{}
	}

	return ViewModel{
		Protocols:        MergeProtocols(snap.Protocols),
		PacketSizes:      MergePacketSizes(snap.PacketSizeDistribution),
		BytesPerProtocol: MergeBytesPerProtocol(snap.BytesPerProtocol),
		ConnectionTypes:  MergeConnectionTypes(snap.ConnectionTypes),
		TopDevices:       MergeTopDevices(snap.TopDevices),
		LiveBandwidth:    MergeLiveBandwidth(snap.BandwidthHistory),
		UploadRate:       float64(snap.UploadRate),
		DownloadRate:     float64(snap.DownloadRate),
		PacketsPerSec:    float64(snap.PacketsPerSec),
	}
}

// MergeProtocols orders protocols by count descending, ties by name. The
// sum of the output values always equals the sum of the input map.
func MergeProtocols(counts map[string]models.Count) []Slice {
	out := slicesOf(counts, ProtocolColor)
	sortByValueDesc(out)

	return out
}

// MergeBytesPerProtocol orders protocols by transferred bytes, descending.
func MergeBytesPerProtocol(bytes map[string]models.Count) []Slice {
	out := slicesOf(bytes, ProtocolColor)
	sortByValueDesc(out)

	return out
}

// MergeConnectionTypes capitalises each class and colours it by whether it
// is external. Output is ordered by class name.
func MergeConnectionTypes(counts map[string]models.Count) []Slice {
	out := make([]Slice, 0, len(counts))

	for class, v := range counts {
		out = append(out, Slice{Name: capitalize(class), Value: int64(v), Color: ConnectionColor(class)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// MergePacketSizes returns known buckets in histogram order followed by any
// unknown labels sorted by name.
func MergePacketSizes(dist map[string]models.Count) []SizeBucket {
	out := make([]SizeBucket, 0, len(dist))
	seen := make(map[string]struct{}, len(dist))

	for _, label := range sizeBuckets {
		if v, ok := dist[label]; ok {
			out = append(out, sizeBucket(label, v))
			seen[label] = struct{}{}
		}
	}

	extra := make([]string, 0, len(dist)-len(seen))

	for label := range dist {
		if _, ok := seen[label]; !ok {
			extra = append(extra, label)
		}
	}

	sort.Strings(extra)

	for _, label := range extra {
		out = append(out, sizeBucket(label, dist[label]))
	}

	return out
}

func sizeBucket(label string, v models.Count) SizeBucket {
	return SizeBucket{Name: label, ShortName: shortName(label), Value: int64(v), Color: SizeColor(label)}
}

// MergeTopDevices keeps backend order and resolves a display name for
// each device.
func MergeTopDevices(devices []models.DeviceUsage) []DeviceBar {
	out := make([]DeviceBar, 0, len(devices))

	for i := range devices {
		d := &devices[i]
		out = append(out, DeviceBar{Name: DeviceName(d), Download: int64(d.Download), Upload: int64(d.Upload)})
	}

	return out
}

// DeviceName falls back from hostname to IP to the MAC suffix.
func DeviceName(d *models.DeviceUsage) string {
	switch {
	case strings.TrimSpace(d.Hostname) != "":
		return d.Hostname
	case strings.TrimSpace(d.IP) != "":
		return d.IP
	case d.MAC != "":
		if len(d.MAC) <= macSuffixLen {
			return d.MAC
		}

		return d.MAC[len(d.MAC)-macSuffixLen:]
	default:
		return unknownDevice
	}
}

// MergeLiveBandwidth converts the snapshot's rolling bandwidth series.
func MergeLiveBandwidth(points []models.BandwidthPoint) []BandwidthBar {
	out := make([]BandwidthBar, 0, len(points))

	for _, p := range points {
		out = append(out, BandwidthBar{Label: p.Time, Up: float64(p.Up), Down: float64(p.Down)})
	}

	return out
}

// SortConnections returns a copy of conns ordered by bytes descending,
// ties by IP.
func SortConnections(conns []models.ExternalConnection) []models.ExternalConnection {
	out := make([]models.ExternalConnection, len(conns))
	copy(out, conns)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}

		return out[i].IP < out[j].IP
	})

	return out
}

func slicesOf(m map[string]models.Count, color func(string) string) []Slice {
	out := make([]Slice, 0, len(m))

	for name, v := range m {
		out = append(out, Slice{Name: name, Value: int64(v), Color: color(name)})
	}

	return out
}

func sortByValueDesc(s []Slice) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Value != s[j].Value {
			return s[i].Value > s[j].Value
		}

		return s[i].Name < s[j].Name
	})
}

func shortName(label string) string {
	if fields := strings.Fields(label); len(fields) > 0 {
		return fields[0]
	}

	return label
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
