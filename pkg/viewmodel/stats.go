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

import (
	"fmt"

	"github.com/carverauto/netscope/pkg/models"
)

// Trend compares a stat with the previous snapshot.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Stat card titles, in display order.
const (
	CardTotalPackets = "Total Packets"
	CardTotalBytes   = "Total Bytes"
	CardPacketRate   = "Packets/sec"
	CardSuspicious   = "Suspicious"
	CardUpload       = "Upload"
	CardDownload     = "Download"
)

// StatCard is one headline number.
type StatCard struct {
	Title string  `json:"title"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
	Trend Trend   `json:"trend"`
}

type statField struct {
	title  string
	value  func(*models.TelemetrySnapshot) float64
	format func(float64) string
}

var statFields = []statField{
	{CardTotalPackets, func(s *models.TelemetrySnapshot) float64 { return float64(s.TotalPackets) }, formatCount},
	{CardTotalBytes, func(s *models.TelemetrySnapshot) float64 { return float64(s.TotalBytes) }, formatBytesFloat},
	{CardPacketRate, func(s *models.TelemetrySnapshot) float64 { return float64(s.PacketsPerSec) }, formatRate},
	{CardSuspicious, func(s *models.TelemetrySnapshot) float64 { return float64(s.Suspicious) }, formatCount},
	{CardUpload, func(s *models.TelemetrySnapshot) float64 { return float64(s.UploadRate) }, formatBytesPerSec},
	{CardDownload, func(s *models.TelemetrySnapshot) float64 { return float64(s.DownloadRate) }, formatBytesPerSec},
}

// StatCards renders the headline numbers of cur. Values come from cur
// alone; prev only decides the trend and may be nil.
func StatCards(prev, cur *models.TelemetrySnapshot) []StatCard {
	if cur == nil {
		return []StatCard{}
	}

	cards := make([]StatCard, 0, len(statFields))

	for _, f := range statFields {
		v := f.value(cur)
		trend := TrendFlat

		if prev != nil {
			switch p := f.value(prev); {
			case v > p:
				trend = TrendUp
			case v < p:
				trend = TrendDown
			}
		}

		cards = append(cards, StatCard{Title: f.title, Value: f.format(v), Raw: v, Trend: trend})
	}

	return cards
}

// FormatBytes converts bytes to a human readable size.
func FormatBytes(bytes int64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0

	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatCount(v float64) string {
	return fmt.Sprintf("%d", int64(v))
}

func formatRate(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatBytesFloat(v float64) string {
	return FormatBytes(int64(v))
}

func formatBytesPerSec(v float64) string {
	return FormatBytes(int64(v)) + "/s"
}
