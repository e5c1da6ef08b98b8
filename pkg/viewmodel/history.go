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
	"sort"

	"github.com/carverauto/netscope/pkg/models"
)

const historyLabelLayout = "01-02 15:04"

// LatencyPoint is one latency sample for a target.
type LatencyPoint struct {
	Label     string  `json:"label"`
	LatencyMS float64 `json:"latency_ms"`
}

// LatencySeries groups latency samples by target.
type LatencySeries struct {
	Target string         `json:"target"`
	Points []LatencyPoint `json:"points"`
}

// MergeBandwidth converts the historical bandwidth rows into bars, keeping
// backend order.
func MergeBandwidth(hist *models.HistoryResponse) []BandwidthBar {
	if hist == nil {
		return []BandwidthBar{}
	}

	out := make([]BandwidthBar, 0, len(hist.Bandwidth))

	for _, s := range hist.Bandwidth {
		out = append(out, BandwidthBar{
			Label: historyLabel(s.Timestamp),
			Up:    float64(s.UploadBytes),
			Down:  float64(s.DownloadBytes),
		})
	}

	return out
}

// MergeLatency groups latency samples per target, targets sorted by name.
func MergeLatency(hist *models.HistoryResponse) []LatencySeries {
	if hist == nil {
		return []LatencySeries{}
	}

	byTarget := make(map[string][]LatencyPoint)

	for _, s := range hist.Latency {
		byTarget[s.Target] = append(byTarget[s.Target], LatencyPoint{
			Label:     historyLabel(s.Timestamp),
			LatencyMS: float64(s.LatencyMS),
		})
	}

	out := make([]LatencySeries, 0, len(byTarget))
	for target, points := range byTarget {
		out = append(out, LatencySeries{Target: target, Points: points})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })

	return out
}

func historyLabel(ts string) string {
	if t, ok := models.ParseTimestamp(ts); ok {
		return t.Format(historyLabelLayout)
	}

	return ts
}
