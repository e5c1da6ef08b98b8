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

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Count is an int64 that never fails to decode. Backends and old cache
// entries have shipped counters as floats, numeric strings and null; all of
// those decode, anything else becomes zero.
type Count int64

func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count(clampInt64(decodeLenientFloat(b)))

	return nil
}

// clampInt64 saturates f to the int64 range.
func clampInt64(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// Gauge is the float64 counterpart of Count, used for rates.
type Gauge float64

func (g *Gauge) UnmarshalJSON(b []byte) error {
	*g = Gauge(decodeLenientFloat(b))

	return nil
}

func decodeLenientFloat(b []byte) float64 {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0
		}

		b = []byte(s)
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	if math.Abs(f) >= 1e15 {
		return f
	}

	return math.Round(f*1e6) / 1e6
}

// Sum totals the values of a count map.
func Sum(m map[string]Count) int64 {
	var total int64

	for _, v := range m {
		total += int64(v)
	}

	return total
}
