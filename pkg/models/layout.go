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

import "encoding/json"

// Layout flag names, identical to the persisted JSON keys.
const (
	FlagStatsRow          = "showStatsRow"
	FlagLiveBandwidth     = "showLiveBandwidth"
	FlagGauges            = "showGauges"
	FlagProtocolFilters   = "showProtocolFilters"
	FlagProtocolCharts    = "showProtocolCharts"
	FlagPacketCharts      = "showPacketCharts"
	FlagTrafficCategories = "showTrafficCategories"
)

// LayoutFlags lists the flags in display order.
func LayoutFlags() []string {
	return []string{
		FlagStatsRow,
		FlagLiveBandwidth,
		FlagGauges,
		FlagProtocolFilters,
		FlagProtocolCharts,
		FlagPacketCharts,
		FlagTrafficCategories,
	}
}

// DashboardLayoutConfig controls which dashboard widgets are shown.
type DashboardLayoutConfig struct {
	ShowStatsRow          bool `json:"showStatsRow"`
	ShowLiveBandwidth     bool `json:"showLiveBandwidth"`
	ShowGauges            bool `json:"showGauges"`
	ShowProtocolFilters   bool `json:"showProtocolFilters"`
	ShowProtocolCharts    bool `json:"showProtocolCharts"`
	ShowPacketCharts      bool `json:"showPacketCharts"`
	ShowTrafficCategories bool `json:"showTrafficCategories"`
}

// DefaultLayout shows every widget.
func DefaultLayout() DashboardLayoutConfig {
	return DashboardLayoutConfig{
		ShowStatsRow:          true,
		ShowLiveBandwidth:     true,
		ShowGauges:            true,
		ShowProtocolFilters:   true,
		ShowProtocolCharts:    true,
		ShowPacketCharts:      true,
		ShowTrafficCategories: true,
	}
}

// UnmarshalJSON starts from DefaultLayout so a key missing from an older
// blob stays visible instead of silently hiding a widget.
func (c *DashboardLayoutConfig) UnmarshalJSON(b []byte) error {
	type plain DashboardLayoutConfig

	decoded := plain(DefaultLayout())
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}

	*c = DashboardLayoutConfig(decoded)

	return nil
}

// Get returns the value of the named flag.
func (c *DashboardLayoutConfig) Get(flag string) (bool, bool) {
	p := c.field(flag)
	if p == nil {
		return false, false
	}

	return *p, true
}

// Set assigns the named flag and reports whether the name was known.
func (c *DashboardLayoutConfig) Set(flag string, value bool) bool {
	p := c.field(flag)
	if p == nil {
		return false
	}

	*p = value

	return true
}

func (c *DashboardLayoutConfig) field(flag string) *bool {
	switch flag {
	case FlagStatsRow:
		return &c.ShowStatsRow
	case FlagLiveBandwidth:
		return &c.ShowLiveBandwidth
	case FlagGauges:
		return &c.ShowGauges
	case FlagProtocolFilters:
		return &c.ShowProtocolFilters
	case FlagProtocolCharts:
		return &c.ShowProtocolCharts
	case FlagPacketCharts:
		return &c.ShowPacketCharts
	case FlagTrafficCategories:
		return &c.ShowTrafficCategories
	default:
		return nil
	}
}
