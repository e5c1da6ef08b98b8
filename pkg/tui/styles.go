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

package tui

import "github.com/charmbracelet/lipgloss"

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"
)

const (
	appPadding = 2
	barWidth   = 30
)

type styles struct {
	app, title, tab, activeTab, section, label, value lipgloss.Style
	help, hint, error, enabled, disabled, paused      lipgloss.Style
	trendUp, trendDown, severity                      lipgloss.Style
}

func newStyles() styles {
	return styles{
		app: lipgloss.NewStyle().
			Padding(0, appPadding).
			Foreground(lipgloss.Color(draculaForeground)),
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)).
			Padding(0, 1),
		activeTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Bold(true).
			Underline(true).
			Padding(0, 1),
		section: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaPurple)).
			Padding(0, 1),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)).
			Bold(true),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		enabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		disabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)).
			Strikethrough(true),
		paused: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)).
			Bold(true),
		trendUp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)),
		trendDown: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		severity: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
	}
}
