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

import (
	"fmt"
	"strings"

	"github.com/carverauto/netscope/pkg/dashboard"
	"github.com/carverauto/netscope/pkg/filter"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
	"github.com/carverauto/netscope/pkg/viewmodel"
	"github.com/charmbracelet/lipgloss"
)

const (
	// UnavailableMessage replaces the dashboard when no data was ever loaded.
	UnavailableMessage = "backend unavailable: press r to retry"
	loadingMessage     = "loading telemetry..."
	maxRows            = 20
	helpText           = "tab view  p pause  r refresh  1-9 protocols  [ ] page  0 all  / search  f flags  " +
		"s server search  L layout  e export  d report  q quit"
)

func (m *Model) View() string {
	f := &m.frame
	s := &m.styles

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case f.Snapshot == nil && f.Status == dashboard.StatusUnavailable:
		b.WriteString(s.error.Render(UnavailableMessage))
	case f.Snapshot == nil:
		b.WriteString(s.hint.Render(loadingMessage))
	default:
		b.WriteString(m.renderBody())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())

	app := s.app
	if m.width > 0 {
		app = app.MaxWidth(m.width)
	}

	return app.Render(b.String())
}

func (m *Model) renderHeader() string {
	f := &m.frame
	s := &m.styles

	tabs := make([]string, 0, len(views))

	for _, v := range views {
		if v == f.Active {
			tabs = append(tabs, s.activeTab.Render(string(v)))
		} else {
			tabs = append(tabs, s.tab.Render(string(v)))
		}
	}

	parts := []string{s.title.Render("netscope"), lipgloss.JoinHorizontal(lipgloss.Top, tabs...)}

	if f.Paused {
		parts = append(parts, s.paused.Render("PAUSED"))
	}

	if f.Status == dashboard.StatusUnavailable && f.Snapshot != nil {
		parts = append(parts, s.error.Render("stale"))
	}

	return strings.Join(parts, "  ")
}

func (m *Model) renderFooter() string {
	s := &m.styles

	var lines []string

	if m.edit != editNone {
		lines = append(lines, m.input.View())
	}

	switch {
	case m.err != nil:
		lines = append(lines, s.error.Render(m.err.Error()))
	case m.notice != "":
		lines = append(lines, s.hint.Render(m.notice))
	case m.frame.LastError != "":
		lines = append(lines, s.error.Render(m.frame.LastError))
	}

	lines = append(lines, s.help.Render(helpText))

	return strings.Join(lines, "\n")
}

func (m *Model) renderBody() string {
	f := &m.frame
	layout := &f.Layout

	var sections []string

	if layout.ShowStatsRow {
		sections = append(sections, m.renderCards())
	}

	if layout.ShowProtocolFilters {
		sections = append(sections, m.renderProtocolFilters())
	}

	switch f.Active {
	case poller.ViewLive:
		sections = append(sections, m.renderPackets())
	case poller.ViewHistorical:
		sections = append(sections, m.renderHistory())
	default:
		sections = append(sections, m.renderOverview()...)
	}

	return strings.Join(sections, "\n")
}

func (m *Model) renderOverview() []string {
	f := &m.frame
	vm := &f.ViewModel
	layout := &f.Layout

	var sections []string

	if layout.ShowGauges {
		sections = append(sections, m.box("Rates", strings.Join([]string{
			m.kv("upload", viewmodel.FormatBytes(int64(vm.UploadRate))+"/s"),
			m.kv("download", viewmodel.FormatBytes(int64(vm.DownloadRate))+"/s"),
			m.kv("packets/s", fmt.Sprintf("%.1f", vm.PacketsPerSec)),
		}, "   ")))
	}

	if layout.ShowLiveBandwidth && len(vm.LiveBandwidth) > 0 {
		sections = append(sections, m.box("Live bandwidth", m.renderBandwidth(vm.LiveBandwidth)))
	}

	if layout.ShowProtocolCharts {
		sections = append(sections,
			m.box("Protocols", m.renderSlices(vm.Protocols, formatInt)),
			m.box("Bytes per protocol", m.renderSlices(vm.BytesPerProtocol, formatBytes)))
	}

	if layout.ShowPacketCharts {
		buckets := make([]viewmodel.Slice, 0, len(vm.PacketSizes))
		for _, p := range vm.PacketSizes {
			buckets = append(buckets, viewmodel.Slice{Name: p.ShortName, Value: p.Value, Color: p.Color})
		}

		sections = append(sections, m.box("Packet sizes", m.renderSlices(buckets, formatInt)))
	}

	if layout.ShowTrafficCategories {
		sections = append(sections, m.box("Traffic categories", m.renderSlices(vm.ConnectionTypes, formatInt)))
	}

	sections = append(sections,
		m.box("Top devices", m.renderDevices(vm.TopDevices)),
		m.box("Security events", m.renderEvents(f.Events)),
		m.box("External connections", m.renderConnections(f.Connections)))

	return sections
}

func (m *Model) renderCards() string {
	s := &m.styles
	cards := make([]string, 0, len(m.frame.Cards))

	for _, c := range m.frame.Cards {
		arrow := ""

		switch c.Trend {
		case viewmodel.TrendUp:
			arrow = s.trendUp.Render(" ▲")
		case viewmodel.TrendDown:
			arrow = s.trendDown.Render(" ▼")
		case viewmodel.TrendFlat:
		}

		cards = append(cards, s.section.Render(s.label.Render(c.Title)+"\n"+s.value.Render(c.Value)+arrow))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) renderProtocolFilters() string {
	s := &m.styles

	enabled := make(map[string]bool, len(m.frame.Protocols))
	for _, p := range m.frame.Protocols {
		enabled[p] = true
	}

	items := make([]string, 0, len(filter.KnownProtocols))

	first := m.page * protocolPageSize

	for i, p := range filter.KnownProtocols {
		label := p
		if i >= first && i < first+protocolPageSize {
			label = fmt.Sprintf("%d:%s", i-first+1, p)
		}

		if enabled[p] {
			items = append(items, s.enabled.Render(label))
		} else {
			items = append(items, s.disabled.Render(label))
		}
	}

	line := strings.Join(items, " ")

	if pages := protocolPages(); pages > 1 {
		line += fmt.Sprintf("  [%d/%d]", m.page+1, pages)
	}

	if m.frame.Query != "" || m.frame.Flags != "" {
		line += "\n" + m.kv("search", m.frame.Query) + "  " + m.kv("flags", m.frame.Flags)
	}

	return line
}

func (m *Model) renderPackets() string {
	f := &m.frame

	if f.NoMatches() {
		return m.box("Packets", m.styles.hint.Render(filter.NoMatchesMessage))
	}

	rows := make([]string, 0, len(f.Packets)+1)
	rows = append(rows, m.styles.label.Render(fmt.Sprintf("%-10s %-6s %-22s %-22s %6s %s", "time", "proto", "src", "dst", "size", "flags")))

	for i := range limitRows(len(f.Packets)) {
		p := &f.Packets[i]

		row := fmt.Sprintf("%-10s %-6s %-22s %-22s %6d %s", p.Time, p.Proto, p.Src, p.Dst, p.Size, p.Flags)
		if p.Suspicious {
			row = m.styles.severity.Render(row)
		}

		rows = append(rows, row)
	}

	return m.box(fmt.Sprintf("Packets (%d of %d)", len(f.Packets), len(f.Window)), strings.Join(rows, "\n"))
}

func (m *Model) renderHistory() string {
	f := &m.frame

	sections := []string{m.box("Bandwidth history", m.renderBandwidth(f.Bandwidth))}

	for _, series := range f.Latency {
		points := make([]string, 0, len(series.Points))
		for _, p := range series.Points {
			points = append(points, fmt.Sprintf("%s %.1fms", p.Label, p.LatencyMS))
		}

		sections = append(sections, m.box("Latency "+series.Target, strings.Join(points, "  ")))
	}

	return strings.Join(sections, "\n")
}

func (m *Model) renderBandwidth(bars []viewmodel.BandwidthBar) string {
	if len(bars) == 0 {
		return m.styles.label.Render("no samples")
	}

	var peak float64

	for _, b := range bars {
		peak = maxFloat(peak, maxFloat(b.Up, b.Down))
	}

	up := lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen))
	down := lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan))
	rows := make([]string, 0, len(bars))

	for _, b := range bars[len(bars)-limitRows(len(bars)):] {
		rows = append(rows, fmt.Sprintf("%-8s %s %s", b.Label,
			up.Render(bar(b.Up, peak, barWidth/2)), down.Render(bar(b.Down, peak, barWidth/2))))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) renderSlices(slices []viewmodel.Slice, format func(int64) string) string {
	if len(slices) == 0 {
		return m.styles.label.Render("no data")
	}

	var peak int64

	for _, sl := range slices {
		if sl.Value > peak {
			peak = sl.Value
		}
	}

	rows := make([]string, 0, len(slices))

	for _, sl := range slices {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(sl.Color))
		rows = append(rows, fmt.Sprintf("%-12s %s %s", sl.Name,
			style.Render(bar(float64(sl.Value), float64(peak), barWidth)), format(sl.Value)))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) renderDevices(devices []viewmodel.DeviceBar) string {
	if len(devices) == 0 {
		return m.styles.label.Render("no devices")
	}

	rows := make([]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, fmt.Sprintf("%-24s down %-10s up %s", d.Name,
			viewmodel.FormatBytes(d.Download), viewmodel.FormatBytes(d.Upload)))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) renderEvents(events []models.SecurityEvent) string {
	if len(events) == 0 {
		return m.styles.label.Render("no security events")
	}

	rows := make([]string, 0, len(events))

	for i := range events[:limitRows(len(events))] {
		e := &events[i]

		sev := string(e.Severity)
		if e.Severity.Rank() >= models.SeverityHigh.Rank() {
			sev = m.styles.severity.Render(sev)
		}

		rows = append(rows, fmt.Sprintf("%-20s %-9s %-16s %-15s %s", e.Timestamp, sev, e.EventType, e.SourceIP, e.Description))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) renderConnections(conns []models.ExternalConnection) string {
	if len(conns) == 0 {
		return m.styles.label.Render("no external connections")
	}

	rows := make([]string, 0, len(conns))

	for i := range conns[:limitRows(len(conns))] {
		c := &conns[i]

		place := strings.Trim(c.City+", "+c.Country, ", ")
		rows = append(rows, fmt.Sprintf("%-15s %-28s %-24s %10s %6d hits",
			c.IP, c.Hostname, place, viewmodel.FormatBytes(int64(c.Bytes)), c.Hits))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) box(title, body string) string {
	return m.styles.section.Render(m.styles.title.Render(title) + "\n" + body)
}

func (m *Model) kv(k, v string) string {
	return m.styles.label.Render(k+" ") + m.styles.value.Render(v)
}

func bar(v, peak float64, width int) string {
	if peak <= 0 || v <= 0 {
		return ""
	}

	n := int(v / peak * float64(width))
	if n < 1 {
		n = 1
	}

	return strings.Repeat("█", n)
}

func limitRows(n int) int {
	if n > maxRows {
		return maxRows
	}

	return n
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}

	return b
}

func formatInt(v int64) string { return fmt.Sprintf("%d", v) }

func formatBytes(v int64) string { return viewmodel.FormatBytes(v) }
