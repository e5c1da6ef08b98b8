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

package dashboard

import (
	"github.com/carverauto/netscope/pkg/filter"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
	"github.com/carverauto/netscope/pkg/viewmodel"
)

// Frame is an immutable render snapshot. Renderers must not modify the
// slices or the snapshot it references.
type Frame struct {
	Status    Status      `json:"status"`
	LastError string      `json:"last_error,omitempty"`
	Active    poller.View `json:"active"`
	Paused    bool        `json:"paused"`

	Snapshot  *models.TelemetrySnapshot `json:"snapshot,omitempty"`
	ViewModel viewmodel.ViewModel       `json:"view_model"`
	Cards     []viewmodel.StatCard      `json:"cards"`
	Bandwidth []viewmodel.BandwidthBar  `json:"bandwidth"`
	Latency   []viewmodel.LatencySeries `json:"latency"`

	// Window is the unfiltered packet window Packets was derived from.
	Window      []models.PacketLogEntry     `json:"-"`
	Packets     []models.PacketLogEntry     `json:"packets"`
	Events      []models.SecurityEvent      `json:"events"`
	Connections []models.ExternalConnection `json:"connections"`

	Layout    models.DashboardLayoutConfig `json:"layout"`
	Protocols []string                     `json:"protocols"`
	Query     string                       `json:"query,omitempty"`
	Flags     string                       `json:"flags,omitempty"`
}

// NoMatches reports whether filters hid every row of a non-empty window.
func (f *Frame) NoMatches() bool {
	return len(f.Packets) == 0 && len(f.Window) > 0
}

// View builds the current frame.
func (d *Dashboard) View() Frame {
	active := d.poller.Active()
	paused := d.poller.Paused()

	d.mu.RLock()
	snap, prev, hist := d.snapshot, d.prev, d.history
	window := d.windowLocked(active)
	frame := Frame{
		Status:      d.status,
		LastError:   d.lastError,
		Active:      active,
		Paused:      paused,
		Snapshot:    snap,
		Window:      window,
		Events:      d.events,
		Connections: d.connections,
		Query:       d.query,
		Flags:       d.flags,
	}
	d.mu.RUnlock()

	state := d.filterState(frame.Query, frame.Flags)

	frame.ViewModel = viewmodel.Build(snap)
	frame.Cards = viewmodel.StatCards(prev, snap)
	frame.Bandwidth = viewmodel.MergeBandwidth(hist)
	frame.Latency = viewmodel.MergeLatency(hist)
	frame.Packets = filter.Apply(window, state)
	frame.Connections = viewmodel.SortConnections(frame.Connections)
	frame.Layout = d.layout.Current()
	frame.Protocols = d.protocols.Names()

	return frame
}

// windowLocked picks the live window once the live view has delivered one,
// otherwise the packet log embedded in the latest snapshot.
func (d *Dashboard) windowLocked(active poller.View) []models.PacketLogEntry {
	if active == poller.ViewLive && d.liveLoaded {
		return d.packets
	}

	if d.snapshot == nil {
		return nil
	}

	return d.snapshot.PacketLog
}

func (d *Dashboard) filterState(query, flags string) filter.State {
	return filter.State{Protocols: d.protocols, Query: query, Flags: flags}
}
