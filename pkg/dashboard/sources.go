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
	"context"

	"github.com/carverauto/netscope/pkg/cache"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
)

// Source names; one per entity family and view.
const (
	SourceSummary     = "summary"
	SourceEvents      = "security_events"
	SourceConnections = "connections"
	SourceHistory     = "history"
	SourcePackets     = "packets"
	SourceComparison  = "history.historical"
)

func (d *Dashboard) registerViews() error {
	views := []poller.ViewSpec{
		{
			Name:     poller.ViewOverview,
			Interval: d.cfg.OverviewInterval,
			Sources: []poller.Source{
				{Name: SourceSummary, Fetch: d.fetchSummary, Commit: d.commitSummary},
				{Name: SourceEvents, Fetch: d.fetchEvents, Commit: d.commitEvents},
				{Name: SourceConnections, Fetch: d.fetchConnections, Commit: d.commitConnections},
				{Name: SourceHistory, Fetch: d.fetchHistory, Commit: d.commitHistory},
			},
		},
		{
			Name:     poller.ViewLive,
			Interval: d.cfg.LiveInterval,
			TabBound: true,
			Sources: []poller.Source{
				{Name: SourcePackets, Fetch: d.fetchPackets, Commit: d.commitPackets},
			},
		},
		{
			Name:     poller.ViewHistorical,
			TabBound: true,
			Sources: []poller.Source{
				{Name: SourceComparison, Fetch: d.fetchHistory, Commit: d.commitHistory},
			},
		},
	}

	for _, spec := range views {
		if err := d.poller.Register(spec); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dashboard) fetchSummary(ctx context.Context) (interface{}, []byte, error) {
	snap, raw, err := d.backend.Summary(ctx)
	if err != nil {
		d.summaryFailed(err)

		return nil, nil, err
	}

	return snap, raw, nil
}

// summaryFailed marks the backend unavailable when there is nothing at all
// to show: no seed and no summary committed yet.
func (d *Dashboard) summaryFailed(err error) {
	d.mu.Lock()
	d.lastError = err.Error()

	changed := d.status == StatusLoading
	if changed {
		d.status = StatusUnavailable
	}
	d.mu.Unlock()

	if changed {
		d.logger.Error().Err(err).Msg("Initial load failed and no cached data is available")
		d.notify()
	}
}

func (d *Dashboard) commitSummary(r poller.Result) {
	snap := r.Value.(*models.TelemetrySnapshot)

	d.mu.Lock()
	d.prev = d.snapshot
	d.snapshot = snap
	d.status = StatusReady
	d.lastError = ""
	d.mu.Unlock()

	d.persist(cache.SlotSummary, r.Raw)
	d.notify()
}

func (d *Dashboard) fetchEvents(ctx context.Context) (interface{}, []byte, error) {
	events, raw, err := d.backend.SecurityEvents(ctx)
	if err != nil {
		return nil, nil, err
	}

	return events, raw, nil
}

func (d *Dashboard) commitEvents(r poller.Result) {
	events := r.Value.([]models.SecurityEvent)

	d.mu.Lock()
	d.events = events
	d.mu.Unlock()

	d.persist(cache.SlotEvents, r.Raw)
	d.notify()
}

// fetchConnections enriches before commit so the commit itself stays
// free of I/O. The cached bytes are the backend's own response.
func (d *Dashboard) fetchConnections(ctx context.Context) (interface{}, []byte, error) {
	conns, raw, err := d.backend.Connections(ctx)
	if err != nil {
		return nil, nil, err
	}

	conns = d.geo.Enrich(conns)
	conns = d.reverse.Annotate(ctx, conns)

	return conns, raw, nil
}

func (d *Dashboard) commitConnections(r poller.Result) {
	conns := r.Value.([]models.ExternalConnection)

	d.mu.Lock()
	d.connections = conns
	d.mu.Unlock()

	d.persist(cache.SlotConnections, r.Raw)
	d.notify()
}

func (d *Dashboard) fetchHistory(ctx context.Context) (interface{}, []byte, error) {
	hist, raw, err := d.backend.History(ctx)
	if err != nil {
		return nil, nil, err
	}

	return hist, raw, nil
}

func (d *Dashboard) commitHistory(r poller.Result) {
	hist := r.Value.(*models.HistoryResponse)

	d.mu.Lock()
	d.history = hist
	d.mu.Unlock()

	d.persist(cache.SlotHistory, r.Raw)
	d.notify()
}

// fetchPackets uses the last server-side search set by RefetchPackets.
// The packet window is never cached.
func (d *Dashboard) fetchPackets(ctx context.Context) (interface{}, []byte, error) {
	d.mu.RLock()
	q := d.search
	d.mu.RUnlock()

	entries, err := d.backend.Packets(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	return entries, nil, nil
}

func (d *Dashboard) commitPackets(r poller.Result) {
	entries := r.Value.([]models.PacketLogEntry)

	d.mu.Lock()
	d.packets = entries
	d.liveLoaded = true
	d.mu.Unlock()

	d.notify()
}
