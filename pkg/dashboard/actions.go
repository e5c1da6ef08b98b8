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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/filter"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
)

// ErrRuleNameRequired rejects a rule without a name.
var ErrRuleNameRequired = errors.New("rule name is required")

// ToggleProtocol flips a protocol in the filter set and returns its new
// state.
func (d *Dashboard) ToggleProtocol(name string) bool {
	enabled := d.protocols.Toggle(name)
	d.notify()

	return enabled
}

// ResetProtocols re-enables every known protocol.
func (d *Dashboard) ResetProtocols() {
	d.protocols.EnableAll()
	d.notify()
}

// SetQuery sets the local free-text filter.
func (d *Dashboard) SetQuery(q string) {
	d.mu.Lock()
	d.query = q
	d.mu.Unlock()

	d.notify()
}

// SetFlags sets the local TCP flag filter.
func (d *Dashboard) SetFlags(flags string) {
	d.mu.Lock()
	d.flags = flags
	d.mu.Unlock()

	d.notify()
}

// Filter returns the current filter inputs.
func (d *Dashboard) Filter() filter.State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return filter.State{Protocols: d.protocols.Clone(), Query: d.query, Flags: d.flags}
}

// RefetchPackets turns the current query and flags into a server-side
// search and fetches the live window with it. Later live polls keep using
// the same search.
func (d *Dashboard) RefetchPackets(ctx context.Context) (filter.QueryClass, error) {
	d.mu.Lock()
	d.search = api.PacketQuery{
		Limit:  d.cfg.PacketLimit,
		Search: strings.TrimSpace(d.query),
		Flags:  strings.TrimSpace(d.flags),
	}
	q := d.search
	d.mu.Unlock()

	class := filter.ClassifyQuery(q.Search)

	d.logger.Debug().Str("kind", class.Kind.String()).Str("value", class.Value).Str("flags", q.Flags).
		Msg("Refetching packet window")

	return class, d.poller.Trigger(ctx, poller.ViewLive)
}

// ExportPackets writes the filtered packet window as CSV.
func (d *Dashboard) ExportPackets(w io.Writer) (int, error) {
	frame := d.View()

	if err := filter.ExportCSV(w, frame.Packets); err != nil {
		return 0, fmt.Errorf("failed to export packets: %w", err)
	}

	return len(frame.Packets), nil
}

// Layout

func (d *Dashboard) ToggleLayout(ctx context.Context, flag string) (models.DashboardLayoutConfig, error) {
	cfg, err := d.layout.Toggle(ctx, flag)
	if err != nil {
		return cfg, err
	}

	d.notify()

	return cfg, nil
}

func (d *Dashboard) ResetLayout(ctx context.Context) (models.DashboardLayoutConfig, error) {
	cfg, err := d.layout.Reset(ctx)
	if err != nil {
		return cfg, err
	}

	d.notify()

	return cfg, nil
}

// Rules

func (d *Dashboard) Rules(ctx context.Context) ([]models.AlertRule, error) {
	return d.backend.ListRules(ctx)
}

// SaveRule creates a rule without an ID and updates one with an ID.
func (d *Dashboard) SaveRule(ctx context.Context, rule models.AlertRule) (*models.AlertRule, error) {
	if strings.TrimSpace(rule.Name) == "" {
		return nil, ErrRuleNameRequired
	}

	if rule.ID == nil {
		return d.backend.CreateRule(ctx, rule)
	}

	return d.backend.UpdateRule(ctx, rule)
}

func (d *Dashboard) DeleteRule(ctx context.Context, id int64) error {
	return d.backend.DeleteRule(ctx, id)
}

// DownloadReport saves a PDF report into the configured directory.
func (d *Dashboard) DownloadReport(ctx context.Context, reportType string) (string, error) {
	path, err := d.backend.DownloadReport(ctx, reportType, d.cfg.ReportDir)
	if err != nil {
		return "", err
	}

	d.logger.Info().Str("type", reportType).Str("path", path).Msg("Report downloaded")

	return path, nil
}
