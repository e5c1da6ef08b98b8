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

// Package dashboard is the single state owner of the telemetry client. It
// hydrates from the cache, registers the poller views and commits every
// successful response into in-memory state and its cache slot.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/cache"
	"github.com/carverauto/netscope/pkg/filter"
	"github.com/carverauto/netscope/pkg/geo"
	"github.com/carverauto/netscope/pkg/layout"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/metrics"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
)

const (
	DefaultOverviewInterval = 2 * time.Second
	DefaultLiveInterval     = 1 * time.Second
	persistTimeout          = 5 * time.Second
)

// Status is the load state shown while no data is available.
type Status string

const (
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusUnavailable Status = "unavailable"
)

//go:generate mockgen -destination=mock_dashboard.go -package=dashboard github.com/carverauto/netscope/pkg/dashboard Backend

// Backend is the subset of the API client the dashboard drives.
type Backend interface {
	Summary(ctx context.Context) (*models.TelemetrySnapshot, []byte, error)
	History(ctx context.Context) (*models.HistoryResponse, []byte, error)
	SecurityEvents(ctx context.Context) ([]models.SecurityEvent, []byte, error)
	Connections(ctx context.Context) ([]models.ExternalConnection, []byte, error)
	Packets(ctx context.Context, q api.PacketQuery) ([]models.PacketLogEntry, error)
	ListRules(ctx context.Context) ([]models.AlertRule, error)
	CreateRule(ctx context.Context, rule models.AlertRule) (*models.AlertRule, error)
	UpdateRule(ctx context.Context, rule models.AlertRule) (*models.AlertRule, error)
	DeleteRule(ctx context.Context, id int64) error
	DownloadReport(ctx context.Context, reportType, dir string) (string, error)
}

// Config holds the cadences and packet window size.
type Config struct {
	OverviewInterval time.Duration
	LiveInterval     time.Duration
	PacketLimit      int
	ReportDir        string
}

// Option customises a Dashboard.
type Option func(*Dashboard)

// WithClock replaces the wall clock used by the poller.
func WithClock(clock poller.Clock) Option {
	return func(d *Dashboard) {
		d.clock = clock
	}
}

// WithRecorder records poll outcomes.
func WithRecorder(recorder metrics.PollRecorder) Option {
	return func(d *Dashboard) {
		d.recorder = recorder
	}
}

// WithGeo fills connection locations from a GeoIP database.
func WithGeo(enricher *geo.Enricher) Option {
	return func(d *Dashboard) {
		d.geo = enricher
	}
}

// WithReverseDNS fills connection hostnames from PTR records.
func WithReverseDNS(resolver *geo.ReverseResolver) Option {
	return func(d *Dashboard) {
		d.reverse = resolver
	}
}

// Dashboard owns every in-memory entity. Entities are replaced wholesale
// under mu, never patched.
type Dashboard struct {
	cfg      Config
	backend  Backend
	cache    *cache.Cache
	layout   *layout.Store
	poller   *poller.Poller
	clock    poller.Clock
	recorder metrics.PollRecorder
	geo      *geo.Enricher
	reverse  *geo.ReverseResolver
	logger   logger.Logger

	mu          sync.RWMutex
	status      Status
	seeded      bool
	lastError   string
	snapshot    *models.TelemetrySnapshot
	prev        *models.TelemetrySnapshot
	history     *models.HistoryResponse
	events      []models.SecurityEvent
	connections []models.ExternalConnection
	packets     []models.PacketLogEntry
	liveLoaded  bool
	query       string
	flags       string
	search      api.PacketQuery

	protocols *filter.ProtocolSet
	updates   chan struct{}
	unwatch   context.CancelFunc
}

// New wires the dashboard and registers its views. Nothing is fetched
// until Start.
func New(cfg Config, backend Backend, c *cache.Cache, l *layout.Store, log logger.Logger, opts ...Option) (*Dashboard, error) {
	if cfg.OverviewInterval <= 0 {
		cfg.OverviewInterval = DefaultOverviewInterval
	}

	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = DefaultLiveInterval
	}

	if cfg.PacketLimit <= 0 {
		cfg.PacketLimit = api.DefaultPacketLimit
	}

	d := &Dashboard{
		cfg:       cfg,
		backend:   backend,
		cache:     c,
		layout:    l,
		logger:    log,
		status:    StatusLoading,
		search:    api.PacketQuery{Limit: cfg.PacketLimit},
		protocols: filter.NewProtocolSet(),
		updates:   make(chan struct{}, 1),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.poller = poller.New(d.clock, d.recorder, log)

	if err := d.registerViews(); err != nil {
		return nil, err
	}

	return d, nil
}

// Seed is the first initialisation phase: hydrate from cache and load the
// saved layout. A seed makes the dashboard ready before any fetch.
func (d *Dashboard) Seed(ctx context.Context) {
	seed := d.cache.Seed(ctx)
	d.layout.Load(ctx)

	d.mu.Lock()

	if seed.Summary != nil {
		d.snapshot = seed.Summary
	}

	if seed.History != nil {
		d.history = seed.History
	}

	if seed.HasEvents() {
		d.events = seed.Events
	}

	if seed.HasConnections() {
		d.connections = seed.Connections
	}

	d.seeded = !seed.Empty()
	if d.seeded {
		d.status = StatusReady
	}

	d.mu.Unlock()

	d.logger.Info().Bool("seeded", !seed.Empty()).Msg("Dashboard seeded from cache")

	d.notify()
}

// Start is the steady-state phase: the overview view is mounted and made
// active, which issues its first fetch immediately.
// Layout changes made by other consoles on a shared store are followed
// until Stop.
func (d *Dashboard) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)

	if err := d.layout.Watch(watchCtx, func(models.DashboardLayoutConfig) { d.notify() }); err != nil {
		d.logger.Warn().Err(err).Msg("Layout changes from other consoles will not be followed")
	}

	d.mu.Lock()
	d.unwatch = cancel
	d.mu.Unlock()

	if err := d.poller.Mount(ctx, poller.ViewOverview); err != nil {
		return err
	}

	return d.poller.SetActive(ctx, poller.ViewOverview)
}

// Stop halts every view and waits for in-flight fetches.
func (d *Dashboard) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.unwatch != nil {
		d.unwatch()
		d.unwatch = nil
	}
	d.mu.Unlock()

	return d.poller.Stop(ctx)
}

// SetActive switches the active view.
func (d *Dashboard) SetActive(ctx context.Context, view poller.View) error {
	if err := d.poller.SetActive(ctx, view); err != nil {
		return err
	}

	d.notify()

	return nil
}

// Refresh fetches view now, regardless of pause.
func (d *Dashboard) Refresh(ctx context.Context, view poller.View) error {
	return d.poller.Trigger(ctx, view)
}

// Pause suppresses new fetches. Displayed data is kept.
func (d *Dashboard) Pause(paused bool) {
	d.poller.Pause(paused)
	d.notify()
}

func (d *Dashboard) TogglePause() bool {
	paused := !d.poller.Paused()
	d.Pause(paused)

	return paused
}

// Status returns the load state.
func (d *Dashboard) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.status
}

// Retry re-runs the initial overview fetch after a total load failure.
func (d *Dashboard) Retry(ctx context.Context) error {
	d.mu.Lock()
	if d.status == StatusUnavailable {
		d.status = StatusLoading
	}
	d.mu.Unlock()

	d.notify()

	return d.poller.Trigger(ctx, poller.ViewOverview)
}

// PollStats exposes per-source poll counters.
func (d *Dashboard) PollStats() map[string]poller.SourceStats {
	return d.poller.Stats()
}

// PollHistory returns the recent fetch outcomes of source when the
// configured recorder keeps them.
func (d *Dashboard) PollHistory(source string) []metrics.Point {
	h, ok := d.recorder.(interface{ History(string) []metrics.Point })
	if !ok {
		return nil
	}

	return h.History(source)
}

// Updates signals after every commit or state change. Signals coalesce:
// a slow reader sees one pending notification, never a backlog.
func (d *Dashboard) Updates() <-chan struct{} {
	return d.updates
}

func (d *Dashboard) notify() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}

func (d *Dashboard) persist(slot cache.Slot, raw []byte) {
	if len(raw) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := d.cache.Store(ctx, slot, raw); err != nil {
		d.logger.Warn().Err(err).Str("slot", string(slot)).Msg("Failed to persist cache slot")
	}
}
