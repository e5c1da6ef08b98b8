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

// Package poller drives the periodic backend fetches of every mounted
// view. Each cycle fans out one goroutine per source and commits each
// source on its own success.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/carverauto/netscope/pkg/poller"

// sourceState orders commits for one source. mu is held across the
// freshness check and the commit so two cycles cannot interleave.
type sourceState struct {
	mu        sync.Mutex
	issued    atomic.Uint64
	committed uint64
	stats     SourceStats
}

type mount struct {
	gen    uint64
	cancel context.CancelFunc
}

// Poller owns the view timers.
type Poller struct {
	clock    Clock
	recorder metrics.PollRecorder
	logger   logger.Logger
	tracer   trace.Tracer

	mu      sync.RWMutex
	views   map[View]*ViewSpec
	mounted map[View]*mount
	active  View
	gen     uint64

	sources map[string]*sourceState
	paused  atomic.Bool
	wg      sync.WaitGroup
}

// New creates a poller. A nil clock uses the wall clock and a nil recorder
// discards outcomes.
func New(clock Clock, recorder metrics.PollRecorder, log logger.Logger) *Poller {
	if clock == nil {
		clock = RealClock()
	}

	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Poller{
		clock:    clock,
		recorder: recorder,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		views:    make(map[View]*ViewSpec),
		mounted:  make(map[View]*mount),
		sources:  make(map[string]*sourceState),
	}
}

// Register adds a view. Source names must be unique across views.
func (p *Poller) Register(spec ViewSpec) error {
	if spec.Interval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, spec.Name)
	}

	if len(spec.Sources) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSources, spec.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.views[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateView, spec.Name)
	}

	for _, src := range spec.Sources {
		if _, ok := p.sources[src.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, src.Name)
		}
	}

	for _, src := range spec.Sources {
		p.sources[src.Name] = &sourceState{}
	}

	s := spec
	p.views[spec.Name] = &s

	return nil
}

// Mount starts a view: one immediate fetch, then one per interval until
// Unmount. Mounting a mounted view is a no-op.
func (p *Poller) Mount(ctx context.Context, view View) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.mountLocked(ctx, view)
}

func (p *Poller) mountLocked(ctx context.Context, view View) error {
	spec, ok := p.views[view]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	if _, ok := p.mounted[view]; ok {
		return nil
	}

	p.gen++

	loopCtx, cancel := context.WithCancel(ctx)
	m := &mount{gen: p.gen, cancel: cancel}
	p.mounted[view] = m

	p.logger.Info().Str("view", string(view)).Dur("interval", spec.Interval).Msg("Mounting view")

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		p.run(ctx, loopCtx, spec, m.gen)
	}()

	return nil
}

// run is the per-view loop. Fetches use ctx so that unmounting (which
// cancels loopCtx) never aborts an in-flight request. The ticker is armed
// before the initial fetch so a hung request cannot hold back later ticks.
func (p *Poller) run(ctx, loopCtx context.Context, spec *ViewSpec, gen uint64) {
	if spec.Interval == 0 {
		p.tick(ctx, spec, gen)

		return
	}

	ticker := p.clock.Ticker(spec.Interval)
	defer ticker.Stop()

	p.spawnTick(ctx, spec, gen)

	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.Chan():
			p.spawnTick(ctx, spec, gen)
		}
	}
}

func (p *Poller) spawnTick(ctx context.Context, spec *ViewSpec, gen uint64) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		p.tick(ctx, spec, gen)
	}()
}

func (p *Poller) tick(ctx context.Context, spec *ViewSpec, gen uint64) {
	if !p.shouldPoll(spec) {
		return
	}

	if err := p.cycle(ctx, spec, gen); err != nil {
		p.logger.Warn().Err(err).Str("view", string(spec.Name)).Msg("Poll cycle had failures")
	}
}

func (p *Poller) shouldPoll(spec *ViewSpec) bool {
	if p.paused.Load() {
		return false
	}

	if !spec.TabBound {
		return true
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.active == spec.Name
}

// Unmount stops the view's timer. In-flight results of the view are
// discarded when they arrive.
func (p *Poller) Unmount(view View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unmountLocked(view)
}

func (p *Poller) unmountLocked(view View) {
	m, ok := p.mounted[view]
	if !ok {
		return
	}

	m.cancel()
	delete(p.mounted, view)

	p.logger.Info().Str("view", string(view)).Msg("Unmounted view")
}

// Mounted reports whether view currently has a running timer or fetch.
func (p *Poller) Mounted(view View) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.mounted[view]

	return ok
}

// SetActive switches the active tab. A tab-bound previous view is
// unmounted and a tab-bound new view is mounted.
func (p *Poller) SetActive(ctx context.Context, view View) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	spec, ok := p.views[view]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	prev := p.active
	if prev == view {
		return nil
	}

	if prevSpec, ok := p.views[prev]; ok && prevSpec.TabBound {
		p.unmountLocked(prev)
	}

	p.active = view

	if spec.TabBound {
		return p.mountLocked(ctx, view)
	}

	return nil
}

// Active returns the active view.
func (p *Poller) Active() View {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.active
}

// Pause gates every timer. Resuming never fires a catch-up fetch.
func (p *Poller) Pause(paused bool) {
	if p.paused.Swap(paused) != paused {
		p.logger.Info().Bool("paused", paused).Msg("Polling pause toggled")
	}
}

func (p *Poller) Paused() bool {
	return p.paused.Load()
}

// Trigger runs one cycle of view now, regardless of pause, and returns
// the joined fetch errors.
func (p *Poller) Trigger(ctx context.Context, view View) error {
	p.mu.RLock()
	spec, ok := p.views[view]
	p.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	return p.cycle(ctx, spec, 0)
}

// cycle fans out one fetch per source. Sources commit independently and a
// failing source never cancels its siblings. gen zero skips the mount check.
func (p *Poller) cycle(ctx context.Context, spec *ViewSpec, gen uint64) error {
	ctx, span := p.tracer.Start(ctx, "poller.cycle", trace.WithAttributes(
		attribute.String("view", string(spec.Name)),
		attribute.Int("sources", len(spec.Sources)),
	))
	defer span.End()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for i := range spec.Sources {
		src := spec.Sources[i]
		state := p.state(src.Name)
		seq := state.issued.Add(1)

		g.Go(func() error {
			if err := p.fetch(ctx, spec.Name, gen, src, state, seq); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source fetch failed")
	}

	return err
}

func (p *Poller) fetch(ctx context.Context, view View, gen uint64, src Source, state *sourceState, seq uint64) error {
	ctx, span := p.tracer.Start(ctx, "poller.fetch", trace.WithAttributes(
		attribute.String("source", src.Name),
		attribute.String("view", string(view)),
		attribute.Int64("seq", int64(seq)), //nolint:gosec // sequence numbers stay far below 2^63
	))
	defer span.End()

	start := p.clock.Now()
	value, raw, err := src.Fetch(ctx)
	elapsed := p.clock.Now().Sub(start)

	p.recorder.RecordPoll(ctx, src.Name, elapsed, err)

	state.mu.Lock()
	defer state.mu.Unlock()

	if err != nil {
		state.stats.Failure++
		state.stats.LastError = err.Error()

		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")

		return fmt.Errorf("%s: %w", src.Name, err)
	}

	state.stats.Success++
	state.stats.LastSuccess = p.clock.Now()

	if seq <= state.committed {
		state.stats.Discarded++

		span.SetAttributes(attribute.String("discarded", "stale"))

		p.logger.Debug().Str("source", src.Name).Uint64("seq", seq).Uint64("committed", state.committed).
			Msg("Discarding stale response")

		return nil
	}

	if gen != 0 && !p.isCurrent(view, gen) {
		state.stats.Discarded++

		span.SetAttributes(attribute.String("discarded", "unmounted"))

		p.logger.Debug().Str("source", src.Name).Str("view", string(view)).
			Msg("Discarding response for unmounted view")

		return nil
	}

	state.committed = seq
	state.stats.LastSeq = seq

	if src.Commit != nil {
		src.Commit(Result{Seq: seq, Value: value, Raw: raw})
	}

	return nil
}

func (p *Poller) isCurrent(view View, gen uint64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.mounted[view]

	return ok && m.gen == gen
}

func (p *Poller) state(source string) *sourceState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.sources[source]
}

// Stats returns a copy of every source's counters.
func (p *Poller) Stats() map[string]SourceStats {
	p.mu.RLock()
	names := make(map[string]*sourceState, len(p.sources))

	for name, s := range p.sources {
		names[name] = s
	}
	p.mu.RUnlock()

	out := make(map[string]SourceStats, len(names))

	for name, s := range names {
		s.mu.Lock()
		out[name] = s.stats
		s.mu.Unlock()
	}

	return out
}

// Stop unmounts every view and waits for in-flight fetches until ctx
// expires.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	for view := range p.mounted {
		p.unmountLocked(view)
	}
	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errStopTimedOut, ctx.Err())
	}
}

// StopTimeout is how long Close waits for in-flight polls.
const StopTimeout = 10 * time.Second

// Close stops the poller with StopTimeout.
func (p *Poller) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()

	return p.Stop(ctx)
}
