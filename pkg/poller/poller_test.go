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

package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

var errBoom = errors.New("backend unavailable")

type fixture struct {
	ctrl  *gomock.Controller
	clock *MockClock
}

func newTestPoller(t *testing.T, recorder *fakeRecorder) (*Poller, *fixture) {
	t.Helper()

	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Unix(1700000000, 0)).AnyTimes()

	var p *Poller
	if recorder != nil {
		p = New(clock, recorder, logger.NewTestLogger())
	} else {
		p = New(clock, nil, logger.NewTestLogger())
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		assert.NoError(t, p.Stop(ctx))
	})

	return p, &fixture{ctrl: ctrl, clock: clock}
}

// ticker wires a controllable ticker for interval and returns its channel.
func (f *fixture) ticker(interval time.Duration) chan time.Time {
	ch := make(chan time.Time)

	var recv <-chan time.Time = ch

	ticker := NewMockTicker(f.ctrl)
	ticker.EXPECT().Chan().Return(recv).AnyTimes()
	ticker.EXPECT().Stop().AnyTimes()
	f.clock.EXPECT().Ticker(interval).Return(ticker).AnyTimes()

	return ch
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[string][]error
}

func (r *fakeRecorder) RecordPoll(_ context.Context, source string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.outcomes == nil {
		r.outcomes = map[string][]error{}
	}

	r.outcomes[source] = append(r.outcomes[source], err)
}

func committing(name string, fetch func(context.Context) (interface{}, []byte, error), out chan<- Result) Source {
	return Source{
		Name:  name,
		Fetch: fetch,
		Commit: func(r Result) {
			out <- r
		},
	}
}

func waitCommit(t *testing.T, ch <-chan Result) Result {
	t.Helper()

	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for commit")
	}

	return Result{}
}

func TestMount_ImmediateFetchThenEveryTick(t *testing.T) {
	p, f := newTestPoller(t, nil)
	tick := f.ticker(2 * time.Second)
	commits := make(chan Result, 10)

	var calls atomic.Int32

	require.NoError(t, p.Register(ViewSpec{
		Name:     ViewOverview,
		Interval: 2 * time.Second,
		Sources: []Source{committing("summary", func(context.Context) (interface{}, []byte, error) {
			return calls.Add(1), []byte(`{}`), nil
		}, commits)},
	}))

	ctx := context.Background()
	require.NoError(t, p.Mount(ctx, ViewOverview))
	require.NoError(t, p.Mount(ctx, ViewOverview))

	first := waitCommit(t, commits)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, int32(1), first.Value)
	assert.Equal(t, []byte(`{}`), first.Raw)

	tick <- time.Now()
	assert.Equal(t, uint64(2), waitCommit(t, commits).Seq)

	p.Pause(true)
	assert.True(t, p.Paused())

	tick <- time.Now()
	assert.Never(t, func() bool { return calls.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	p.Pause(false)
	assert.Never(t, func() bool { return calls.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond,
		"resuming must not fire a catch-up fetch")

	tick <- time.Now()
	assert.Equal(t, uint64(3), waitCommit(t, commits).Seq)
}

func TestMount_HungInitialFetchDoesNotStallTicks(t *testing.T) {
	p, f := newTestPoller(t, nil)
	tick := f.ticker(time.Second)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	var (
		summaryCalls atomic.Int32
		eventCalls   atomic.Int32
	)

	require.NoError(t, p.Register(ViewSpec{
		Name:     ViewOverview,
		Interval: time.Second,
		Sources: []Source{
			{
				Name: "summary",
				Fetch: func(ctx context.Context) (interface{}, []byte, error) {
					if summaryCalls.Add(1) == 1 {
						<-release
					}

					return nil, nil, errBoom
				},
				Commit: func(Result) {},
			},
			{
				Name: "events",
				Fetch: func(context.Context) (interface{}, []byte, error) {
					return eventCalls.Add(1), nil, nil
				},
				Commit: func(Result) {},
			},
		},
	}))

	require.NoError(t, p.Mount(context.Background(), ViewOverview))
	require.Eventually(t, func() bool { return eventCalls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	for i := 0; i < 3; i++ {
		select {
		case tick <- time.Now():
		case <-time.After(2 * time.Second):
			require.FailNow(t, "ticker not armed while the first fetch is in flight")
		}
	}

	require.Eventually(t, func() bool { return eventCalls.Load() == 4 }, 2*time.Second, 5*time.Millisecond)
}

func TestCycle_EachSourceCommitsOnItsOwnSuccess(t *testing.T) {
	rec := &fakeRecorder{}
	p, _ := newTestPoller(t, rec)
	commits := make(chan Result, 10)

	require.NoError(t, p.Register(ViewSpec{
		Name: ViewOverview,
		Sources: []Source{
			committing("summary", func(context.Context) (interface{}, []byte, error) {
				return "S1", []byte(`"S1"`), nil
			}, commits),
			committing("events", func(context.Context) (interface{}, []byte, error) {
				return nil, nil, errBoom
			}, commits),
		},
	}))

	err := p.Trigger(context.Background(), ViewOverview)
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "events")

	r := waitCommit(t, commits)
	assert.Equal(t, "S1", r.Value)
	assert.Empty(t, commits)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats["summary"].Success)
	assert.Equal(t, uint64(1), stats["summary"].LastSeq)
	assert.Equal(t, uint64(1), stats["events"].Failure)
	assert.Equal(t, errBoom.Error(), stats["events"].LastError)
	assert.Zero(t, stats["events"].LastSeq)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	assert.Equal(t, []error{nil}, rec.outcomes["summary"])
	assert.Equal(t, []error{errBoom}, rec.outcomes["events"])
}

func TestCycle_RecordsSpans(t *testing.T) {
	p, _ := newTestPoller(t, nil)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	p.tracer = tp.Tracer(tracerName)

	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	require.NoError(t, p.Register(ViewSpec{
		Name: ViewOverview,
		Sources: []Source{
			{Name: "summary", Fetch: func(context.Context) (interface{}, []byte, error) { return "S1", nil, nil }},
			{Name: "events", Fetch: func(context.Context) (interface{}, []byte, error) { return nil, nil, errBoom }},
		},
	}))

	require.ErrorIs(t, p.Trigger(context.Background(), ViewOverview), errBoom)

	ended := spans.Ended()
	require.Len(t, ended, 3)

	byName := make(map[string]sdktrace.ReadOnlySpan)

	for _, s := range ended {
		if s.Name() == "poller.fetch" {
			for _, kv := range s.Attributes() {
				if kv.Key == "source" {
					byName[kv.Value.AsString()] = s
				}
			}

			continue
		}

		byName[s.Name()] = s
	}

	cycle := byName["poller.cycle"]
	require.NotNil(t, cycle)
	assert.Equal(t, codes.Error, cycle.Status().Code)
	assert.Contains(t, cycle.Attributes(), attribute.String("view", string(ViewOverview)))

	for _, name := range []string{"summary", "events"} {
		s := byName[name]
		require.NotNil(t, s, name)
		assert.Equal(t, cycle.SpanContext().SpanID(), s.Parent().SpanID(), name)
	}

	assert.Equal(t, codes.Unset, byName["summary"].Status().Code)
	assert.Equal(t, codes.Error, byName["events"].Status().Code)
	require.Len(t, byName["events"].Events(), 1)
	assert.Equal(t, "exception", byName["events"].Events()[0].Name)
}

func TestCycle_FailedPollLeavesStateUnchanged(t *testing.T) {
	p, _ := newTestPoller(t, nil)

	var (
		mu    sync.Mutex
		state = "S1"
		fail  atomic.Bool
	)

	require.NoError(t, p.Register(ViewSpec{
		Name: ViewOverview,
		Sources: []Source{{
			Name: "summary",
			Fetch: func(context.Context) (interface{}, []byte, error) {
				if fail.Load() {
					return nil, nil, errBoom
				}

				return "S2", nil, nil
			},
			Commit: func(r Result) {
				mu.Lock()
				state = r.Value.(string)
				mu.Unlock()
			},
		}},
	}))

	fail.Store(true)
	require.Error(t, p.Trigger(context.Background(), ViewOverview))

	mu.Lock()
	assert.Equal(t, "S1", state)
	mu.Unlock()

	fail.Store(false)
	require.NoError(t, p.Trigger(context.Background(), ViewOverview))

	mu.Lock()
	assert.Equal(t, "S2", state)
	mu.Unlock()
}

func TestCycle_StaleResponseDiscarded(t *testing.T) {
	p, _ := newTestPoller(t, nil)
	commits := make(chan Result, 10)

	var calls atomic.Int32

	entered := make(chan struct{})
	release := make(chan struct{})

	require.NoError(t, p.Register(ViewSpec{
		Name: ViewOverview,
		Sources: []Source{committing("summary", func(context.Context) (interface{}, []byte, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-release

				return "old", nil, nil
			}

			return "new", nil, nil
		}, commits)},
	}))

	ctx := context.Background()
	slow := make(chan error, 1)

	go func() { slow <- p.Trigger(ctx, ViewOverview) }()

	<-entered
	require.NoError(t, p.Trigger(ctx, ViewOverview))

	r := waitCommit(t, commits)
	assert.Equal(t, "new", r.Value)
	assert.Equal(t, uint64(2), r.Seq)

	close(release)
	require.NoError(t, <-slow)
	assert.Empty(t, commits)

	stats := p.Stats()["summary"]
	assert.Equal(t, uint64(1), stats.Discarded)
	assert.Equal(t, uint64(2), stats.LastSeq)
}

func TestUnmount_DiscardsInFlightResult(t *testing.T) {
	p, f := newTestPoller(t, nil)
	f.ticker(time.Second)
	commits := make(chan Result, 10)

	entered := make(chan struct{})
	release := make(chan struct{})

	require.NoError(t, p.Register(ViewSpec{
		Name:    ViewOverview,
		Sources: []Source{committing("summary", okFetch("s"), commits)},
	}))
	require.NoError(t, p.Register(ViewSpec{
		Name:     ViewLive,
		Interval: time.Second,
		TabBound: true,
		Sources: []Source{committing("packets", func(ctx context.Context) (interface{}, []byte, error) {
			close(entered)
			<-release

			assert.NoError(t, ctx.Err(), "unmount must not cancel in-flight fetches")

			return "late", nil, nil
		}, commits)},
	}))

	ctx := context.Background()
	require.NoError(t, p.SetActive(ctx, ViewLive))
	assert.Equal(t, ViewLive, p.Active())

	<-entered
	require.NoError(t, p.SetActive(ctx, ViewOverview))
	assert.False(t, p.Mounted(ViewLive))

	close(release)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))

	assert.Empty(t, commits)
	assert.Equal(t, uint64(1), p.Stats()["packets"].Discarded)
}

func TestSetActive_TabBoundViews(t *testing.T) {
	p, f := newTestPoller(t, nil)
	liveTick := f.ticker(time.Second)
	commits := make(chan Result, 10)

	require.NoError(t, p.Register(ViewSpec{
		Name:     ViewLive,
		Interval: time.Second,
		TabBound: true,
		Sources:  []Source{committing("packets", okFetch("p"), commits)},
	}))
	require.NoError(t, p.Register(ViewSpec{
		Name:     ViewHistorical,
		TabBound: true,
		Sources:  []Source{committing("history", okFetch("h"), commits)},
	}))

	ctx := context.Background()

	require.NoError(t, p.SetActive(ctx, ViewLive))
	assert.Equal(t, "p", waitCommit(t, commits).Value)

	liveTick <- time.Now()
	assert.Equal(t, "p", waitCommit(t, commits).Value)

	require.NoError(t, p.SetActive(ctx, ViewHistorical))
	assert.False(t, p.Mounted(ViewLive))
	assert.True(t, p.Mounted(ViewHistorical))
	assert.Equal(t, "h", waitCommit(t, commits).Value)

	require.NoError(t, p.SetActive(ctx, ViewHistorical))
	assert.Never(t, func() bool { return len(commits) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	require.ErrorIs(t, p.SetActive(ctx, "map"), ErrUnknownView)
}

func TestTrigger_IgnoresPause(t *testing.T) {
	p, _ := newTestPoller(t, nil)
	commits := make(chan Result, 1)

	require.NoError(t, p.Register(ViewSpec{
		Name:    ViewHistorical,
		Sources: []Source{committing("history", okFetch("h"), commits)},
	}))

	p.Pause(true)
	require.NoError(t, p.Trigger(context.Background(), ViewHistorical))
	assert.Equal(t, "h", waitCommit(t, commits).Value)

	require.ErrorIs(t, p.Trigger(context.Background(), "nope"), ErrUnknownView)
}

func TestRegister_Validation(t *testing.T) {
	p, _ := newTestPoller(t, nil)
	src := Source{Name: "summary", Fetch: okFetch("x")}

	require.ErrorIs(t, p.Register(ViewSpec{Name: ViewOverview}), ErrNoSources)
	require.ErrorIs(t, p.Register(ViewSpec{Name: ViewOverview, Interval: -1, Sources: []Source{src}}), ErrInvalidInterval)
	require.NoError(t, p.Register(ViewSpec{Name: ViewOverview, Sources: []Source{src}}))
	require.ErrorIs(t, p.Register(ViewSpec{Name: ViewOverview, Sources: []Source{{Name: "other"}}}), ErrDuplicateView)
	require.ErrorIs(t, p.Register(ViewSpec{Name: ViewLive, Sources: []Source{src}}), ErrDuplicateSource)
	require.ErrorIs(t, p.Mount(context.Background(), "nope"), ErrUnknownView)
}

func okFetch(value string) func(context.Context) (interface{}, []byte, error) {
	return func(context.Context) (interface{}, []byte, error) {
		return value, []byte(value), nil
	}
}
