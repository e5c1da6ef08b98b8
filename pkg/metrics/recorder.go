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

// Package metrics records poll outcomes as OpenTelemetry instruments and
// keeps a short per-source history for the dashboard.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName         = "netscope.poller"
	defaultRetention  = 60
	attrSource        = "source"
	instrumentSuccess = "netscope.poll.success"
	instrumentFailure = "netscope.poll.failure"
	instrumentLatency = "netscope.poll.duration_ms"
)

// Recorder implements PollRecorder on an OTel meter. Without an installed
// MeterProvider the instruments are no-ops and only the buffers fill.
type Recorder struct {
	success  metric.Int64Counter
	failure  metric.Int64Counter
	duration metric.Float64Histogram

	retention int
	buffers   sync.Map // source -> *Buffer
}

// NewRecorder builds the instruments on meter, or on the global provider
// when meter is nil.
func NewRecorder(meter metric.Meter, retention int) (*Recorder, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	if retention <= 0 {
		retention = defaultRetention
	}

	success, err := meter.Int64Counter(instrumentSuccess,
		metric.WithDescription("Successful backend fetches"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", instrumentSuccess, err)
	}

	failure, err := meter.Int64Counter(instrumentFailure,
		metric.WithDescription("Failed backend fetches"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", instrumentFailure, err)
	}

	duration, err := meter.Float64Histogram(instrumentLatency,
		metric.WithDescription("Backend fetch latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", instrumentLatency, err)
	}

	return &Recorder{
		success:   success,
		failure:   failure,
		duration:  duration,
		retention: retention,
	}, nil
}

func (r *Recorder) RecordPoll(ctx context.Context, source string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String(attrSource, source))

	if err != nil {
		r.failure.Add(ctx, 1, attrs)
	} else {
		r.success.Add(ctx, 1, attrs)
	}

	r.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)

	r.buffer(source).Add(Point{Timestamp: time.Now(), Elapsed: elapsed, Failed: err != nil})
}

// History returns the recent points for source, oldest first.
func (r *Recorder) History(source string) []Point {
	if b, ok := r.buffers.Load(source); ok {
		return b.(*Buffer).Points()
	}

	return nil
}

func (r *Recorder) buffer(source string) *Buffer {
	if b, ok := r.buffers.Load(source); ok {
		return b.(*Buffer)
	}

	b, _ := r.buffers.LoadOrStore(source, NewBuffer(r.retention))

	return b.(*Buffer)
}

var _ PollRecorder = (*Recorder)(nil)
