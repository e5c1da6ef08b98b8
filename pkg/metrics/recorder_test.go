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

package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func TestRecorder_Instruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	defer func() { _ = provider.Shutdown(context.Background()) }()

	rec, err := NewRecorder(provider.Meter(meterName), 10)
	require.NoError(t, err)

	ctx := context.Background()
	rec.RecordPoll(ctx, "summary", 20*time.Millisecond, nil)
	rec.RecordPoll(ctx, "summary", 30*time.Millisecond, nil)
	rec.RecordPoll(ctx, "events", 5*time.Millisecond, errors.New("boom"))

	data := collect(t, reader)

	success, ok := data[instrumentSuccess].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, success.DataPoints, 1)
	assert.Equal(t, int64(2), success.DataPoints[0].Value)

	source, _ := success.DataPoints[0].Attributes.Value(attrSource)
	assert.Equal(t, "summary", source.AsString())

	failure, ok := data[instrumentFailure].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failure.DataPoints, 1)
	assert.Equal(t, int64(1), failure.DataPoints[0].Value)

	hist, ok := data[instrumentLatency].(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(3), count)
}

func TestRecorder_History(t *testing.T) {
	rec, err := NewRecorder(nil, 2)
	require.NoError(t, err)

	ctx := context.Background()
	rec.RecordPoll(ctx, "packets", time.Millisecond, nil)
	rec.RecordPoll(ctx, "packets", 2*time.Millisecond, errors.New("x"))
	rec.RecordPoll(ctx, "packets", 3*time.Millisecond, nil)

	points := rec.History("packets")
	require.Len(t, points, 2)
	assert.Equal(t, 2*time.Millisecond, points[0].Elapsed)
	assert.True(t, points[0].Failed)
	assert.Equal(t, 3*time.Millisecond, points[1].Elapsed)

	assert.Nil(t, rec.History("unknown"))
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(3)

	_, ok := b.Last()
	assert.False(t, ok)
	assert.Empty(t, b.Points())

	for i := 1; i <= 4; i++ {
		b.Add(Point{Elapsed: time.Duration(i)})
	}

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, time.Duration(4), last.Elapsed)

	points := b.Points()
	require.Len(t, points, 3)
	assert.Equal(t, time.Duration(2), points[0].Elapsed)
	assert.Equal(t, time.Duration(4), points[2].Elapsed)
}
