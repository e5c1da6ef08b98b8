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

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestInitializeTracing_InProcess(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, ctx, root, err := InitializeTracing(context.Background(), TracingConfig{
		ServiceVersion: "test",
		Debug:          true,
		Logger:         NewTestLogger(),
		OTel:           &OTelConfig{Enabled: false, Endpoint: "collector:4317"},
	})
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, tp.Shutdown(context.Background())) })

	assert.True(t, root.SpanContext().IsValid())
	assert.Equal(t, root.SpanContext().TraceID(), trace.SpanContextFromContext(ctx).TraceID())

	_, child := otel.Tracer("netscope/test").Start(ctx, "child")
	defer child.End()

	assert.Equal(t, root.SpanContext().TraceID(), child.SpanContext().TraceID())

	root.End()
}
