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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds the OpenTelemetry tracing setup. Spans are exported
// only when OTel is enabled with an endpoint; otherwise they stay in process.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Debug          bool
	Logger         Logger
	OTel           *OTelConfig
}

// InitializeTracing installs a global TracerProvider and starts a root span
// for the process lifetime. The caller ends the span and shuts the provider
// down.
func InitializeTracing(ctx context.Context, config TracingConfig) (*sdktrace.TracerProvider, context.Context, trace.Span, error) {
	if config.ServiceName == "" {
		config.ServiceName = defaultServiceName
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, ctx, nil, fmt.Errorf("failed to create OpenTelemetry resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if config.OTel != nil && config.OTel.Enabled && config.OTel.Endpoint != "" {
		exporter, err := newTraceExporter(ctx, config.OTel)
		if err != nil {
			return nil, ctx, nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, root := tp.Tracer(config.ServiceName).Start(ctx, config.ServiceName+".main")

	if config.Debug && config.Logger != nil {
		sc := root.SpanContext()

		config.Logger.Debug().
			Str("service", config.ServiceName).
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Msg("Initialized OpenTelemetry tracing")
	}

	return tp, ctx, root, nil
}

func newTraceExporter(ctx context.Context, config *OTelConfig) (sdktrace.SpanExporter, error) {
	creds, insecure, err := config.transport()
	if err != nil {
		return nil, fmt.Errorf("failed to setup TLS configuration: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}

	switch {
	case insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case creds != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(config.Headers))
	}

	return otlptracegrpc.New(ctx, opts...)
}
