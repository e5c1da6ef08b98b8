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
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var ErrOTelMetricsDisabled = errors.New("OTel metrics exporter disabled")

const (
	defaultServiceName    = "netscope"
	defaultExportInterval = 15 * time.Second
)

//nolint:gochecknoglobals // global state is required for coordinated shutdown
var (
	meterProvider *sdkmetric.MeterProvider
	meterMu       sync.Mutex
)

// MetricsConfig selects where poll metrics are exported. OTel is usually the
// logging OTel block so both signals reach the same collector.
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	OTel           *OTelConfig
	ExportInterval time.Duration
}

// InitializeMetrics installs an OTLP-backed global MeterProvider. Repeated
// calls return the provider from the first call. Instruments created through
// otel.Meter before this runs are no-ops.
func InitializeMetrics(ctx context.Context, config MetricsConfig) (*sdkmetric.MeterProvider, error) {
	if config.OTel == nil || !config.OTel.Enabled || config.OTel.Endpoint == "" {
		return nil, ErrOTelMetricsDisabled
	}

	meterMu.Lock()
	defer meterMu.Unlock()

	if meterProvider != nil {
		return meterProvider, nil
	}

	creds, insecure, err := config.OTel.transport()
	if err != nil {
		return nil, fmt.Errorf("failed to setup metrics TLS configuration: %w", err)
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(config.OTel.Endpoint)}

	switch {
	case insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case creds != nil:
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(creds))
	}

	if len(config.OTel.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(config.OTel.Headers))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	name := config.ServiceName
	if name == "" {
		name = config.OTel.serviceName()
	}

	res, err := newResource(ctx, name, config.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	interval := config.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

func shutdownMeterProvider(ctx context.Context) error {
	meterMu.Lock()
	defer meterMu.Unlock()

	if meterProvider == nil {
		return nil
	}

	err := meterProvider.Shutdown(ctx)
	meterProvider = nil

	return err
}
