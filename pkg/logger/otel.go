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
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/carverauto/netscope/pkg/version"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.31.0"
	"google.golang.org/grpc/credentials"
)

var (
	ErrOTelLoggingDisabled  = errors.New("OTel logging is disabled")
	ErrOTelEndpointRequired = errors.New("OTel endpoint is required when enabled")
	errFailedToParseCACert  = errors.New("failed to parse CA certificate")
)

const (
	defaultBatchTimeout     = 5 * time.Second
	otelShutdownTimeout     = 10 * time.Second
	maxAttributeValueLength = 4096
	truncatedKeysAttribute  = "otel.truncated_keys"
)

type OTelConfig struct {
	Enabled      bool              `json:"enabled" yaml:"enabled"`
	Endpoint     string            `json:"endpoint" yaml:"endpoint"`
	Headers      map[string]string `json:"headers" yaml:"headers" sensitive:"true"`
	ServiceName  string            `json:"service_name" yaml:"service_name"`
	BatchTimeout Duration          `json:"batch_timeout" yaml:"batch_timeout"`
	Insecure     bool              `json:"insecure" yaml:"insecure"`
	TLS          *TLSConfig        `json:"tls,omitempty" yaml:"tls,omitempty"`
}

type TLSConfig struct {
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

// transport resolves the connection settings shared by the log and metric
// exporters. A nil tls config with insecure false means system roots.
func (c *OTelConfig) transport() (creds credentials.TransportCredentials, insecure bool, err error) {
	if c.Insecure {
		return nil, true, nil
	}

	if c.TLS == nil {
		return nil, false, nil
	}

	tlsConfig, err := setupTLSConfig(c.TLS)
	if err != nil {
		return nil, false, err
	}

	return credentials.NewTLS(tlsConfig), false, nil
}

func (c *OTelConfig) serviceName() string {
	if c.ServiceName != "" {
		return c.ServiceName
	}

	return defaultServiceName
}

func newResource(ctx context.Context, name, ver string) (*resource.Resource, error) {
	if ver == "" {
		ver = version.GetVersion()
	}

	return resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(name),
		semconv.ServiceVersion(ver),
	))
}

//nolint:gochecknoglobals // needed for proper OTel shutdown handling
var otelProvider *sdklog.LoggerProvider

// OTelWriter is a zerolog output that re-emits each JSON line as an OTel log
// record, one instrumentation scope per "component" field.
type OTelWriter struct {
	ctx      context.Context
	provider *sdklog.LoggerProvider

	mu      sync.Mutex
	loggers map[string]otellog.Logger
}

func NewOTELWriter(ctx context.Context, config OTelConfig) (*OTelWriter, error) {
	if !config.Enabled {
		return nil, ErrOTelLoggingDisabled
	}

	if config.Endpoint == "" {
		return nil, ErrOTelEndpointRequired
	}

	creds, insecure, err := config.transport()
	if err != nil {
		return nil, fmt.Errorf("failed to setup TLS configuration: %w", err)
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(config.Endpoint)}

	switch {
	case insecure:
		opts = append(opts, otlploggrpc.WithInsecure())
	case creds != nil:
		opts = append(opts, otlploggrpc.WithTLSCredentials(creds))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(config.Headers))
	}

	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := newResource(ctx, config.serviceName(), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	batchTimeout := time.Duration(config.BatchTimeout)
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportTimeout(batchTimeout))),
	)

	otelProvider = provider
	global.SetLoggerProvider(provider)

	return &OTelWriter{ctx: ctx, provider: provider, loggers: make(map[string]otellog.Logger)}, nil
}

func (w *OTelWriter) Write(p []byte) (int, error) {
	var entry map[string]interface{}
	if err := json.Unmarshal(p, &entry); err != nil {
		// not a zerolog JSON line
		return len(p), nil
	}

	var record otellog.Record

	if ts, ok := entry["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			record.SetTimestamp(parsed)
			delete(entry, "time")
		}
	}

	if level, ok := entry["level"].(string); ok {
		record.SetSeverity(severity(level))
		record.SetSeverityText(level)
		delete(entry, "level")
	}

	if msg, ok := entry["message"].(string); ok {
		record.SetBody(otellog.StringValue(msg))
		delete(entry, "message")
	}

	scope := defaultServiceName
	if component, ok := entry["component"].(string); ok && component != "" {
		scope = component

		delete(entry, "component")
	}

	attrs, truncated := attributes(entry)
	record.AddAttributes(attrs...)

	if len(truncated) > 0 {
		record.AddAttributes(otellog.String(truncatedKeysAttribute, strings.Join(truncated, ",")))
	}

	w.scope(scope).Emit(w.ctx, record)

	return len(p), nil
}

func (w *OTelWriter) scope(name string) otellog.Logger {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.loggers[name]
	if !ok {
		l = w.provider.Logger(name)
		w.loggers[name] = l
	}

	return l
}

// attributes converts the remaining zerolog fields to typed OTel attributes
// in key order. Strings longer than maxAttributeValueLength are cut and their
// keys returned.
func attributes(fields map[string]interface{}) ([]otellog.KeyValue, []string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	attrs := make([]otellog.KeyValue, 0, len(keys))

	var truncated []string

	for _, k := range keys {
		var (
			kv  otellog.KeyValue
			cut bool
		)

		switch v := fields[k].(type) {
		case nil:
			kv = otellog.String(k, "null")
		case bool:
			kv = otellog.Bool(k, v)
		case float64:
			kv = otellog.Float64(k, v)
		case string:
			var s string
			s, cut = truncate(v, maxAttributeValueLength)
			kv = otellog.String(k, s)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				raw = []byte(fmt.Sprint(v))
			}

			var s string
			s, cut = truncate(string(raw), maxAttributeValueLength)
			kv = otellog.String(k, s)
		}

		if cut {
			truncated = append(truncated, k)
		}

		attrs = append(attrs, kv)
	}

	return attrs, truncated
}

func truncate(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}

	const ellipsis = "..."

	suffix := ellipsis
	if limit <= len(ellipsis) {
		suffix = ""
	}

	cut := s[:limit-len(suffix)]
	for !utf8.ValidString(cut) && cut != "" {
		cut = cut[:len(cut)-1]
	}

	return cut + suffix, true
}

func severity(level string) otellog.Severity {
	switch strings.ToLower(level) {
	case "trace":
		return otellog.SeverityTrace
	case "debug":
		return otellog.SeverityDebug
	case "warn", "warning":
		return otellog.SeverityWarn
	case "error":
		return otellog.SeverityError
	case "fatal", "panic":
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}

// ShutdownOTEL flushes and stops the log and metric providers.
func ShutdownOTEL() error {
	ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer cancel()

	var errs []error

	if otelProvider != nil {
		errs = append(errs, otelProvider.Shutdown(ctx))
		otelProvider = nil
	}

	errs = append(errs, shutdownMeterProvider(ctx))

	return errors.Join(errs...)
}

func setupTLSConfig(c *TLSConfig) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if c.CertFile != "" && c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		config.Certificates = []tls.Certificate{cert}
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errFailedToParseCACert
		}

		config.RootCAs = pool
	}

	return config, nil
}
