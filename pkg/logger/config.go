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
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultOTelBatchTimeout = 5 * time.Second

// DefaultConfig reads LOG_* and the standard OTEL_* variables.
func DefaultConfig() *Config {
	return &Config{
		Level:      envString("LOG_LEVEL", "info"),
		Debug:      envBool("DEBUG", false),
		Output:     envString("LOG_OUTPUT", outputStdout),
		TimeFormat: envString("LOG_TIME_FORMAT", ""),
		OTel:       DefaultOTelConfig(),
	}
}

// DefaultOTelConfig prefers the logs-specific OTLP variables and falls back
// to the generic ones.
func DefaultOTelConfig() OTelConfig {
	timeout := defaultOTelBatchTimeout
	if d, err := time.ParseDuration(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT")); err == nil {
		timeout = d
	}

	return OTelConfig{
		Enabled:      envBool("OTEL_LOGS_ENABLED", false),
		Endpoint:     envString("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Headers:      parseHeaders(envString("OTEL_EXPORTER_OTLP_LOGS_HEADERS", os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))),
		ServiceName:  envString("OTEL_SERVICE_NAME", defaultServiceName),
		BatchTimeout: Duration(timeout),
		Insecure:     envBool("OTEL_EXPORTER_OTLP_LOGS_INSECURE", envBool("OTEL_EXPORTER_OTLP_INSECURE", false)),
	}
}

// parseHeaders reads the OTLP "k1=v1,k2=v2" header list.
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))

	switch strings.ToLower(v) {
	case "":
		return fallback
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}

	return b
}

func InitWithDefaults(ctx context.Context) error {
	return Init(ctx, DefaultConfig())
}
