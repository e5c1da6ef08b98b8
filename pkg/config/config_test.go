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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/kv"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidate_JSONFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "netscope.json", `{
		"api": {"base_url": "http://analytics.local:8000/api", "token": "abc", "timeout": "5s"},
		"intervals": {"overview": "3s"},
		"cache": {"backend": "memory"},
		"unknown": true
	}`)

	var cfg NetscopeConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "abc", cfg.API.Token)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, api.DefaultPacketLimit, cfg.PacketLimit)
	assert.Equal(t, ".", cfg.ReportDir)
	assert.Equal(t, defaultStatusListen, cfg.Status.Listen)
	assert.Equal(t, defaultMetricsHistory, cfg.Metrics.History)
	require.NotNil(t, cfg.Logging)

	dash := cfg.Dashboard()
	assert.Equal(t, 3*time.Second, dash.OverviewInterval)
	assert.Zero(t, dash.LiveInterval)

	client := cfg.Client()
	assert.Equal(t, "http://analytics.local:8000/api", client.BaseURL)
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestLoadAndValidate_YAMLFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeFile(t, "netscope.yaml", `
api:
  base_url: https://analytics.example.com/api
intervals:
  overview: 2s
  live: 500ms
packet_limit: 250
cache:
  backend: badger
  path: /var/lib/netscope
reverse_dns:
  enabled: true
  timeout: 1s
logging:
  level: debug
  output: /var/log/netscope.log
`)

	var cfg NetscopeConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, 500*time.Millisecond, cfg.Intervals.Live.Std())
	assert.Equal(t, 250, cfg.PacketLimit)
	assert.Equal(t, kv.BackendBadger, cfg.Cache.Backend)
	assert.True(t, cfg.ReverseDNS.Enabled)
	assert.Equal(t, time.Second, cfg.ReverseDNS.Timeout.Std())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAndValidate_Errors(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	var cfg NetscopeConfig

	loader := NewConfig(logger.NewTestLogger())
	require.Error(t, loader.LoadAndValidate(context.Background(), "/nonexistent/netscope.json", &cfg))

	bad := writeFile(t, "bad.yml", "api: [unterminated")
	require.Error(t, loader.LoadAndValidate(context.Background(), bad, &cfg))

	require.ErrorIs(t, loader.LoadAndValidate(context.Background(), bad, cfg), errInvalidConfigPtr)

	t.Setenv("CONFIG_SOURCE", "consul")
	require.ErrorIs(t, loader.LoadAndValidate(context.Background(), bad, &cfg), errInvalidConfigSource)
}

func TestEnvConfigLoader(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("NETSCOPE_API_BASE_URL", "http://10.0.0.5:8000/api")
	t.Setenv("NETSCOPE_API_TIMEOUT", "750ms")
	t.Setenv("NETSCOPE_INTERVALS_OVERVIEW", "4s")
	t.Setenv("NETSCOPE_PACKET_LIMIT", "not-a-number")
	t.Setenv("NETSCOPE_CACHE_BACKEND", "redis")
	t.Setenv("NETSCOPE_CACHE_REDIS_ADDR", "localhost:6379")
	t.Setenv("NETSCOPE_REVERSE_DNS_ENABLED", "true")

	var cfg NetscopeConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "http://10.0.0.5:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.API.Timeout.Std())
	assert.Equal(t, models.Duration(4*time.Second), cfg.Intervals.Overview)
	assert.Equal(t, api.DefaultPacketLimit, cfg.PacketLimit, "invalid values are skipped")
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.ReverseDNS.Enabled)
	assert.Equal(t, logger.DefaultConfig().Level, cfg.Logging.Level, "unset sections keep their defaults")
}

func TestEnvConfigLoader_ConfigJSON(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "NS_")
	t.Setenv("NS_CONFIG_JSON", `{"api": {"base_url": "https://api.example.com"}, "cache": {"backend": "memory"}}`)

	var cfg NetscopeConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
}

func TestEnvConfigLoader_RequiresStructPointer(t *testing.T) {
	loader := NewEnvConfigLoader(logger.NewTestLogger(), "X_")

	var n int

	require.ErrorIs(t, loader.Load(context.Background(), "", &n), ErrDstMustBePointerToStruct)
	require.ErrorIs(t, loader.Load(context.Background(), "", nil), ErrDstMustBeNonNilPointer)
}

func TestNetscopeConfig_Validate(t *testing.T) {
	valid := func() NetscopeConfig {
		return NetscopeConfig{
			API:   APIConfig{BaseURL: "http://localhost:8000/api"},
			Cache: kv.Config{Backend: kv.BackendMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*NetscopeConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*NetscopeConfig) {}},
		{name: "missing base url", mutate: func(c *NetscopeConfig) { c.API.BaseURL = " " }, wantErr: errBaseURLRequired},
		{name: "relative base url", mutate: func(c *NetscopeConfig) { c.API.BaseURL = "/api" }, wantErr: errInvalidBaseURL},
		{name: "ftp base url", mutate: func(c *NetscopeConfig) { c.API.BaseURL = "ftp://host/api" }, wantErr: errInvalidBaseURL},
		{name: "negative timeout", mutate: func(c *NetscopeConfig) { c.API.Timeout = -1 }, wantErr: errNegativeTimeout},
		{
			name:    "interval too short",
			mutate:  func(c *NetscopeConfig) { c.Intervals.Live = models.Duration(10 * time.Millisecond) },
			wantErr: errIntervalTooShort,
		},
		{name: "packet limit too large", mutate: func(c *NetscopeConfig) { c.PacketLimit = 5000 }, wantErr: errPacketLimit},
		{name: "negative dns timeout", mutate: func(c *NetscopeConfig) { c.ReverseDNS.Timeout = -1 }, wantErr: errNegativeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	cfg := NetscopeConfig{API: APIConfig{BaseURL: "http://localhost"}, Cache: kv.Config{Backend: "etcd"}}
	require.Error(t, cfg.Validate())

	cfg = NetscopeConfig{API: APIConfig{BaseURL: "http://localhost"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, kv.BackendBadger, cfg.Cache.Backend)
	assert.NotEmpty(t, cfg.Cache.Path)
	assert.Equal(t, defaultAPITimeout, cfg.API.Timeout.Std(), "requests are always bounded")
	assert.Equal(t, defaultAPITimeout, cfg.Client().Timeout)
}

func TestRedact(t *testing.T) {
	cfg := NetscopeConfig{
		API:   APIConfig{BaseURL: "http://localhost", Token: "s3cr3t", Timeout: models.Duration(time.Second)},
		Cache: kv.Config{Backend: kv.BackendRedis, RedisAddr: "localhost:6379"},
	}

	out := Redact(&cfg)

	apiSection, ok := out["api"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, redacted, apiSection["token"])
	assert.Equal(t, "1s", apiSection["timeout"])
	assert.Equal(t, "http://localhost", apiSection["base_url"])

	cacheSection, ok := out["cache"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, cacheSection, "redis_password", "empty secrets are omitted")
	assert.NotContains(t, out, "logging")

	assert.Empty(t, Redact(42))
}

func TestNetscopeConfig_TerminalLogging(t *testing.T) {
	cfg := NetscopeConfig{}
	cfg.TerminalLogging()
	require.NotNil(t, cfg.Logging)
	assert.True(t, strings.HasSuffix(cfg.Logging.Output, "netscope.log"))

	cfg.Logging.Output = "/var/log/netscope/client.log"
	cfg.TerminalLogging()
	assert.Equal(t, "/var/log/netscope/client.log", cfg.Logging.Output)
}
