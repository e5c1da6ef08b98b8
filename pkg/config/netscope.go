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
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/dashboard"
	"github.com/carverauto/netscope/pkg/kv"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
)

const (
	defaultStatusListen    = "127.0.0.1:8089"
	defaultAPITimeout      = 10 * time.Second
	defaultMetricsHistory  = 120
	maxPacketLimit         = 1000
	minimumPollingInterval = 100 * time.Millisecond
)

var (
	errBaseURLRequired  = errors.New("api.base_url is required")
	errInvalidBaseURL   = errors.New("api.base_url must be an absolute http(s) url")
	errIntervalTooShort = errors.New("polling interval is too short")
	errNegativeTimeout  = errors.New("timeout must not be negative")
	errPacketLimit      = errors.New("packet_limit out of range")
)

// NetscopeConfig is the full application configuration.
type NetscopeConfig struct {
	API         APIConfig        `json:"api" yaml:"api"`
	Intervals   IntervalConfig   `json:"intervals" yaml:"intervals"`
	PacketLimit int              `json:"packet_limit,omitempty" yaml:"packet_limit,omitempty"`
	Cache       kv.Config        `json:"cache" yaml:"cache"`
	GeoIPDB     string           `json:"geoip_db,omitempty" yaml:"geoip_db,omitempty"`
	ReverseDNS  ReverseDNSConfig `json:"reverse_dns" yaml:"reverse_dns"`
	ReportDir   string           `json:"report_dir,omitempty" yaml:"report_dir,omitempty"`
	Status      StatusConfig     `json:"status" yaml:"status"`
	Metrics     MetricsConfig    `json:"metrics" yaml:"metrics"`
	Logging     *logger.Config   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

type APIConfig struct {
	BaseURL string          `json:"base_url" yaml:"base_url"`
	Token   string          `json:"token,omitempty" yaml:"token,omitempty" sensitive:"true"`
	Timeout models.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// IntervalConfig overrides the polling cadences. Zero keeps the default.
type IntervalConfig struct {
	Overview models.Duration `json:"overview,omitempty" yaml:"overview,omitempty"`
	Live     models.Duration `json:"live,omitempty" yaml:"live,omitempty"`
}

type ReverseDNSConfig struct {
	Enabled bool            `json:"enabled" yaml:"enabled"`
	Server  string          `json:"server,omitempty" yaml:"server,omitempty"`
	Timeout models.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// StatusConfig is the headless HTTP status server.
type StatusConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// MetricsConfig controls poll metrics. History is how many poll outcomes
// are kept per source for display.
type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	History int  `json:"history,omitempty" yaml:"history,omitempty"`
}

// Validate checks the configuration and fills defaults.
func (c *NetscopeConfig) Validate() error {
	if err := c.API.validate(); err != nil {
		return err
	}

	for name, d := range map[string]models.Duration{
		"intervals.overview": c.Intervals.Overview,
		"intervals.live":     c.Intervals.Live,
	} {
		if d != 0 && d.Std() < minimumPollingInterval {
			return fmt.Errorf("%w: %s=%s (minimum %s)", errIntervalTooShort, name, d.Std(), minimumPollingInterval)
		}
	}

	if c.PacketLimit == 0 {
		c.PacketLimit = api.DefaultPacketLimit
	}

	if c.PacketLimit < 0 || c.PacketLimit > maxPacketLimit {
		return fmt.Errorf("%w: %d (1-%d)", errPacketLimit, c.PacketLimit, maxPacketLimit)
	}

	if c.Cache.Backend == "" && c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath()
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache config: %w", err)
	}

	if c.ReverseDNS.Timeout < 0 {
		return fmt.Errorf("%w: reverse_dns.timeout", errNegativeTimeout)
	}

	if c.ReportDir == "" {
		c.ReportDir = "."
	}

	if c.Status.Listen == "" {
		c.Status.Listen = defaultStatusListen
	}

	if c.Metrics.History <= 0 {
		c.Metrics.History = defaultMetricsHistory
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	return nil
}

func (a *APIConfig) validate() error {
	a.BaseURL = strings.TrimSpace(a.BaseURL)
	if a.BaseURL == "" {
		return errBaseURLRequired
	}

	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", errInvalidBaseURL, a.BaseURL)
	}

	if a.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout", errNegativeTimeout)
	}

	if a.Timeout == 0 {
		a.Timeout = models.Duration(defaultAPITimeout)
	}

	return nil
}

// Client returns the API client settings.
func (c *NetscopeConfig) Client() api.Config {
	return api.Config{
		BaseURL: c.API.BaseURL,
		Token:   c.API.Token,
		Timeout: c.API.Timeout.Std(),
	}
}

// Dashboard returns the dashboard cadences and limits.
func (c *NetscopeConfig) Dashboard() dashboard.Config {
	return dashboard.Config{
		OverviewInterval: c.Intervals.Overview.Std(),
		LiveInterval:     c.Intervals.Live.Std(),
		PacketLimit:      c.PacketLimit,
		ReportDir:        c.ReportDir,
	}
}

// TerminalLogging sends console log output to a file for interactive mode.
func (c *NetscopeConfig) TerminalLogging() {
	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	switch c.Logging.Output {
	case "", "stdout", "stderr":
		c.Logging.Output = defaultLogPath()
	}
}

func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "netscope.log"
	}

	return filepath.Join(dir, "netscope.log")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".netscope-cache"
	}

	return filepath.Join(dir, "netscope")
}
