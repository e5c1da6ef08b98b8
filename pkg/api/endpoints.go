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

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/carverauto/netscope/pkg/filter"
	"github.com/carverauto/netscope/pkg/models"
)

const (
	DefaultPacketLimit = 100
	reportFilePerms    = 0o640
	reportDateLayout   = "2006-01-02"
)

var reportTypePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Summary returns the current telemetry snapshot and its raw body.
func (c *Client) Summary(ctx context.Context) (*models.TelemetrySnapshot, []byte, error) {
	snap, raw, err := fetch[models.TelemetrySnapshot](ctx, c, EndpointSummary, nil)
	if err != nil {
		return nil, nil, err
	}

	return &snap, raw, nil
}

func (c *Client) History(ctx context.Context) (*models.HistoryResponse, []byte, error) {
	hist, raw, err := fetch[models.HistoryResponse](ctx, c, EndpointHistory, nil)
	if err != nil {
		return nil, nil, err
	}

	return &hist, raw, nil
}

func (c *Client) SecurityEvents(ctx context.Context) ([]models.SecurityEvent, []byte, error) {
	return fetch[[]models.SecurityEvent](ctx, c, EndpointEvents, nil)
}

func (c *Client) Connections(ctx context.Context) ([]models.ExternalConnection, []byte, error) {
	return fetch[[]models.ExternalConnection](ctx, c, EndpointConnections, nil)
}

// PacketQuery selects the packet window. Search is classified so that at
// most one of ip, port or protocol is sent.
type PacketQuery struct {
	Limit  int
	Search string
	Flags  string
}

// Values renders the query string for /analytics/packets.
func (q PacketQuery) Values() url.Values {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPacketLimit
	}

	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))

	if key, value, ok := filter.ClassifyQuery(q.Search).Param(); ok {
		v.Set(key, value)
	}

	if q.Flags != "" {
		v.Set("flags", q.Flags)
	}

	return v
}

func (c *Client) Packets(ctx context.Context, q PacketQuery) ([]models.PacketLogEntry, error) {
	entries, _, err := fetch[[]models.PacketLogEntry](ctx, c, EndpointPackets, q.Values())

	return entries, err
}

func (c *Client) ListRules(ctx context.Context) ([]models.AlertRule, error) {
	rules, _, err := fetch[[]models.AlertRule](ctx, c, EndpointRules, nil)

	return rules, err
}

func (c *Client) CreateRule(ctx context.Context, rule models.AlertRule) (*models.AlertRule, error) {
	rule.ID = nil

	data, err := c.send(ctx, http.MethodPost, EndpointRules, rule)
	if err != nil {
		return nil, err
	}

	return decodeRule(EndpointRules, data, rule)
}

var errRuleIDRequired = errors.New("rule id is required")

func (c *Client) UpdateRule(ctx context.Context, rule models.AlertRule) (*models.AlertRule, error) {
	if rule.ID == nil {
		return nil, errRuleIDRequired
	}

	endpoint := ruleEndpoint(*rule.ID)

	data, err := c.send(ctx, http.MethodPut, endpoint, rule)
	if err != nil {
		return nil, err
	}

	return decodeRule(endpoint, data, rule)
}

func (c *Client) DeleteRule(ctx context.Context, id int64) error {
	_, err := c.send(ctx, http.MethodDelete, ruleEndpoint(id), nil)

	return err
}

func ruleEndpoint(id int64) string {
	return EndpointRules + "/" + strconv.FormatInt(id, 10)
}

// decodeRule falls back to the submitted rule when the backend answers
// with an empty body.
func decodeRule(endpoint string, data []byte, submitted models.AlertRule) (*models.AlertRule, error) {
	if len(data) == 0 {
		return &submitted, nil
	}

	rule, err := Decode[models.AlertRule](endpoint, data)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

var errInvalidReportType = errors.New("invalid report type")

// ReportFilename is the download name for a report fetched on day.
func ReportFilename(reportType string, day time.Time) string {
	return fmt.Sprintf("netscope_%s_report_%s.pdf", reportType, day.Format(reportDateLayout))
}

// DownloadReport saves /reports/pdf/{type} into dir and returns the path.
func (c *Client) DownloadReport(ctx context.Context, reportType, dir string) (string, error) {
	if !reportTypePattern.MatchString(reportType) {
		return "", fmt.Errorf("%w: %q", errInvalidReportType, reportType)
	}

	endpoint := EndpointReports + "/" + reportType

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("Accept", "application/pdf")

	data, err := c.do(req, endpoint)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ReportFilename(reportType, time.Now()))

	if err := os.WriteFile(path, data, reportFilePerms); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}

	c.logger.Info().Str("report", reportType).Str("path", path).Int("bytes", len(data)).Msg("Report downloaded")

	return path, nil
}
