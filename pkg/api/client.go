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

// Package api is the HTTP client for the analytics/telemetry backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/version"
	"github.com/google/uuid"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrTransport        = errors.New("transport failure")
	ErrDecode           = errors.New("failed to decode response")
	errBaseURLRequired  = errors.New("api base url is required")
)

const (
	EndpointSummary     = "summary"
	EndpointHistory     = "history"
	EndpointEvents      = "security/events"
	EndpointConnections = "network/connections"
	EndpointPackets     = "analytics/packets"
	EndpointRules       = "security/rules"
	EndpointReports     = "reports/pdf"

	headerRequestID = "X-Request-ID"
	maxErrorBody    = 512
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code     int
	Endpoint string
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s returned %d", ErrUnexpectedStatus, e.Endpoint, e.Code)
	}

	return fmt.Sprintf("%s: %s returned %d: %s", ErrUnexpectedStatus, e.Endpoint, e.Code, e.Body)
}

func (*StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Config holds the backend location. Timeout zero leaves the HTTP client's
// own behaviour in place; a hung request simply delays its poll cycle.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client issues requests against the backend REST API.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errBaseURLRequired
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Client{
		base:   base,
		token:  cfg.Token,
		http:   httpClient,
		logger: log,
	}, nil
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(endpoint, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint, query), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	req.Header.Set("User-Agent", version.UserAgent())

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// do executes the request and returns the full body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, endpoint, err)
	}
	defer c.closeResponse(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrTransport, endpoint, err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("endpoint", endpoint).
		Str("request_id", req.Header.Get(headerRequestID)).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Backend request completed")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode, Endpoint: endpoint, Body: strings.TrimSpace(truncateBody(data, maxErrorBody))}
	}

	return data, nil
}

// truncateBody cuts data to at most limit bytes without splitting a rune.
func truncateBody(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}

	return string(data[:cut])
}

func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}

// FetchRaw GETs an endpoint and returns the undecoded body.
func (c *Client) FetchRaw(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return nil, err
	}

	return c.do(req, endpoint)
}

// Decode unmarshals a response body, wrapping failures in ErrDecode.
func Decode[T any](endpoint string, data []byte) (T, error) {
	var out T

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w from %s: %w", ErrDecode, endpoint, err)
	}

	return out, nil
}

func fetch[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, []byte, error) {
	data, err := c.FetchRaw(ctx, endpoint, query)
	if err != nil {
		var zero T

		return zero, nil, err
	}

	out, err := Decode[T](endpoint, data)
	if err != nil {
		return out, nil, err
	}

	return out, data, nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", endpoint, err)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, endpoint, nil, body)
	if err != nil {
		return nil, err
	}

	return c.do(req, endpoint)
}
