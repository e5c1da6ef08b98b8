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

package status

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/dashboard"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/metrics"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	frame   dashboard.Frame
	retries int
	updates chan struct{}
	rules   map[int64]models.AlertRule
	nextID  int64
	down    bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		frame:   dashboard.Frame{Status: dashboard.StatusReady, Active: poller.ViewOverview},
		updates: make(chan struct{}, 1),
		rules:   map[int64]models.AlertRule{},
	}
}

func (f *fakeSource) View() dashboard.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.frame
}

func (f *fakeSource) Updates() <-chan struct{} { return f.updates }

func (*fakeSource) PollStats() map[string]poller.SourceStats {
	return map[string]poller.SourceStats{"summary": {Success: 3, Failure: 1}}
}

func (*fakeSource) PollHistory(source string) []metrics.Point {
	if source != "summary" {
		return nil
	}

	return []metrics.Point{{Timestamp: time.Unix(0, 0).UTC(), Elapsed: 1500 * time.Microsecond, Failed: true}}
}

func (*fakeSource) ExportPackets(w io.Writer) (int, error) {
	_, err := io.WriteString(w, "time,proto\n10:00:00,TCP\n")

	return 1, err
}

func (f *fakeSource) Rules(context.Context) ([]models.AlertRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		return nil, errors.New("connection refused")
	}

	out := make([]models.AlertRule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, r)
	}

	return out, nil
}

func (f *fakeSource) SaveRule(_ context.Context, rule models.AlertRule) (*models.AlertRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rule.Name == "" {
		return nil, dashboard.ErrRuleNameRequired
	}

	if rule.ID == nil {
		f.nextID++
		id := f.nextID
		rule.ID = &id
	} else if _, ok := f.rules[*rule.ID]; !ok {
		return nil, &api.StatusError{Code: http.StatusNotFound, Endpoint: "security/rules"}
	}

	f.rules[*rule.ID] = rule

	return &rule, nil
}

func (f *fakeSource) DeleteRule(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.rules, id)

	return nil
}

func (f *fakeSource) Retry(context.Context) error {
	f.mu.Lock()
	f.retries++
	f.mu.Unlock()

	return nil
}

func (f *fakeSource) Pause(paused bool) {
	f.mu.Lock()
	f.frame.Paused = paused
	f.mu.Unlock()
}

func (f *fakeSource) setStatus(s dashboard.Status) {
	f.mu.Lock()
	f.frame.Status = s
	f.mu.Unlock()

	f.updates <- struct{}{}
}

func newTestServer(t *testing.T) (*Server, *fakeSource, *httptest.Server) {
	t.Helper()

	src := newFakeSource()
	s := NewServer("127.0.0.1:0", src, logger.NewTestLogger())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return s, src, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func post(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Post(url, "application/json", nil) //nolint:noctx // test helper
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func send(t *testing.T, method, url, body string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(out)
}

func TestHeartbeat(t *testing.T) {
	_, _, ts := newTestServer(t)

	code, _ := get(t, ts.URL+"/ping")
	assert.Equal(t, http.StatusOK, code)
}

func TestFrameAndStats(t *testing.T) {
	_, _, ts := newTestServer(t)

	code, body := get(t, ts.URL+"/frame")
	require.Equal(t, http.StatusOK, code)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &frame))
	assert.Equal(t, "ready", frame["status"])
	assert.Equal(t, "overview", frame["active"])
	assert.NotContains(t, frame, "Window")

	code, body = get(t, ts.URL+"/stats")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"summary"`)
	assert.Contains(t, body, `"Success":3`)
}

func TestPollHistory(t *testing.T) {
	_, _, ts := newTestServer(t)

	code, body := get(t, ts.URL+"/stats/summary/history")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"timestamp": "1970-01-01T00:00:00Z", "elapsed_ms": 1.5, "failed": true}]`, body)

	code, body = get(t, ts.URL+"/stats/packets/history")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body)
}

func TestPacketsCSV(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/packets.csv") //nolint:noctx // test
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "time,proto\n10:00:00,TCP\n", string(body))
}

func TestPauseAndRetry(t *testing.T) {
	_, src, ts := newTestServer(t)

	code, body := post(t, ts.URL+"/pause")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"paused": true}`, body)
	assert.True(t, src.View().Paused)

	code, _ = post(t, ts.URL+"/pause?paused=false")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, src.View().Paused)

	code, _ = post(t, ts.URL+"/pause?paused=maybe")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = post(t, ts.URL+"/retry")
	require.Equal(t, http.StatusOK, code)

	src.mu.Lock()
	assert.Equal(t, 1, src.retries)
	src.mu.Unlock()

	code, _ = get(t, ts.URL+"/retry")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func readEvent(t *testing.T, r *bufio.Reader) map[string]interface{} {
	t.Helper()

	var data string

	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)

		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			assert.Equal(t, eventFrame, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			var frame map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(data), &frame))

			return frame
		}
	}
}

func TestEventStream(t *testing.T) {
	s, src, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.broadcast(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "ready", readEvent(t, reader)["status"])

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		return len(s.clients) == 1
	}, time.Second, 5*time.Millisecond)

	src.setStatus(dashboard.StatusUnavailable)
	assert.Equal(t, "unavailable", readEvent(t, reader)["status"])

	require.NoError(t, s.Stop(context.Background()))
}

func TestRules(t *testing.T) {
	_, src, ts := newTestServer(t)

	code, body := get(t, ts.URL+"/rules")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body)

	code, body = send(t, http.MethodPost, ts.URL+"/rules", `{"id": 99, "name": "port scan", "condition": "syn > 100", "is_active": true}`)
	require.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"id": 1, "name": "port scan", "description": "", "condition": "syn > 100", "action": "", "is_active": true}`, body)

	code, _ = send(t, http.MethodPost, ts.URL+"/rules", `{"condition": "x"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = send(t, http.MethodPost, ts.URL+"/rules", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = send(t, http.MethodPut, ts.URL+"/rules/1", `{"name": "port scan", "is_active": false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"is_active":false`)

	code, _ = send(t, http.MethodPut, ts.URL+"/rules/7", `{"name": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = send(t, http.MethodPut, ts.URL+"/rules/abc", `{"name": "x"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = send(t, http.MethodDelete, ts.URL+"/rules/1", "")
	assert.Equal(t, http.StatusNoContent, code)

	_, body = get(t, ts.URL+"/rules")
	assert.JSONEq(t, `[]`, body)

	src.mu.Lock()
	src.down = true
	src.mu.Unlock()

	code, _ = get(t, ts.URL+"/rules")
	assert.Equal(t, http.StatusBadGateway, code)
}
