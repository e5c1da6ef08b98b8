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

// Package status serves the dashboard over HTTP when no terminal is
// attached: the current frame as JSON, a server-sent event stream of
// frames, poll statistics, the filtered packet CSV and alert rule
// management.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/carverauto/netscope/pkg/api"
	"github.com/carverauto/netscope/pkg/dashboard"
	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/metrics"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	eventFrame        = "frame"
	maxRuleBody       = 64 << 10
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// Source is the part of the dashboard the server reads and drives.
type Source interface {
	View() dashboard.Frame
	Updates() <-chan struct{}
	PollStats() map[string]poller.SourceStats
	PollHistory(source string) []metrics.Point
	Rules(ctx context.Context) ([]models.AlertRule, error)
	SaveRule(ctx context.Context, rule models.AlertRule) (*models.AlertRule, error)
	DeleteRule(ctx context.Context, id int64) error
	ExportPackets(w io.Writer) (int, error)
	Retry(ctx context.Context) error
	Pause(paused bool)
}

// Server is the headless HTTP front end. It is the only reader of the
// dashboard's update channel and fans updates out to stream clients.
type Server struct {
	addr   string
	src    Source
	logger logger.Logger
	srv    *http.Server

	mu      sync.Mutex
	clients map[chan struct{}]struct{}
}

func NewServer(addr string, src Source, log logger.Logger) *Server {
	s := &Server{
		addr:    addr,
		src:     src,
		logger:  log,
		clients: make(map[chan struct{}]struct{}),
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Heartbeat("/ping"))

	mux.Get("/frame", s.frame)
	mux.Get("/events", s.events)
	mux.Get("/stats", s.stats)
	mux.Get("/stats/{source}/history", s.history)
	mux.Get("/packets.csv", s.packets)
	mux.Post("/retry", s.retry)
	mux.Post("/pause", s.pause)

	mux.Route("/rules", func(r chi.Router) {
		r.Get("/", s.listRules)
		r.Post("/", s.createRule)
		r.Put("/{id}", s.updateRule)
		r.Delete("/{id}", s.deleteRule)
	})

	return mux
}

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Status server listening")

	go s.broadcast(ctx)

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop shuts the server down, waiting for handlers until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for ch := range s.clients {
		close(ch)
		delete(s.clients, ch)
	}
	s.mu.Unlock()

	return s.srv.Shutdown(ctx)
}

func (s *Server) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.src.Updates():
			s.publish()
		}
	}
}

func (s *Server) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Server) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()

	return ch
}

func (s *Server) unsubscribe(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[ch]; ok {
		delete(s.clients, ch)
		close(ch)
	}
}

func (s *Server) frame(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.src.View())
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.src.PollStats())
}

type historyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	ElapsedMS float64   `json:"elapsed_ms"`
	Failed    bool      `json:"failed"`
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	points := s.src.PollHistory(chi.URLParam(r, "source"))

	out := make([]historyPoint, 0, len(points))
	for _, p := range points {
		out = append(out, historyPoint{
			Timestamp: p.Timestamp,
			ElapsedMS: float64(p.Elapsed) / float64(time.Millisecond),
			Failed:    p.Failed,
		})
	}

	s.writeJSON(w, out)
}

// events streams one frame on connect and one per coalesced update.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, errStreamingUnsupported.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	for {
		if err := s.sendFrame(w); err != nil {
			s.logger.Debug().Err(err).Msg("Event stream client went away")

			return
		}

		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case _, open := <-ch:
			if !open {
				return
			}
		}
	}
}

func (s *Server) sendFrame(w io.Writer) error {
	data, err := json.Marshal(s.src.View())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventFrame, data)

	return err
}

func (s *Server) packets(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="packets.csv"`)

	if _, err := s.src.ExportPackets(w); err != nil {
		s.logger.Error().Err(err).Msg("Packet export failed")
	}
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	if err := s.src.Retry(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("Retry had failures")
	}

	s.writeJSON(w, s.src.View())
}

// pause takes ?paused=true|false; without it the flag is toggled.
func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	paused := !s.src.View().Paused

	if v := r.URL.Query().Get("paused"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid paused value", http.StatusBadRequest)

			return
		}

		paused = b
	}

	s.src.Pause(paused)
	s.writeJSON(w, map[string]bool{"paused": paused})
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.src.Rules(r.Context())
	if err != nil {
		s.ruleError(w, err)

		return
	}

	if rules == nil {
		rules = []models.AlertRule{}
	}

	s.writeJSON(w, rules)
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := decodeRule(w, r)
	if !ok {
		return
	}

	rule.ID = nil

	saved, err := s.src.SaveRule(r.Context(), rule)
	if err != nil {
		s.ruleError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(saved); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	rule, ok := decodeRule(w, r)
	if !ok {
		return
	}

	rule.ID = &id

	saved, err := s.src.SaveRule(r.Context(), rule)
	if err != nil {
		s.ruleError(w, err)

		return
	}

	s.writeJSON(w, saved)
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	if err := s.src.DeleteRule(r.Context(), id); err != nil {
		s.ruleError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func ruleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid rule id", http.StatusBadRequest)

		return 0, false
	}

	return id, true
}

func decodeRule(w http.ResponseWriter, r *http.Request) (models.AlertRule, bool) {
	var rule models.AlertRule

	if err := json.NewDecoder(io.LimitReader(r.Body, maxRuleBody)).Decode(&rule); err != nil {
		http.Error(w, "invalid rule: "+err.Error(), http.StatusBadRequest)

		return rule, false
	}

	return rule, true
}

// ruleError maps validation failures to 400 and passes backend 4xx codes
// through. Anything else is a bad gateway.
func (s *Server) ruleError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway

	var se *api.StatusError

	switch {
	case errors.Is(err, dashboard.ErrRuleNameRequired):
		code = http.StatusBadRequest
	case errors.As(err, &se) && se.Code >= http.StatusBadRequest && se.Code < http.StatusInternalServerError:
		code = se.Code
	default:
		s.logger.Warn().Err(err).Msg("Rule request failed")
	}

	http.Error(w, err.Error(), code)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
