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

package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultResolver       = "1.1.1.1:53"
	defaultReverseTimeout = 2 * time.Second
	maxReverseCache       = 4096
	failureTTL            = 30 * time.Second
	maxParallelLookups    = 8
)

var (
	errNoPTR          = errors.New("no PTR record")
	errInvalidAddress = errors.New("invalid address")
)

// ptrEntry is a cached answer. A zero expires never expires.
type ptrEntry struct {
	name    string
	err     error
	expires time.Time
}

// ReverseResolver looks up PTR names for connection IPs. Answers and misses
// are cached for the life of the resolver; resolver failures for failureTTL.
type ReverseResolver struct {
	server string
	client *dns.Client
	logger logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]ptrEntry
}

func NewReverseResolver(server string, timeout time.Duration, log logger.Logger) *ReverseResolver {
	if server == "" {
		server = DefaultResolver
	}

	if timeout <= 0 {
		timeout = defaultReverseTimeout
	}

	return &ReverseResolver{
		server: server,
		client: &dns.Client{Timeout: timeout},
		logger: log,
		now:    time.Now,
		cache:  make(map[string]ptrEntry),
	}
}

// Lookup returns the first PTR name of ip without the trailing dot. An
// address without a PTR record yields an empty name and no error.
func (r *ReverseResolver) Lookup(ctx context.Context, ip string) (string, error) {
	if e, ok := r.cached(ip); ok {
		return e.name, e.err
	}

	name, err := r.query(ctx, ip)

	var entry ptrEntry

	switch {
	case err == nil:
		entry.name = name
	case errors.Is(err, errNoPTR):
	case errors.Is(err, errInvalidAddress):
		entry.err = err
	case ctx.Err() != nil:
		return "", err
	default:
		entry.err = err
		entry.expires = r.now().Add(failureTTL)
	}

	r.store(ip, entry)

	return entry.name, entry.err
}

func (r *ReverseResolver) cached(ip string) (ptrEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cache[ip]
	if !ok {
		return ptrEntry{}, false
	}

	if !e.expires.IsZero() && !r.now().Before(e.expires) {
		delete(r.cache, ip)

		return ptrEntry{}, false
	}

	return e, true
}

func (r *ReverseResolver) store(ip string, e ptrEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.cache) >= maxReverseCache {
		r.cache = make(map[string]ptrEntry)
	}

	r.cache[ip] = e
}

func (r *ReverseResolver) query(ctx context.Context, ip string) (string, error) {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", errInvalidAddress, ip, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", fmt.Errorf("ptr query for %s: %w", ip, err)
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}

	return "", errNoPTR
}

// Annotate returns a copy of conns with Hostname filled where missing.
// Lookups run in parallel, at most maxParallelLookups at a time. A nil
// resolver returns the copy unchanged.
func (r *ReverseResolver) Annotate(ctx context.Context, conns []models.ExternalConnection) []models.ExternalConnection {
	out := make([]models.ExternalConnection, len(conns))
	copy(out, conns)

	if r == nil {
		return out
	}

	var g errgroup.Group

	g.SetLimit(maxParallelLookups)

	for i := range out {
		if out[i].Hostname != "" {
			continue
		}

		g.Go(func() error {
			name, err := r.Lookup(ctx, out[i].IP)
			if err != nil {
				r.logger.Debug().Err(err).Str("ip", out[i].IP).Msg("Reverse lookup failed")

				return nil
			}

			out[i].Hostname = name

			return nil
		})
	}

	_ = g.Wait()

	return out
}
