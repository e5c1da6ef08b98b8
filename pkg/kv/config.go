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

package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
)

// Backend names accepted in Config.Backend.
const (
	BackendBadger = "badger"
	BackendNATS   = "nats"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	defaultBucket = "netscope"
)

// Config selects and configures a KVStore backend.
type Config struct {
	Backend       string          `json:"backend" yaml:"backend"`
	Path          string          `json:"path,omitempty" yaml:"path,omitempty"`
	NATSURL       string          `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Bucket        string          `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	RedisAddr     string          `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string          `json:"redis_password,omitempty" yaml:"redis_password,omitempty" sensitive:"true"`
	RedisDB       int             `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	TTL           models.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// Validate ensures the configuration is usable and fills defaults.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendBadger
	}

	if c.TTL < 0 {
		return errTTLNegative
	}

	switch c.Backend {
	case BackendBadger:
		if c.Path == "" {
			return errPathRequired
		}

		c.Path = filepath.Clean(c.Path)
	case BackendNATS:
		if c.NATSURL == "" {
			return errNatsURLRequired
		}

		if c.Bucket == "" {
			c.Bucket = defaultBucket
		}

		if strings.ContainsAny(c.Bucket, ". ") {
			return fmt.Errorf("%w: %q", errInvalidBucket, c.Bucket)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errRedisAddrRequired
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}

	return nil
}

// Open validates cfg and connects the selected backend.
func Open(ctx context.Context, cfg Config, log logger.Logger) (KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().Str("backend", cfg.Backend).Msg("Opening kv store")

	switch cfg.Backend {
	case BackendNATS:
		return NewNatsStore(ctx, cfg.NATSURL, cfg.Bucket, cfg.TTL.Std(), log)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return NewBadgerStore(cfg.Path, log)
	}
}
