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
	"errors"
)

var (
	ErrStoreClosed       = errors.New("kv store is closed")
	errUnknownBackend    = errors.New("unknown kv backend")
	errPathRequired      = errors.New("cache.path is required for the badger backend")
	errNatsURLRequired   = errors.New("cache.nats_url is required for the nats backend")
	errRedisAddrRequired = errors.New("cache.redis_addr is required for the redis backend")
	errInvalidBucket     = errors.New("invalid nats bucket name")
	errTTLNegative       = errors.New("cache.ttl must not be negative")
)
