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

package metrics

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock_recorder.go -package=metrics github.com/carverauto/netscope/pkg/metrics PollRecorder

// PollRecorder receives the outcome of every source fetch.
type PollRecorder interface {
	RecordPoll(ctx context.Context, source string, elapsed time.Duration, err error)
}

// Nop discards every outcome.
type Nop struct{}

func (Nop) RecordPoll(context.Context, string, time.Duration, error) {}
