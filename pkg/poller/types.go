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

package poller

import (
	"context"
	"time"
)

// View names a logical dashboard tab with its own polling cadence.
type View string

const (
	ViewOverview   View = "overview"
	ViewLive       View = "live"
	ViewHistorical View = "historical"
)

// Result is a successfully fetched value handed to a source's Commit.
type Result struct {
	Seq   uint64
	Value interface{}
	Raw   []byte
}

// Source is one entity family: how to fetch it and where to commit it.
// Commit runs only for a parsed response that is newer than the last
// committed one; a failed fetch never reaches it.
type Source struct {
	Name   string
	Fetch  func(ctx context.Context) (interface{}, []byte, error)
	Commit func(Result)
}

// ViewSpec describes a view. Interval zero means the view is fetched once
// when mounted and otherwise only on Trigger. TabBound views run only
// while they are the active view.
type ViewSpec struct {
	Name     View
	Interval time.Duration
	TabBound bool
	Sources  []Source
}

// SourceStats summarises the outcomes of one source.
type SourceStats struct {
	Success     uint64
	Failure     uint64
	Discarded   uint64
	LastSeq     uint64
	LastError   string
	LastSuccess time.Time
}
