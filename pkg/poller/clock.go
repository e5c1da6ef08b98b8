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

//go:generate mockgen -destination=mock_poller.go -package=poller github.com/carverauto/netscope/pkg/poller Clock,Ticker

import "time"

// Clock drives view cadences. Tests substitute a manual ticker.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type wallClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock { return wallClock{} }

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Ticker(d time.Duration) Ticker { return wallTicker{time.NewTicker(d)} }

type wallTicker struct{ *time.Ticker }

func (t wallTicker) Chan() <-chan time.Time { return t.C }
