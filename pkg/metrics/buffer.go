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
	"sync"
	"time"
)

// Point is one recorded fetch.
type Point struct {
	Timestamp time.Time
	Elapsed   time.Duration
	Failed    bool
}

// Buffer is a fixed-size ring of the most recent points.
type Buffer struct {
	mu     sync.RWMutex
	points []Point
	next   int
	full   bool
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1
	}

	return &Buffer{points: make([]Point, size)}
}

func (b *Buffer) Add(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points[b.next] = p
	b.next = (b.next + 1) % len(b.points)

	if b.next == 0 {
		b.full = true
	}
}

// Points returns the buffered points, oldest first.
func (b *Buffer) Points() []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.full {
		return append([]Point(nil), b.points[:b.next]...)
	}

	out := make([]Point, 0, len(b.points))
	out = append(out, b.points[b.next:]...)

	return append(out, b.points[:b.next]...)
}

// Last returns the newest point, if any.
func (b *Buffer) Last() (Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.full && b.next == 0 {
		return Point{}, false
	}

	idx := (b.next - 1 + len(b.points)) % len(b.points)

	return b.points[idx], true
}
