/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo implements a linear undo/redo history of element lists.
package undo

import (
	"sync"
	"time"

	"certlayout/internal/element"
)

// DefaultMaxDepth is the number of snapshots kept when Config leaves it unset.
const DefaultMaxDepth = 200

// Snapshot is an immutable copy of the element list at one point in time.
type Snapshot struct {
	Elements element.List
	TS       time.Time
}

// Config controls the depth cap.
type Config struct {
	// MaxDepth limits the number of snapshots kept; the oldest are dropped first.
	MaxDepth int
}

// History is a stack of snapshots with a cursor marking the current one.
// Pushing after an undo discards the redo branch. It is safe for concurrent use.
type History struct {
	cfg    Config
	mu     sync.Mutex
	stack  []Snapshot
	cursor int
	now    func() time.Time
}

func NewHistory(cfg Config) *History {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &History{cfg: cfg, cursor: -1, now: time.Now}
}

// Push records a copy of l as the new current snapshot.
func (h *History) Push(l element.List) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < len(h.stack)-1 {
		h.stack = h.stack[:h.cursor+1]
	}
	h.stack = append(h.stack, Snapshot{Elements: l.Clone(), TS: h.now()})
	h.cursor++
	if over := len(h.stack) - h.cfg.MaxDepth; over > 0 {
		h.stack = append([]Snapshot(nil), h.stack[over:]...)
		h.cursor -= over
	}
}

// Undo moves the cursor back and returns the snapshot it lands on.
// It reports false when there is nothing earlier than the current snapshot.
func (h *History) Undo() (element.List, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.stack[h.cursor].Elements.Clone(), true
}

// Redo moves the cursor forward and returns the snapshot it lands on.
func (h *History) Redo() (element.List, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor >= len(h.stack)-1 {
		return nil, false
	}
	h.cursor++
	return h.stack[h.cursor].Elements.Clone(), true
}

// Current returns the snapshot under the cursor.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < 0 {
		return Snapshot{}, false
	}
	s := h.stack[h.cursor]
	s.Elements = s.Elements.Clone()
	return s, true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.stack)-1
}

// Reset empties the history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = nil
	h.cursor = -1
}

// Stats returns the stack length and cursor for diagnostics.
func (h *History) Stats() (length int, cursor int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack), h.cursor
}
