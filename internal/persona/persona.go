/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package persona picks the recipient used as the live stand-in while editing
// and derives the tag pool offered to the user.
package persona

import (
	"strings"
	"sync"
	"unicode/utf8"

	"certlayout/internal/domain"
	"certlayout/internal/element"

	"golang.org/x/text/unicode/norm"
)

// Extremes holds the recipients with the longest and shortest trimmed names.
// OK is false when no recipient has a non-empty name.
type Extremes struct {
	Longest  domain.Recipient
	Shortest domain.Recipient
	OK       bool
}

// nameLen counts characters of the NFC form so composed and decomposed
// accents compare equal.
func nameLen(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// ComputeExtremes scans recipients once. Ties keep the first one seen.
func ComputeExtremes(recipients []domain.Recipient) Extremes {
	var ex Extremes
	var longN, shortN int
	for _, r := range recipients {
		n := r.TrimmedName()
		if n == "" {
			continue
		}
		l := nameLen(n)
		if !ex.OK {
			ex = Extremes{Longest: r, Shortest: r, OK: true}
			longN, shortN = l, l
			continue
		}
		if l > longN {
			ex.Longest, longN = r, l
		}
		if l < shortN {
			ex.Shortest, shortN = r, l
		}
	}
	return ex
}

// Change describes a switch of the visible persona.
type Change struct {
	Before, After string
}

// Changed reports whether the visible name text differs.
func (c Change) Changed() bool { return c.Before != "" && c.Before != c.After }

// Resolver tracks the long/short toggle over a batch's extremes.
type Resolver struct {
	mu   sync.RWMutex
	ex   Extremes
	long bool
}

// NewResolver computes the extremes of recipients with the long name visible.
func NewResolver(recipients []domain.Recipient) *Resolver {
	return &Resolver{ex: ComputeExtremes(recipients), long: true}
}

// Refresh recomputes the extremes, keeping the toggle.
func (r *Resolver) Refresh(recipients []domain.Recipient) {
	ex := ComputeExtremes(recipients)
	r.mu.Lock()
	r.ex = ex
	r.mu.Unlock()
}

// Long reports whether the long name is visible.
func (r *Resolver) Long() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.long
}

// Visible returns the persona currently shown on the canvas.
func (r *Resolver) Visible() (domain.Recipient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visibleLocked()
}

func (r *Resolver) visibleLocked() (domain.Recipient, bool) {
	if !r.ex.OK {
		return domain.Recipient{}, false
	}
	if r.long {
		return r.ex.Longest, true
	}
	return r.ex.Shortest, true
}

// VisibleName returns the trimmed name of the visible persona, or "".
func (r *Resolver) VisibleName() string {
	p, _ := r.Visible()
	return p.TrimmedName()
}

// SetLong flips the toggle and reports the visible name before and after.
func (r *Resolver) SetLong(long bool) Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	before, _ := r.visibleLocked()
	r.long = long
	after, _ := r.visibleLocked()
	return Change{Before: before.TrimmedName(), After: after.TrimmedName()}
}

// ReplaceName rewrites text elements whose content equals or contains before,
// substituting after. QR elements and empty text are skipped. It returns the
// new list and the ids that changed; l itself is not modified.
func ReplaceName(l element.List, before, after string) (element.List, []string) {
	if before == "" || before == after {
		return l, nil
	}
	var changed []string
	out := l.Clone()
	for i := range out {
		e := &out[i]
		if e.IsQR() || e.Content == "" {
			continue
		}
		if e.Content == before {
			e.Content = after
		} else if strings.Contains(e.Content, before) {
			e.Content = strings.ReplaceAll(e.Content, before, after)
		} else {
			continue
		}
		changed = append(changed, e.ID)
	}
	if len(changed) == 0 {
		return l, nil
	}
	return out, changed
}
