/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package element

import (
	"sync"

	"github.com/google/uuid"
)

// NewID returns a fresh element identifier.
func NewID() string { return uuid.NewString() }

// Store owns the current element list. Every write installs a new List;
// lists handed out earlier are never mutated, so they can be kept as history snapshots.
type Store struct {
	mu     sync.RWMutex
	list   List
	nextID int
	subs   map[int]func(List)
}

// NewStore returns a store seeded with a copy of initial.
func NewStore(initial List) *Store {
	return &Store{list: initial.Clone(), subs: map[int]func(List){}}
}

// List returns the current list. Callers must treat it as read-only.
func (s *Store) List() List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// Find returns the element with id.
func (s *Store) Find(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Find(id)
}

// Add appends e, assigning an id when e has none, and returns the stored
// element. Size, rotation and font size are normalized.
func (s *Store) Add(e Element) Element {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.Kind == "" {
		e.Kind = KindText
	}
	e = e.Normalize()
	s.apply(func(cur List) (List, bool) {
		next := make(List, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, e), true
	})
	return e
}

// RemoveByID drops the element with id and returns it. Unknown ids are ignored.
func (s *Store) RemoveByID(id string) (Element, bool) {
	var removed Element
	var ok bool
	s.apply(func(cur List) (List, bool) {
		i := cur.Index(id)
		if i < 0 {
			return cur, false
		}
		removed, ok = cur[i], true
		next := make(List, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		return append(next, cur[i+1:]...), true
	})
	return removed, ok
}

// UpdateByID applies patch to a copy of the element with id and installs the result.
// The id is preserved whatever patch does. Unknown ids are a no-op and report false.
func (s *Store) UpdateByID(id string, patch func(*Element)) bool {
	var ok bool
	s.apply(func(cur List) (List, bool) {
		i := cur.Index(id)
		if i < 0 || patch == nil {
			return cur, false
		}
		next := cur.Clone()
		patch(&next[i])
		next[i].ID = id
		ok = true
		return next, true
	})
	return ok
}

// ReplaceAll installs a copy of l.
func (s *Store) ReplaceAll(l List) {
	s.apply(func(List) (List, bool) { return l.Clone(), true })
}

// Subscribe registers fn to be called with the new list after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(List)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) apply(fn func(List) (List, bool)) {
	s.mu.Lock()
	next, changed := fn(s.list)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.list = next
	subs := make([]func(List), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()
	for _, f := range subs {
		f(next)
	}
}
