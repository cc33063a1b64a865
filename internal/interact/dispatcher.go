/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package interact

import (
	"sort"
	"sync"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"certlayout/internal/geometry"
)

// PointerFunc receives a pointer position in client coordinates.
type PointerFunc func(p geometry.Pt)

// KeyFunc receives a keyboard event.
type KeyFunc func(e key.Event)

// Dispatcher is the window-level event bus. Listeners registered here see
// every pointer event regardless of which element is under the pointer.
type Dispatcher struct {
	mu      sync.Mutex
	next    int
	moves   map[int]PointerFunc
	ups     map[int]PointerFunc
	keys    map[int]KeyFunc
	capture string
}

// NewDispatcher returns an empty bus.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		moves: map[int]PointerFunc{},
		ups:   map[int]PointerFunc{},
		keys:  map[int]KeyFunc{},
	}
}

// OnPointerMove registers fn for pointer moves. The returned function removes it.
func (d *Dispatcher) OnPointerMove(fn PointerFunc) (cancel func()) {
	return d.add(func(id int) { d.moves[id] = fn }, func(id int) { delete(d.moves, id) })
}

// OnPointerUp registers fn for pointer releases.
func (d *Dispatcher) OnPointerUp(fn PointerFunc) (cancel func()) {
	return d.add(func(id int) { d.ups[id] = fn }, func(id int) { delete(d.ups, id) })
}

// OnKey registers fn for key events.
func (d *Dispatcher) OnKey(fn KeyFunc) (cancel func()) {
	return d.add(func(id int) { d.keys[id] = fn }, func(id int) { delete(d.keys, id) })
}

func (d *Dispatcher) add(put, del func(int)) func() {
	d.mu.Lock()
	id := d.next
	d.next++
	put(id)
	d.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			del(id)
			d.mu.Unlock()
		})
	}
}

// Listeners returns the number of registered listeners of all kinds.
func (d *Dispatcher) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.moves) + len(d.ups) + len(d.keys)
}

// Capture routes the pointer to owner until ReleaseCapture.
func (d *Dispatcher) Capture(owner string) {
	d.mu.Lock()
	d.capture = owner
	d.mu.Unlock()
}

// ReleaseCapture drops the capture if owner holds it.
func (d *Dispatcher) ReleaseCapture(owner string) {
	d.mu.Lock()
	if d.capture == owner {
		d.capture = ""
	}
	d.mu.Unlock()
}

// Captured returns the current capture owner.
func (d *Dispatcher) Captured() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capture, d.capture != ""
}

// PointerMove delivers a move to every move listener in registration order.
func (d *Dispatcher) PointerMove(p geometry.Pt) {
	for _, fn := range snapshot(d, d.moves) {
		fn(p)
	}
}

// PointerUp delivers a release to every up listener.
func (d *Dispatcher) PointerUp(p geometry.Pt) {
	for _, fn := range snapshot(d, d.ups) {
		fn(p)
	}
}

// Key delivers a key event to every key listener.
func (d *Dispatcher) Key(e key.Event) {
	for _, fn := range snapshot(d, d.keys) {
		fn(e)
	}
}

// HandleMouse translates a mouse event into a move or release. Presses are
// left to the host, which hit-tests them against elements and handles.
// It reports whether the event was dispatched.
func (d *Dispatcher) HandleMouse(e mouse.Event) bool {
	p := geometry.Pt{X: float64(e.X), Y: float64(e.Y)}
	switch {
	case e.Direction == mouse.DirNone:
		d.PointerMove(p)
		return true
	case e.Direction == mouse.DirRelease && e.Button == mouse.ButtonLeft:
		d.PointerUp(p)
		return true
	}
	return false
}

// HandleKey forwards a key event to the key listeners.
func (d *Dispatcher) HandleKey(e key.Event) { d.Key(e) }

// snapshot copies listeners so they run without the lock held; a listener
// may cancel itself or others while being called.
func snapshot[F any](d *Dispatcher, m map[int]F) []F {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]F, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
