/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package interact turns pointer gestures on the canvas into element updates.
// A Controller runs one gesture at a time (drag, resize or rotate) and
// registers window-level listeners on a Dispatcher for its duration.
package interact

import (
	"log/slog"
	"math"
	"sync"

	"certlayout/internal/element"
	"certlayout/internal/geometry"
	applog "certlayout/internal/log"
)

// Canvas reports the canvas box in client coordinates; ok is false when it is not laid out.
type Canvas interface {
	Bounds() (geometry.Rect, bool)
}

// Gesture names the kind of interaction that produced a commit.
type Gesture string

const (
	GestureDrag   Gesture = "drag"
	GestureResize Gesture = "resize"
	GestureRotate Gesture = "rotate"
)

// Mode is the controller state. Exactly one of Idle, Dragging, Resizing or Rotating.
type Mode interface{ isMode() }

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging moves an element by the pointer delta.
type Dragging struct {
	ID           string
	StartPos     geometry.Pt
	StartPointer geometry.Pt
}

// Resizing drags one of the eight handles. Center and Origin are in client coordinates.
type Resizing struct {
	ID            string
	Handle        geometry.Handle
	Start         geometry.Size
	StartRotation float64
	StartFont     float64
	Center        geometry.Pt
	Origin        geometry.Pt
	StartPointer  geometry.Pt
}

// Rotating turns an element about its center. StartRotation is in (-180, 180].
type Rotating struct {
	ID            string
	StartRotation float64
	Center        geometry.Pt
	StartPointer  geometry.Pt
}

func (Idle) isMode()     {}
func (Dragging) isMode() {}
func (Resizing) isMode() {}
func (Rotating) isMode() {}

// Options configures a Controller.
type Options struct {
	Grid geometry.Grid
	// Guides enables alignment against the page and other elements while dragging.
	Guides *geometry.GuideOptions
	Logger *slog.Logger
	// OnSelect is called when a gesture or click selects an element.
	OnSelect func(id string)
	// OnCommit is called after a gesture that moved its element has ended.
	OnCommit func(g Gesture, id string)
}

// Controller is the gesture state machine.
type Controller struct {
	mu     sync.Mutex
	store  *element.Store
	canvas Canvas
	bus    *Dispatcher
	opts   Options
	log    *slog.Logger

	mode          Mode
	selected      string
	moved         bool
	suppressClick bool
	release       []func()
	readout       float64
	rotating      bool
	guides        []geometry.Guide
}

// New returns an idle controller. canvas may be nil when the host has no layout yet.
func New(store *element.Store, canvas Canvas, bus *Dispatcher, opts Options) *Controller {
	if bus == nil {
		bus = NewDispatcher()
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("interact")
	}
	return &Controller{store: store, canvas: canvas, bus: bus, opts: opts, log: l, mode: Idle{}}
}

// Dispatcher returns the bus the controller listens on.
func (c *Controller) Dispatcher() *Dispatcher { return c.bus }

// Mode returns the current state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Selected returns the selected element id, or "".
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Select marks id as selected. An empty id clears the selection.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
	c.notifySelect(id)
}

// RotationReadout returns the live angle while a rotation is in progress.
func (c *Controller) RotationReadout() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readout, c.rotating
}

// Guides returns the alignment guides of the current drag step.
func (c *Controller) Guides() []geometry.Guide {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]geometry.Guide(nil), c.guides...)
}

// StartDrag begins moving id from the given pointer position.
func (c *Controller) StartDrag(id string, pointer geometry.Pt) bool {
	return c.begin(GestureDrag, id, pointer, func(e element.Element, _ geometry.Pt) Mode {
		return Dragging{ID: id, StartPos: geometry.Pt{X: e.X, Y: e.Y}, StartPointer: pointer}
	})
}

// StartResize begins dragging handle h of id.
func (c *Controller) StartResize(id string, h geometry.Handle, pointer geometry.Pt) bool {
	if _, ok := geometry.ParseHandle(string(h)); !ok {
		c.log.Debug("unknown resize handle", slog.String("id", id), slog.String("handle", string(h)))
		return false
	}
	return c.begin(GestureResize, id, pointer, func(e element.Element, origin geometry.Pt) Mode {
		return Resizing{
			ID:            id,
			Handle:        h,
			Start:         geometry.Size{W: e.Width, H: e.Height},
			StartRotation: e.Rotation,
			StartFont:     e.Size(),
			Center:        origin.Add(e.Center()),
			Origin:        origin,
			StartPointer:  pointer,
		}
	})
}

// StartRotate begins rotating id about its center.
func (c *Controller) StartRotate(id string, pointer geometry.Pt) bool {
	return c.begin(GestureRotate, id, pointer, func(e element.Element, origin geometry.Pt) Mode {
		return Rotating{
			ID:            id,
			StartRotation: geometry.HalfTurn(e.Rotation),
			Center:        origin.Add(e.Center()),
			StartPointer:  pointer,
		}
	})
}

func (c *Controller) begin(g Gesture, id string, pointer geometry.Pt, build func(element.Element, geometry.Pt) Mode) bool {
	c.mu.Lock()
	if _, idle := c.mode.(Idle); !idle {
		c.mu.Unlock()
		c.log.Debug("gesture ignored, another is active", slog.String("gesture", string(g)), slog.String("id", id))
		return false
	}
	e, ok := c.store.Find(id)
	if !ok {
		c.mu.Unlock()
		c.log.Debug("gesture target not found", slog.String("gesture", string(g)), slog.String("id", id))
		return false
	}
	origin, _ := c.frame()
	c.mode = build(e, origin)
	c.moved = false
	c.selected = id
	c.guides = nil
	if r, ok := c.mode.(Rotating); ok {
		c.readout, c.rotating = geometry.NormalizeDegrees(r.StartRotation), true
	}
	c.release = append(c.release,
		c.bus.OnPointerMove(func(p geometry.Pt) { c.Move(p) }),
		c.bus.OnPointerUp(func(p geometry.Pt) { c.End(p) }),
	)
	c.bus.Capture(id)
	c.mu.Unlock()

	c.log.Debug("gesture start", slog.String("gesture", string(g)), slog.String("id", id),
		slog.Float64("x", pointer.X), slog.Float64("y", pointer.Y))
	c.notifySelect(id)
	return true
}

// Move applies a pointer move to the active gesture. Moves while idle are ignored.
func (c *Controller) Move(p geometry.Pt) {
	c.mu.Lock()
	id, patch := c.step(p)
	c.mu.Unlock()
	if patch != nil {
		c.store.UpdateByID(id, patch)
	}
}

// step computes the update for p. Called with c.mu held.
func (c *Controller) step(p geometry.Pt) (string, func(*element.Element)) {
	switch m := c.mode.(type) {
	case Dragging:
		if p == m.StartPointer && !c.moved {
			return "", nil
		}
		e, ok := c.store.Find(m.ID)
		if !ok {
			return "", nil
		}
		c.moved = true
		pos := c.dragTo(e, m.StartPos.Add(p.Sub(m.StartPointer)))
		return m.ID, func(el *element.Element) { el.X, el.Y = pos.X, pos.Y }

	case Resizing:
		if p == m.StartPointer && !c.moved {
			return "", nil
		}
		c.moved = true
		_, container := c.frame()
		res := geometry.Resize(geometry.ResizeInput{
			Handle:        m.Handle,
			Start:         m.Start,
			StartRotation: m.StartRotation,
			StartFontSize: m.StartFont,
			Center:        m.Center,
			Pointer:       p,
			Origin:        m.Origin,
			Grid:          c.opts.Grid,
			Container:     container,
		})
		return m.ID, func(el *element.Element) {
			el.X, el.Y = res.Rect.X, res.Rect.Y
			el.Width, el.Height = res.Rect.W, res.Rect.H
			el.FontSize = res.FontSize
		}

	case Rotating:
		if p == m.StartPointer && !c.moved {
			return "", nil
		}
		c.moved = true
		rot := geometry.RotateGesture(m.StartRotation, m.Center, m.StartPointer, p)
		c.readout = rot
		return m.ID, func(el *element.Element) { el.Rotation = rot }
	}
	return "", nil
}

// dragTo snaps, aligns and clamps a proposed top-left position for e.
func (c *Controller) dragTo(e element.Element, pos geometry.Pt) geometry.Pt {
	pos = geometry.Pt{X: c.opts.Grid.Snap(pos.X), Y: c.opts.Grid.Snap(pos.Y)}
	_, container := c.frame()
	c.guides = nil
	if c.opts.Guides != nil {
		var anchors []geometry.Rect
		if container != nil {
			anchors = append(anchors, geometry.Rect{W: container.W, H: container.H})
		}
		for _, o := range c.store.List() {
			if o.ID != e.ID {
				anchors = append(anchors, o.Rect())
			}
		}
		r, guides := geometry.Align(geometry.R(pos.X, pos.Y, e.Width, e.Height), anchors, *c.opts.Guides)
		pos, c.guides = r.Min(), guides
	}
	if container != nil {
		return geometry.ClampToBounds(pos, geometry.Size{W: e.Width, H: e.Height}, *container)
	}
	return geometry.Pt{X: math.Max(0, pos.X), Y: math.Max(0, pos.Y)}
}

// End finishes the active gesture. It reports whether the element moved, in
// which case OnCommit has been called and the next Click is suppressed.
func (c *Controller) End(p geometry.Pt) bool {
	c.mu.Lock()
	var (
		id string
		g  Gesture
	)
	switch m := c.mode.(type) {
	case Dragging:
		id, g = m.ID, GestureDrag
	case Resizing:
		id, g = m.ID, GestureResize
	case Rotating:
		id, g = m.ID, GestureRotate
	default:
		c.mu.Unlock()
		return false
	}
	moved := c.moved
	c.reset()
	c.bus.ReleaseCapture(id)
	c.suppressClick = moved
	c.mu.Unlock()

	c.log.Debug("gesture end", slog.String("gesture", string(g)), slog.String("id", id),
		slog.Bool("moved", moved), slog.Float64("x", p.X), slog.Float64("y", p.Y))
	if moved && c.opts.OnCommit != nil {
		c.opts.OnCommit(g, id)
	}
	return moved
}

// Click handles a click on id. A click right after a gesture that moved its
// element is swallowed. It reports whether the click selected id.
func (c *Controller) Click(id string) bool {
	c.mu.Lock()
	if c.suppressClick {
		c.suppressClick = false
		c.mu.Unlock()
		return false
	}
	if _, ok := c.store.Find(id); !ok {
		c.mu.Unlock()
		return false
	}
	c.selected = id
	c.mu.Unlock()
	c.notifySelect(id)
	return true
}

// Close aborts any gesture and removes every listener the controller registered.
func (c *Controller) Close() {
	c.mu.Lock()
	if id, ok := c.bus.Captured(); ok {
		c.bus.ReleaseCapture(id)
	}
	c.reset()
	c.suppressClick = false
	c.mu.Unlock()
}

// reset returns to Idle and drops listeners. Called with c.mu held.
func (c *Controller) reset() {
	for _, cancel := range c.release {
		cancel()
	}
	c.release = nil
	c.mode = Idle{}
	c.moved = false
	c.rotating = false
	c.readout = 0
	c.guides = nil
}

// frame returns the canvas origin and size in client coordinates.
func (c *Controller) frame() (geometry.Pt, *geometry.Size) {
	if c.canvas == nil {
		return geometry.Pt{}, nil
	}
	b, ok := c.canvas.Bounds()
	if !ok {
		return geometry.Pt{}, nil
	}
	return b.Min(), &geometry.Size{W: b.W, H: b.H}
}

func (c *Controller) notifySelect(id string) {
	if c.opts.OnSelect != nil {
		c.opts.OnSelect(id)
	}
}
