/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// Minimum element box and font size produced by a resize.
const (
	MinWidth    = 10
	MinHeight   = 8
	MinFontSize = 6
)

// Handle identifies one of the eight resize grips around an element.
type Handle string

const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

// Handles lists all grips in clockwise order starting at north.
var Handles = []Handle{HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW, HandleNW}

// ParseHandle returns the handle for s, or false if s names none.
func ParseHandle(s string) (Handle, bool) {
	for _, h := range Handles {
		if string(h) == s {
			return h, true
		}
	}
	return "", false
}

// Vertical reports whether h only changes the height (n, s).
func (h Handle) Vertical() bool { return h == HandleN || h == HandleS }

// Horizontal reports whether h only changes the width (e, w).
func (h Handle) Horizontal() bool { return h == HandleE || h == HandleW }

// OppositeCorner returns the anchor point, in the element's local frame, that
// stays fixed while h is dragged. Unknown handles behave like se.
func OppositeCorner(h Handle, w, ht float64) Pt {
	switch h {
	case HandleNW:
		return Pt{w / 2, ht / 2}
	case HandleN:
		return Pt{0, ht / 2}
	case HandleNE:
		return Pt{-w / 2, ht / 2}
	case HandleE:
		return Pt{-w / 2, 0}
	case HandleS:
		return Pt{0, -ht / 2}
	case HandleSW:
		return Pt{w / 2, -ht / 2}
	case HandleW:
		return Pt{w / 2, 0}
	default:
		return Pt{-w / 2, -ht / 2}
	}
}

// ResizeInput captures the state of an element when a resize gesture began
// plus the current pointer. Center and Pointer are in world coordinates;
// Origin is the world position of the canvas top-left, used to translate
// back into canvas coordinates.
type ResizeInput struct {
	Handle        Handle
	Start         Size
	StartRotation float64
	StartFontSize float64
	Center        Pt
	Pointer       Pt
	Origin        Pt
	Grid          Grid
	// Container, when non-nil, bounds the resulting box.
	Container *Size
}

// ResizeResult is the new unrotated box in canvas coordinates and the font
// size scaled to match.
type ResizeResult struct {
	Rect     Rect
	Scale    float64
	FontSize float64
}

// Resize computes a handle drag. The opposite corner (or edge midpoint) keeps
// its world position up to grid snapping and container clamping; edge
// handles leave the cross dimension untouched.
func Resize(in ResizeInput) ResizeResult {
	sw, sh := in.Start.W, in.Start.H
	pl := ToLocal(in.Pointer, in.Center, in.StartRotation)
	opp := OppositeCorner(in.Handle, sw, sh)
	switch {
	case in.Handle.Vertical():
		pl.X = 0
	case in.Handle.Horizontal():
		pl.Y = 0
	}

	w := math.Abs(pl.X - opp.X)
	h := math.Abs(pl.Y - opp.Y)
	if in.Handle.Vertical() {
		w = sw
	}
	if in.Handle.Horizontal() {
		h = sh
	}
	w = math.Max(MinWidth, in.Grid.Snap(w))
	h = math.Max(MinHeight, in.Grid.Snap(h))

	// new center grows away from the anchor, towards the pointer
	c := Pt{
		X: opp.X + direction(pl.X-opp.X, -opp.X)*w/2,
		Y: opp.Y + direction(pl.Y-opp.Y, -opp.Y)*h/2,
	}
	if in.Handle.Vertical() {
		c.X = 0
	}
	if in.Handle.Horizontal() {
		c.Y = 0
	}
	wc := ToWorld(c, in.Center, in.StartRotation)
	topLeft := Pt{
		X: in.Grid.Snap(wc.X - w/2 - in.Origin.X),
		Y: in.Grid.Snap(wc.Y - h/2 - in.Origin.Y),
	}
	if in.Container != nil {
		topLeft = ClampToBounds(topLeft, Size{w, h}, *in.Container)
	}

	scale := ScaleFor(in.Handle, in.Start, Size{w, h})
	font := in.StartFontSize
	if font > 0 {
		font = math.Max(MinFontSize, math.Round(font*scale))
	}
	return ResizeResult{
		Rect:     Rect{X: topLeft.X, Y: topLeft.Y, W: w, H: h},
		Scale:    scale,
		FontSize: font,
	}
}

// ScaleFor returns the font scale factor for a resize from start to now:
// the height ratio for n/s, the width ratio for e/w, the mean of both for corners.
func ScaleFor(h Handle, start, now Size) float64 {
	sx, sy := 1.0, 1.0
	if start.W > 0 {
		sx = now.W / start.W
	}
	if start.H > 0 {
		sy = now.H / start.H
	}
	switch {
	case h.Vertical():
		return sy
	case h.Horizontal():
		return sx
	default:
		return (sx + sy) / 2
	}
}

// direction returns the sign of d, falling back to the sign of fallback when d is zero.
func direction(d, fallback float64) float64 {
	if d == 0 {
		d = fallback
	}
	if d < 0 {
		return -1
	}
	return 1
}
