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

// Alignment guides for dragging an element against its siblings and the page.
// Deterministic so the editor can draw the same guides the tests assert.

// GuideOptions controls which alignments are considered.
type GuideOptions struct {
	// Threshold is the largest distance at which an alignment snaps. Defaults to 6.
	Threshold float64
	Edges     bool
	Centers   bool
}

// Guide is a line to render while an alignment is active.
type Guide struct {
	Vertical bool
	Center   bool
	Position float64
	From, To Pt
}

// Align nudges moving onto the nearest edge or center of any anchor, independently
// in X and Y. It returns the adjusted rectangle and the guides that fired.
func Align(moving Rect, anchors []Rect, opts GuideOptions) (Rect, []Guide) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	bx := best{dist: math.Inf(1)}
	by := best{dist: math.Inf(1)}

	ml, mr, mcx := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mt, mb, mcy := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2

	for _, a := range anchors {
		al, ar, acx := a.X, a.X+a.W, a.X+a.W/2
		at, ab, acy := a.Y, a.Y+a.H, a.Y+a.H/2
		if opts.Edges {
			bx.consider(ml-al, opts.Threshold, vertical(al, moving, a, false))
			bx.consider(mr-ar, opts.Threshold, vertical(ar, moving, a, false))
			bx.consider(ml-ar, opts.Threshold, vertical(ar, moving, a, false))
			bx.consider(mr-al, opts.Threshold, vertical(al, moving, a, false))
			by.consider(mt-at, opts.Threshold, horizontal(at, moving, a, false))
			by.consider(mb-ab, opts.Threshold, horizontal(ab, moving, a, false))
			by.consider(mt-ab, opts.Threshold, horizontal(ab, moving, a, false))
			by.consider(mb-at, opts.Threshold, horizontal(at, moving, a, false))
		}
		if opts.Centers {
			bx.consider(mcx-acx, opts.Threshold, vertical(acx, moving, a, true))
			by.consider(mcy-acy, opts.Threshold, horizontal(acy, moving, a, true))
		}
	}

	out := moving
	var guides []Guide
	if bx.ok {
		out.X = Round(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.ok {
		out.Y = Round(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return out, guides
}

type best struct {
	ok    bool
	delta float64
	dist  float64
	guide Guide
}

func (b *best) consider(delta, threshold float64, g Guide) {
	d := math.Abs(delta)
	if d > threshold || d >= b.dist {
		return
	}
	b.ok, b.delta, b.dist, b.guide = true, delta, d, g
}

func vertical(x float64, a, b Rect, center bool) Guide {
	x = Round(x, 3)
	return Guide{
		Vertical: true,
		Center:   center,
		Position: x,
		From:     Pt{x, math.Min(a.Y, b.Y)},
		To:       Pt{x, math.Max(a.Y+a.H, b.Y+b.H)},
	}
}

func horizontal(y float64, a, b Rect, center bool) Guide {
	y = Round(y, 3)
	return Guide{
		Center:   center,
		Position: y,
		From:     Pt{math.Min(a.X, b.X), y},
		To:       Pt{math.Max(a.X+a.W, b.X+b.W), y},
	}
}
