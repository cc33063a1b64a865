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

import (
	"math"
	"testing"
)

func baseInput(h Handle, pointer Pt) ResizeInput {
	return ResizeInput{
		Handle:        h,
		Start:         Size{100, 50},
		StartFontSize: 20,
		Center:        Pt{150, 125},
		Pointer:       pointer,
	}
}

func TestResizeSouthEastUnrotated(t *testing.T) {
	res := Resize(baseInput(HandleSE, Pt{220, 160}))
	if res.Rect != (Rect{X: 100, Y: 100, W: 120, H: 60}) {
		t.Fatalf("unexpected rect %+v", res.Rect)
	}
	if !near(res.Scale, 1.2, 1e-9) || res.FontSize != 24 {
		t.Fatalf("unexpected scale %v font %v", res.Scale, res.FontSize)
	}
}

func TestResizeEdgeKeepsCrossDimension(t *testing.T) {
	res := Resize(baseInput(HandleE, Pt{250, 300}))
	if res.Rect != (Rect{X: 100, Y: 100, W: 150, H: 50}) {
		t.Fatalf("unexpected rect %+v", res.Rect)
	}
	if res.Scale != 1.5 || res.FontSize != 30 {
		t.Fatalf("east handle should scale by width ratio, got %v / %v", res.Scale, res.FontSize)
	}

	res = Resize(baseInput(HandleN, Pt{-400, 75}))
	if res.Rect != (Rect{X: 100, Y: 75, W: 100, H: 75}) {
		t.Fatalf("unexpected rect for north %+v", res.Rect)
	}
	if res.Scale != 1.5 {
		t.Fatalf("north handle should scale by height ratio, got %v", res.Scale)
	}
}

func TestResizeRotatedKeepsOppositeCorner(t *testing.T) {
	start := R(100, 100, 100, 50)
	for _, deg := range []float64{30, 90, 215} {
		in := baseInput(HandleNW, ToWorld(Pt{-70, -40}, Pt{150, 125}, deg))
		in.StartRotation = deg
		res := Resize(in)
		before := Corners(start, deg)[2]
		after := Corners(res.Rect, deg)[2]
		if math.Hypot(after.X-before.X, after.Y-before.Y) > 1 {
			t.Fatalf("deg %v: se corner moved from %+v to %+v", deg, before, after)
		}
	}
}

func TestResizeEnforcesMinimums(t *testing.T) {
	in := baseInput(HandleSE, Pt{100, 100})
	in.StartFontSize = 8
	res := Resize(in)
	if res.Rect.W != MinWidth || res.Rect.H != MinHeight {
		t.Fatalf("expected minimum box, got %+v", res.Rect)
	}
	if res.FontSize != MinFontSize {
		t.Fatalf("expected minimum font, got %v", res.FontSize)
	}
	// anchored at the original top-left
	if res.Rect.X != 100 || res.Rect.Y != 100 {
		t.Fatalf("minimum box should stay anchored, got %+v", res.Rect)
	}
}

func TestResizeSnapsAndClamps(t *testing.T) {
	in := baseInput(HandleSE, Pt{224, 163})
	in.Grid = Grid{Size: 10, Enabled: true}
	res := Resize(in)
	if res.Rect.W != 120 || res.Rect.H != 60 {
		t.Fatalf("expected size snapped to grid, got %+v", res.Rect)
	}

	in = baseInput(HandleSE, Pt{900, 900})
	in.Container = &Size{300, 200}
	res = Resize(in)
	if res.Rect.X+res.Rect.W > 300 && res.Rect.X != 0 {
		t.Fatalf("box escapes container: %+v", res.Rect)
	}
	if res.Rect.X < 0 || res.Rect.Y < 0 {
		t.Fatalf("box has negative origin: %+v", res.Rect)
	}
}

func TestResizeOriginOffset(t *testing.T) {
	in := baseInput(HandleSE, Pt{220 + 40, 160 + 30})
	in.Center = Pt{150 + 40, 125 + 30}
	in.Origin = Pt{40, 30}
	res := Resize(in)
	if res.Rect != (Rect{X: 100, Y: 100, W: 120, H: 60}) {
		t.Fatalf("origin offset not removed: %+v", res.Rect)
	}
}

func TestAlignToPageEdges(t *testing.T) {
	page := Rect{W: 200, H: 100}
	moving := Rect{X: 3, Y: 4, W: 80, H: 40}
	out, guides := Align(moving, []Rect{page}, GuideOptions{Threshold: 6, Edges: true})
	if out.X != 0 || out.Y != 0 {
		t.Fatalf("expected snap to origin, got %+v", out)
	}
	var v, h bool
	for _, g := range guides {
		if g.Vertical && g.Position == 0 {
			v = true
		}
		if !g.Vertical && g.Position == 0 {
			h = true
		}
	}
	if !v || !h {
		t.Fatalf("expected both guides, got %+v", guides)
	}
}

func TestAlignToCenters(t *testing.T) {
	page := Rect{W: 200, H: 100}
	moving := Rect{X: 48, Y: 17, W: 100, H: 60}
	out, guides := Align(moving, []Rect{page}, GuideOptions{Threshold: 5, Centers: true})
	if out.X != 50 || out.Y != 20 {
		t.Fatalf("expected centered rect, got %+v", out)
	}
	for _, g := range guides {
		if !g.Center {
			t.Fatalf("expected center guides only, got %+v", g)
		}
	}
}

func TestAlignOutOfThreshold(t *testing.T) {
	moving := Rect{X: 40, Y: 40, W: 10, H: 10}
	out, guides := Align(moving, []Rect{{W: 200, H: 200}}, GuideOptions{Threshold: 4, Edges: true})
	if out != moving || len(guides) != 0 {
		t.Fatalf("expected no snap, got %+v %+v", out, guides)
	}
}
