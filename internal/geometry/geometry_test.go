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

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestRectContainsAndCenter(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	if c := r.Center(); c.X != 60 || c.Y != 45 {
		t.Fatalf("unexpected center: %+v", c)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Rotate(math.Pi / 2))
	p := m.Apply(Pt{1, 0})
	if math.Abs(p.X-10) > 1e-9 || math.Abs(p.Y-6) > 1e-9 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
}

func TestToLocalToWorldRoundTrip(t *testing.T) {
	c := Pt{150, 125}
	for _, deg := range []float64{0, 37, 90, 181, 359} {
		p := Pt{173.5, 61.25}
		back := ToWorld(ToLocal(p, c, deg), c, deg)
		if !near(back.X, p.X, 1e-9) || !near(back.Y, p.Y, 1e-9) {
			t.Fatalf("deg %v: round trip %+v -> %+v", deg, p, back)
		}
	}
}

func TestToLocalQuarterTurn(t *testing.T) {
	// a point to the right of a 90° (clockwise) element lies above it locally
	l := ToLocal(Pt{160, 100}, Pt{150, 100}, 90)
	if !near(l.X, 0, 1e-9) || !near(l.Y, -10, 1e-9) {
		t.Fatalf("unexpected local point %+v", l)
	}
}

func TestOppositeCorner(t *testing.T) {
	cases := map[Handle]Pt{
		HandleNW: {50, 25}, HandleN: {0, 25}, HandleNE: {-50, 25}, HandleE: {-50, 0},
		HandleSE: {-50, -25}, HandleS: {0, -25}, HandleSW: {50, -25}, HandleW: {50, 0},
		Handle("bogus"): {-50, -25},
	}
	for h, want := range cases {
		if got := OppositeCorner(h, 100, 50); got != want {
			t.Fatalf("%s: got %+v want %+v", h, got, want)
		}
	}
}

func TestParseHandle(t *testing.T) {
	if h, ok := ParseHandle("sw"); !ok || h != HandleSW {
		t.Fatalf("expected sw, got %q %v", h, ok)
	}
	if _, ok := ParseHandle("middle"); ok {
		t.Fatalf("expected unknown handle to fail")
	}
}

func TestSnap(t *testing.T) {
	if v := Snap(23, 10, true); v != 20 {
		t.Fatalf("snap 23 -> %v", v)
	}
	if v := Snap(25, 10, true); v != 30 {
		t.Fatalf("snap 25 -> %v", v)
	}
	if v := Snap(23.4, 10, false); v != 23 {
		t.Fatalf("disabled grid should round, got %v", v)
	}
	if v := (Grid{Size: 0, Enabled: true}).Snap(7.6); v != 8 {
		t.Fatalf("zero grid should round, got %v", v)
	}
}

func TestClampToBounds(t *testing.T) {
	p := ClampToBounds(Pt{-5, 300}, Size{50, 50}, Size{200, 200})
	if p.X != 0 || p.Y != 150 {
		t.Fatalf("unexpected clamp %+v", p)
	}
	// larger than container pins to origin
	p = ClampToBounds(Pt{30, 30}, Size{500, 10}, Size{200, 200})
	if p.X != 0 || p.Y != 30 {
		t.Fatalf("unexpected oversized clamp %+v", p)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{-30: 330, 720: 0, 359.5: 359.5, 360: 0, -360: 0}
	for in, want := range cases {
		if got := NormalizeDegrees(in); got != want {
			t.Fatalf("normalize(%v) = %v want %v", in, got, want)
		}
	}
	if got := NormalizeDegrees(math.NaN()); got != 0 {
		t.Fatalf("NaN should normalize to 0, got %v", got)
	}
}

func TestRotateGesture(t *testing.T) {
	c := Pt{0, 0}
	if r := RotateGesture(0, c, Pt{10, 0}, Pt{0, 10}); r != 90 {
		t.Fatalf("expected 90, got %v", r)
	}
	if r := RotateGesture(350, c, Pt{10, 0}, Pt{0, 10}); r != 80 {
		t.Fatalf("expected wrap to 80, got %v", r)
	}
	if r := RotateGesture(0, c, Pt{10, 0}, Pt{0, -10}); r != 270 {
		t.Fatalf("expected 270, got %v", r)
	}
	if r := RotateGesture(12, c, Pt{10, 0}, Pt{10, 0}); r != 12 {
		t.Fatalf("no pointer movement should keep rotation, got %v", r)
	}
}
