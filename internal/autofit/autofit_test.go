/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package autofit

import (
	"context"
	"errors"
	"testing"
	"time"

	"certlayout/internal/element"
	"certlayout/internal/geometry"
)

type fixedCanvas struct {
	r  geometry.Rect
	ok bool
}

func (c fixedCanvas) Bounds() (geometry.Rect, bool) { return c.r, c.ok }

// lateRenderer reports nothing until it has been asked `after` times.
type lateRenderer struct {
	after int
	calls int
	w, h  float64
}

func (r *lateRenderer) NaturalSize(element.Element) (float64, float64, bool) {
	r.calls++
	if r.calls <= r.after {
		return 0, 0, false
	}
	return r.w, r.h, true
}

func TestFitTextCeilsAndFloors(t *testing.T) {
	s := element.NewStore(nil)
	e := s.Add(element.Element{Kind: element.KindText, Content: "x", Width: 100, Height: 20})
	r := &lateRenderer{after: 2, w: 57.2, h: 3.1}
	sz := &Sizer{Store: s, Renderer: r}
	res, ok, err := sz.Fit(context.Background(), e.ID)
	if err != nil || !ok {
		t.Fatalf("fit failed: ok=%v err=%v", ok, err)
	}
	if res.Width != 58 || res.Height != geometry.MinHeight {
		t.Fatalf("unexpected size %+v", res)
	}
	got, _ := s.Find(e.ID)
	if got.Width != 58 || got.Height != geometry.MinHeight {
		t.Fatalf("store not updated: %+v", got)
	}
	if r.calls != 3 {
		t.Fatalf("expected retries until rendered, got %d calls", r.calls)
	}
}

func TestFitIsIdempotent(t *testing.T) {
	s := element.NewStore(nil)
	e := s.Add(element.Element{Kind: element.KindText, Content: "Nombre del Curso", FontSize: 24, Bold: true})
	sz := &Sizer{Store: s}
	a, _, _ := sz.Fit(context.Background(), e.ID)
	b, _, _ := sz.Fit(context.Background(), e.ID)
	if a != b {
		t.Fatalf("expected stable size, got %+v then %+v", a, b)
	}
}

func TestFitGivesUpSilently(t *testing.T) {
	s := element.NewStore(nil)
	e := s.Add(element.Element{Kind: element.KindText, Width: 100, Height: 20})
	sz := &Sizer{Store: s, Renderer: &lateRenderer{after: 100}, MaxAttempts: 3}
	if _, ok, err := sz.Fit(context.Background(), e.ID); ok || err != nil {
		t.Fatalf("expected silent no-op, got ok=%v err=%v", ok, err)
	}
	got, _ := s.Find(e.ID)
	if got.Width != 100 || got.Height != 20 {
		t.Fatalf("size must be unchanged: %+v", got)
	}
	if _, ok, _ := sz.Fit(context.Background(), "missing"); ok {
		t.Fatalf("missing element must not fit")
	}
}

func TestFitQRClampsToCanvas(t *testing.T) {
	s := element.NewStore(nil)
	e := s.Add(element.Element{Kind: element.KindQR, Content: "[QR]", Width: 500, Height: 20})
	sz := &Sizer{Store: s, Renderer: &lateRenderer{w: 9999, h: 9999}, Canvas: fixedCanvas{geometry.R(0, 0, 800, 600), true}}
	res, ok, _ := sz.Fit(context.Background(), e.ID)
	if !ok || res.Width != 320 || res.Height != 20 {
		t.Fatalf("unexpected QR size %+v ok=%v", res, ok)
	}

	sz.Canvas = fixedCanvas{}
	if _, ok, _ := sz.Fit(context.Background(), e.ID); ok {
		t.Fatalf("QR fit without canvas must be a no-op")
	}
}

func TestFitHonoursCancellation(t *testing.T) {
	s := element.NewStore(nil)
	e := s.Add(element.Element{Kind: element.KindText})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sz := &Sizer{Store: s, Frames: Ticker{Interval: time.Hour}}
	if _, _, err := sz.Fit(ctx, e.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClampQRAndInitialSize(t *testing.T) {
	w, h := ClampQR(0, 0, geometry.Size{W: 50, H: 50})
	if w != QRMinWidth || h != QRMinHeight {
		t.Fatalf("expected floors, got %v x %v", w, h)
	}
	w, h = InitialQRSize(140, 80, geometry.Size{W: 800, H: 600})
	if w != 140 || h != 80 {
		t.Fatalf("expected defaults on a large canvas, got %v x %v", w, h)
	}
	w, h = InitialQRSize(140, 140, geometry.Size{W: 300, H: 300})
	if w != 84 || h != 54 {
		t.Fatalf("expected canvas caps, got %v x %v", w, h)
	}
}
