/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package autofit resizes elements to their rendered content. Text elements
// take their natural box; QR elements are capped to a share of the canvas.
package autofit

import (
	"context"
	"log/slog"
	"math"
	"time"

	"certlayout/internal/element"
	"certlayout/internal/geometry"
	applog "certlayout/internal/log"
	"certlayout/internal/textlayout"
)

// DefaultMaxAttempts is how many frames Fit waits for an element to render.
const DefaultMaxAttempts = 8

// QR boxes are capped to these shares of the canvas, with absolute floors.
const (
	QRMaxWidthShare  = 0.4
	QRMaxHeightShare = 0.3
	QRMinWidth       = 40
	QRMinHeight      = 32
)

// Renderer reports the natural, unconstrained size of a rendered element.
// ok is false while the element has not been rendered yet.
type Renderer interface {
	NaturalSize(e element.Element) (w, h float64, ok bool)
}

// Canvas reports the current canvas box; ok is false when it is not laid out.
type Canvas interface {
	Bounds() (geometry.Rect, bool)
}

// Frames blocks until the next render frame.
type Frames interface {
	Wait(ctx context.Context) error
}

// Immediate treats every call as a new frame. Used for headless rendering.
type Immediate struct{}

func (Immediate) Wait(ctx context.Context) error { return ctx.Err() }

// Ticker waits Interval between frames, 16ms when unset.
type Ticker struct{ Interval time.Duration }

func (t Ticker) Wait(ctx context.Context) error {
	d := t.Interval
	if d <= 0 {
		d = 16 * time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TextRenderer measures text with a textlayout.Provider. Every element is
// considered rendered.
type TextRenderer struct {
	Provider textlayout.Provider
}

func (r TextRenderer) NaturalSize(e element.Element) (float64, float64, bool) {
	box := textlayout.Measure(r.Provider, e.Content, textlayout.FontSpec{
		Family: e.Family(),
		SizePx: e.Size(),
		Bold:   e.Bold,
		Italic: e.Italic,
	})
	return box.W, box.H, true
}

// Sizer fits elements of a store.
type Sizer struct {
	Store       *element.Store
	Renderer    Renderer
	Canvas      Canvas
	Frames      Frames
	MaxAttempts int
	Log         *slog.Logger
}

// Result is the size written back by Fit.
type Result struct {
	ID            string
	Width, Height float64
}

// Fit waits for id to render and writes its fitted size to the store. It
// reports false when the element never rendered, no longer exists, or is a
// QR element on a canvas that is not laid out; those cases leave the
// element untouched. The only error is a cancelled context.
func (s *Sizer) Fit(ctx context.Context, id string) (Result, bool, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	frames := s.Frames
	if frames == nil {
		frames = Immediate{}
	}
	renderer := s.Renderer
	if renderer == nil {
		renderer = TextRenderer{}
	}
	lg := s.Log
	if lg == nil {
		lg = applog.WithComponent("autofit")
	}

	var (
		el   element.Element
		w, h float64
		ok   bool
	)
	for i := 0; i < attempts && !ok; i++ {
		if err := frames.Wait(ctx); err != nil {
			return Result{}, false, err
		}
		var found bool
		if el, found = s.Store.Find(id); !found {
			continue
		}
		w, h, ok = renderer.NaturalSize(el)
	}
	if !ok {
		lg.Debug("element not rendered; keeping size", slog.String("id", id), slog.Int("attempts", attempts))
		return Result{}, false, nil
	}

	if el.IsQR() {
		var canvas geometry.Rect
		var known bool
		if s.Canvas != nil {
			canvas, known = s.Canvas.Bounds()
		}
		if !known {
			return Result{}, false, nil
		}
		w, h = ClampQR(el.Width, el.Height, canvas.Size())
	} else {
		w = math.Max(geometry.MinWidth, math.Ceil(w))
		h = math.Max(geometry.MinHeight, math.Ceil(h))
	}

	if !s.Store.UpdateByID(id, func(e *element.Element) { e.Width, e.Height = w, h }) {
		return Result{}, false, nil
	}
	return Result{ID: id, Width: w, Height: h}, true, nil
}

// ClampQR caps a QR box to the canvas shares. Zero sizes take the cap.
func ClampQR(w, h float64, canvas geometry.Size) (float64, float64) {
	maxW := math.Max(QRMinWidth, math.Round(canvas.W*QRMaxWidthShare))
	maxH := math.Max(QRMinHeight, math.Round(canvas.H*QRMaxHeightShare))
	if w <= 0 {
		w = maxW
	}
	if h <= 0 {
		h = maxH
	}
	return math.Min(w, maxW), math.Min(h, maxH)
}

// InitialQRSize is the starting box for a new QR element: dw×dh capped by
// 28% of the canvas width and 18% of its height, with the QR floors.
func InitialQRSize(dw, dh float64, canvas geometry.Size) (float64, float64) {
	return math.Min(dw, math.Max(QRMinWidth, math.Round(canvas.W*0.28))),
		math.Min(dh, math.Max(QRMinHeight, math.Round(canvas.H*0.18)))
}
