/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package element defines the placeable items of a certificate layout and an
// ordered, copy-on-write store for them.
package element

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"certlayout/internal/geometry"
)

// Kind distinguishes plain text items from QR placeholders.
type Kind string

const (
	KindText Kind = "text"
	KindQR   Kind = "qr"
)

// Default visual properties applied when an element leaves them unset.
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 16
	DefaultColor      = "#000"
)

// ErrInvalid is returned by Validate for malformed elements.
var ErrInvalid = errors.New("element: invalid")

// Element is one item placed on the canvas. X/Y/Width/Height describe the
// unrotated box in canvas pixels; Rotation turns it about its center.
type Element struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"type"`
	Content    string  `json:"content"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Color      string  `json:"color,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Rotation   float64 `json:"rotation,omitempty"`
	ScaleX     float64 `json:"scaleX,omitempty"`
	ScaleY     float64 `json:"scaleY,omitempty"`
	// QRText holds the payload encoded by a QR element; it is never rendered as text.
	QRText string `json:"qrText,omitempty"`
}

// Rect returns the unrotated bounding box.
func (e Element) Rect() geometry.Rect {
	return geometry.R(e.X, e.Y, e.Width, e.Height)
}

// Center returns the rotation pivot in canvas coordinates.
func (e Element) Center() geometry.Pt { return e.Rect().Center() }

// IsQR reports whether the element is a QR placeholder.
func (e Element) IsQR() bool { return e.Kind == KindQR }

// Family returns the font family or the default.
func (e Element) Family() string {
	if strings.TrimSpace(e.FontFamily) == "" {
		return DefaultFontFamily
	}
	return e.FontFamily
}

// Size returns the font size or the default.
func (e Element) Size() float64 {
	if e.FontSize <= 0 {
		return DefaultFontSize
	}
	return e.FontSize
}

// Ink returns the text color or the default.
func (e Element) Ink() string {
	if strings.TrimSpace(e.Color) == "" {
		return DefaultColor
	}
	return e.Color
}

// Scales returns the effective scale factors, treating zero as 1.
func (e Element) Scales() (sx, sy float64) {
	sx, sy = e.ScaleX, e.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

// Validate checks the structural invariants of a single element.
func (e Element) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if e.Kind != KindText && e.Kind != KindQR {
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalid, e.ID, e.Kind)
	}
	return nil
}

// Normalize clamps e into the ranges every stored element keeps: size at
// least MinWidth×MinHeight, rotation in [0, 360) and a set font size of at
// least MinFontSize. A zero font size stays zero and means the default.
func (e Element) Normalize() Element {
	e.Width = math.Max(geometry.MinWidth, finite(e.Width))
	e.Height = math.Max(geometry.MinHeight, finite(e.Height))
	e.Rotation = geometry.NormalizeDegrees(finite(e.Rotation))
	if e.FontSize != 0 {
		e.FontSize = math.Max(geometry.MinFontSize, finite(e.FontSize))
	}
	return e
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// List is an ordered sequence of elements. Earlier entries render below later ones.
type List []Element

// Clone returns a copy that shares no backing array with l.
func (l List) Clone() List {
	if l == nil {
		return List{}
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Index returns the position of id, or -1.
func (l List) Index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the element with id.
func (l List) Find(id string) (Element, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Element{}, false
}

// Contents returns the content of every element, in order.
func (l List) Contents() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		out = append(out, e.Content)
	}
	return out
}

// Normalized returns a copy of l with every element normalized.
func (l List) Normalized() List {
	out := make(List, len(l))
	for i, e := range l {
		out[i] = e.Normalize()
	}
	return out
}

// Validate checks every element and that ids are unique.
func (l List) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for _, e := range l {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalid, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Equal reports whether two lists hold the same elements in the same order.
func (l List) Equal(o List) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}
