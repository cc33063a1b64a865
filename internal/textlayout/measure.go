/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package textlayout measures the natural box of a text element and holds the
// named element presets. Measurement sits behind the Provider interface so
// tests can use the fixed basicfont face while hosts load real OpenType fonts.
package textlayout

import (
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// DefaultSizePx is used when a FontSpec has no size.
const DefaultSizePx = 16

// FontSpec describes a requested font. Sizes are CSS pixels.
type FontSpec struct {
	Family string
	SizePx float64
	Bold   bool
	Italic bool
}

func (s FontSpec) size() float64 {
	if s.SizePx <= 0 {
		return DefaultSizePx
	}
	return s.SizePx
}

// Metrics are the vertical metrics of a resolved face in pixels. Scale
// converts the face's advances to the requested size for faces that cannot
// be instantiated at arbitrary sizes.
type Metrics struct {
	Ascent, Descent, LineGap float64
	Scale                    float64
}

// LineHeight is the distance between two baselines.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps a FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses basicfont.Face7x13 scaled to the requested size.
// It is deterministic and needs no font files.
type BasicProvider struct{}

const basicHeight = 13

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	scale := spec.size() / basicHeight
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()) * scale,
		Descent: float64(m.Descent.Round()) * scale,
		LineGap: float64(m.Height.Round()-m.Ascent.Round()-m.Descent.Round()) * scale,
		Scale:   scale,
	}
}

// Box is the natural, unconstrained size of a block of text.
type Box struct {
	W, H  float64
	Lines int
}

// Measure returns the natural box of text set in spec. Lines break only at '\n'.
func Measure(p Provider, text string, spec FontSpec) Box {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	scale := met.Scale
	if scale <= 0 {
		scale = 1
	}
	d := &font.Drawer{Face: face}
	lines := strings.Split(text, "\n")
	var w float64
	for _, ln := range lines {
		if lw := advance(d, ln) * scale; lw > w {
			w = lw
		}
	}
	return Box{
		W:     w,
		H:     float64(len(lines)) * met.LineHeight(),
		Lines: len(lines),
	}
}

func advance(d *font.Drawer, s string) float64 {
	adv := d.MeasureString(s)
	return float64(adv) / 64
}

// Ceil rounds a measured box up to whole pixels.
func (b Box) Ceil() Box {
	return Box{W: math.Ceil(b.W), H: math.Ceil(b.H), Lines: b.Lines}
}
