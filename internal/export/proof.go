/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"certlayout/internal/element"
	"certlayout/internal/geometry"
)

var (
	proofPaper = color.RGBA{255, 255, 255, 255}
	proofFrame = color.RGBA{200, 200, 200, 255}
	proofText  = color.RGBA{0, 0, 0, 255}
	proofQR    = color.RGBA{0, 90, 200, 255}
)

const proofLabelRunes = 32

// RenderProof draws every element's rotated box and a label with its text
// on a blank canvas. A zero canvas uses the 800x600 editor size.
func RenderProof(l element.List, canvas geometry.Size) *image.RGBA {
	if canvas.W <= 0 || canvas.H <= 0 {
		canvas = geometry.Size{W: 800, H: 600}
	}
	pixW, pixH := int(math.Round(canvas.W)), int(math.Round(canvas.H))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: proofPaper}, image.Point{}, draw.Src)
	strokeRect(img, 0, 0, pixW-1, pixH-1, proofFrame)

	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	for _, e := range l {
		col := proofText
		if e.IsQR() {
			col = proofQR
		}
		c := geometry.Corners(e.Rect(), e.Rotation)
		for i := range c {
			drawLine(img, c[i], c[(i+1)%len(c)], col)
		}
		d.Src = image.NewUniform(col)
		d.Dot = fixed.P(int(math.Round(e.X))+2, int(math.Round(e.Y))+11)
		d.DrawString(label(e.Content))
	}
	return img
}

// EncodeProof writes RenderProof as PNG.
func EncodeProof(w io.Writer, l element.List, canvas geometry.Size) error {
	if err := png.Encode(w, RenderProof(l, canvas)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WriteProofPNG writes the proof image to path.
func WriteProofPNG(path string, l element.List, canvas geometry.Size) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := EncodeProof(f, l, canvas); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func label(s string) string {
	r := []rune(s)
	if len(r) > proofLabelRunes {
		return string(r[:proofLabelRunes-1]) + "…"
	}
	return s
}

// drawLine steps along the longer axis; pixels outside img are dropped.
func drawLine(img *image.RGBA, a, b geometry.Pt, col color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		img.SetRGBA(int(math.Round(a.X)), int(math.Round(a.Y)), col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		img.SetRGBA(int(math.Round(a.X+dx*t)), int(math.Round(a.Y+dy*t)), col)
	}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}
