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

// DefaultGridSize is the snapping granularity used when none is configured.
const DefaultGridSize = 8

// Grid controls snapping of positions and sizes.
type Grid struct {
	Size    float64
	Enabled bool
}

// Snap rounds v to the nearest grid multiple when enabled, otherwise to the
// nearest integer. A non-positive grid size behaves like a disabled grid.
func (g Grid) Snap(v float64) float64 {
	if !g.Enabled || g.Size <= 0 {
		return math.Round(v)
	}
	return math.Round(v/g.Size) * g.Size
}

// Snap is a convenience for Grid{Size: grid, Enabled: enabled}.Snap(v).
func Snap(v, grid float64, enabled bool) float64 {
	return Grid{Size: grid, Enabled: enabled}.Snap(v)
}

// ClampToBounds keeps a box of size s at pos inside a container of size c.
// Coordinates are clamped to [0, c-s]; when the box is larger than the
// container the position is pinned to 0.
func ClampToBounds(pos Pt, s Size, c Size) Pt {
	return Pt{
		X: clamp(pos.X, 0, math.Max(0, c.W-s.W)),
		Y: clamp(pos.Y, 0, math.Max(0, c.H-s.H)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
