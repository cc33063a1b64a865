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

// ToLocal maps a world-space point into the unrotated frame of an element
// centered at center and rotated by deg degrees. The result is relative to the center.
func ToLocal(p, center Pt, deg float64) Pt {
	return Rotate(-Radians(deg)).Apply(p.Sub(center))
}

// ToWorld is the inverse of ToLocal.
func ToWorld(local, center Pt, deg float64) Pt {
	return Rotate(Radians(deg)).Apply(local).Add(center)
}

// Angle returns the direction from center to p in degrees, in (-180, 180].
func Angle(center, p Pt) float64 {
	return Degrees(math.Atan2(p.Y-center.Y, p.X-center.X))
}

// NormalizeDegrees wraps deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// HalfTurn wraps deg into (-180, 180].
func HalfTurn(deg float64) float64 {
	d := NormalizeDegrees(deg)
	if d > 180 {
		d -= 360
	}
	return d
}

// RotateGesture computes the rotation produced by moving the pointer from
// start to now around center, starting from startRotation. The delta is
// rounded to whole degrees and the result wrapped into [0, 360).
func RotateGesture(startRotation float64, center, start, now Pt) float64 {
	delta := math.Round(Angle(center, now) - Angle(center, start))
	return NormalizeDegrees(HalfTurn(startRotation) + delta)
}
