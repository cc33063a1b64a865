/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package textlayout

// Preset is a named starting point for a new canvas element: content, font,
// color and initial box. Position is where toolbar actions drop the element.
type Preset struct {
	Name    string
	Content string
	Font    FontSpec
	Color   string
	X, Y    float64
	W, H    float64
}

// Preset names.
const (
	PresetCourse    = "Course"
	PresetSignature = "Signature"
	PresetQR        = "QR"
	PresetTag       = "Tag"
	PresetQRTag     = "QRTag"
)

// QRMarker is the display text of QR placeholders.
const QRMarker = "[QR]"

var builtinPresets = map[string]Preset{
	PresetCourse: {
		Name:    PresetCourse,
		Content: "Nombre del Curso",
		Font:    FontSpec{Family: "Arial", SizePx: 24, Bold: true},
		Color:   "#000000",
		X:       50, Y: 50, W: 200, H: 30,
	},
	PresetSignature: {
		Name:    PresetSignature,
		Content: "Firma",
		Font:    FontSpec{Family: "Times New Roman", SizePx: 16, Italic: true},
		Color:   "#000000",
		X:       200, Y: 200, W: 100, H: 20,
	},
	PresetQR: {
		Name:    PresetQR,
		Content: QRMarker,
		Font:    FontSpec{Family: "Courier New", SizePx: 12},
		Color:   "#000000",
		X:       300, Y: 300, W: 140, H: 80,
	},
	PresetTag: {
		Name:  PresetTag,
		Font:  FontSpec{Family: "Arial", SizePx: 18},
		Color: "#000",
		X:     100, Y: 100, W: 100, H: 20,
	},
	PresetQRTag: {
		Name:    PresetQRTag,
		Content: QRMarker,
		Font:    FontSpec{Family: "Arial", SizePx: 18},
		Color:   "#000",
		X:       100, Y: 100, W: 140, H: 140,
	},
}

// GetPreset returns a builtin preset by name.
func GetPreset(name string) (Preset, bool) {
	p, ok := builtinPresets[name]
	return p, ok
}

// ListPresets lists the builtin preset names in stable order.
func ListPresets() []string {
	return []string{PresetCourse, PresetSignature, PresetQR, PresetTag, PresetQRTag}
}

// FontFamilies are the families offered by the edit panel.
var FontFamilies = []string{"Arial", "Times New Roman", "Courier New", "Georgia", "Verdana"}
