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

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts by family and style.
// Faces are cached per size since the editor measures the same few sizes repeatedly.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

type faceKey struct {
	fontKey
	size float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

// LoadTTF parses a TrueType/OpenType file and registers it under family.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Add(family, bold, italic, data)
}

// Add registers font data under family.
func (fl *FontLibrary) Add(family string, bold, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
		fl.faces = make(map[faceKey]font.Face)
	}
	fl.fonts[fontKey{family: normFamily(family), bold: bold, italic: italic}] = f
	return nil
}

// Len returns the number of registered fonts.
func (fl *FontLibrary) Len() int {
	if fl == nil {
		return 0
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return len(fl.fonts)
}

func (fl *FontLibrary) face(spec FontSpec) (font.Face, bool) {
	if fl == nil {
		return nil, false
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	key := fontKey{family: normFamily(spec.Family), bold: spec.Bold, italic: spec.Italic}
	f, ok := fl.fonts[key]
	if !ok {
		// same family, any style
		for k, v := range fl.fonts {
			if k.family == key.family {
				f, key, ok = v, k, true
				break
			}
		}
	}
	if !ok {
		return nil, false
	}
	fk := faceKey{fontKey: key, size: spec.size()}
	if face, ok := fl.faces[fk]; ok {
		return face, true
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.size(), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, false
	}
	fl.faces[fk] = face
	return face, true
}

func normFamily(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// OTProvider resolves specs through a FontLibrary and falls back to another
// Provider (BasicProvider by default) for unknown families.
type OTProvider struct {
	Lib      *FontLibrary
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if face, ok := p.Lib.face(spec); ok {
		m := face.Metrics()
		return face, Metrics{
			Ascent:  float64(m.Ascent.Round()),
			Descent: float64(m.Descent.Round()),
			LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
			Scale:   1,
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
