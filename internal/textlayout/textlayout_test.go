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
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestMeasureDeterministic(t *testing.T) {
	a := Measure(BasicProvider{}, "ABC", FontSpec{SizePx: 13})
	b := Measure(BasicProvider{}, "ABC", FontSpec{SizePx: 13})
	if a != b {
		t.Fatalf("expected identical boxes, got %+v vs %+v", a, b)
	}
	if a.W != 21 || a.H != 13 || a.Lines != 1 {
		t.Fatalf("unexpected 7x13 box: %+v", a)
	}
}

func TestMeasureScalesWithSize(t *testing.T) {
	small := Measure(BasicProvider{}, "Juan", FontSpec{SizePx: 12})
	large := Measure(BasicProvider{}, "Juan", FontSpec{SizePx: 24})
	if !(large.W > small.W) || !(large.H > small.H) {
		t.Fatalf("expected larger box for larger font: %+v vs %+v", small, large)
	}
}

func TestMeasureMultiline(t *testing.T) {
	one := Measure(nil, "Firma", FontSpec{})
	two := Measure(nil, "Firma\nDirector", FontSpec{})
	if two.Lines != 2 || two.H != 2*one.H {
		t.Fatalf("expected two lines of equal height, got %+v vs %+v", one, two)
	}
	if !(two.W > one.W) {
		t.Fatalf("width should follow the longest line: %+v", two)
	}
}

func TestBoxCeil(t *testing.T) {
	b := Box{W: 10.2, H: 7.01}.Ceil()
	if b.W != 11 || b.H != 8 {
		t.Fatalf("unexpected ceil %+v", b)
	}
}

func TestOTProviderFallback(t *testing.T) {
	p := OTProvider{Lib: NewFontLibrary()}
	b := Measure(p, "Hello", FontSpec{Family: "Nonexistent", SizePx: 12})
	if b.W <= 0 || b.H <= 0 {
		t.Fatalf("expected positive measure with fallback: %+v", b)
	}
}

func TestOTProviderUsesLoadedFont(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.Add("Go", false, false, goregular.TTF); err != nil {
		t.Fatalf("add font: %v", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("expected one font, got %d", lib.Len())
	}
	p := OTProvider{Lib: lib}
	// bold is not registered; the regular face of the family is used
	b := Measure(p, "Hello", FontSpec{Family: "go", SizePx: 20, Bold: true})
	basic := Measure(BasicProvider{}, "Hello", FontSpec{SizePx: 20})
	if b.W <= 0 || b.W == basic.W {
		t.Fatalf("expected OpenType measurement, got %+v (basic %+v)", b, basic)
	}
}

func TestLoadTTFMissingFile(t *testing.T) {
	lib := NewFontLibrary()
	if err := lib.LoadTTF("X", false, false, filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("expected error for missing font file")
	}
	if err := lib.Add("X", false, false, []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestBuiltinPresets(t *testing.T) {
	for _, name := range ListPresets() {
		p, ok := GetPreset(name)
		if !ok || p.Name != name {
			t.Fatalf("preset %s missing", name)
		}
	}
	c, _ := GetPreset(PresetCourse)
	if c.Content != "Nombre del Curso" || c.Font.SizePx != 24 || !c.Font.Bold || c.X != 50 || c.W != 200 {
		t.Fatalf("unexpected course preset %+v", c)
	}
	if _, ok := GetPreset("Dialogue"); ok {
		t.Fatalf("unexpected preset")
	}
}
