/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleBatch = `{
  "nombreLote": "Curso de Seguridad",
  "orientacion": "p",
  "instructor": "Ing. López",
  "fondo": "data:image/png;base64,AAAA",
  "lstConstanciasLote": [
    {"nombrePersona": "  Juan Pérez García ", "curp": "PEGJ800101HDFRRN09", "identificador": "c-1"},
    {"nombrePersona": null, "identificador": "c-2", "fondoImagen": "data:image/jpeg;base64,BBBB"}
  ]
}`

func TestDecodeBatch(t *testing.T) {
	b, err := DecodeBatch([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Name != "Curso de Seguridad" || b.Orientation != Vertical || len(b.Recipients) != 2 {
		t.Fatalf("unexpected batch %+v", b)
	}
	if b.Recipients[0].TrimmedName() != "Juan Pérez García" {
		t.Fatalf("unexpected trimmed name %q", b.Recipients[0].TrimmedName())
	}
	if b.Recipients[1].Name != "" {
		t.Fatalf("null name should decode as empty")
	}
}

func TestDecodeBatchRejectsSchemaViolations(t *testing.T) {
	cases := []string{
		`{}`,
		`{"lstConstanciasLote": [{"nombrePersona": "x"}]}`,
		`{"lstConstanciasLote": [], "orientacion": "diagonal"}`,
		`not json`,
	}
	for _, c := range cases {
		if _, err := DecodeBatch([]byte(c)); !errors.Is(err, ErrInvalidBatch) {
			t.Fatalf("expected ErrInvalidBatch for %s, got %v", c, err)
		}
	}
}

func TestDefaultOrientation(t *testing.T) {
	b, err := DecodeBatch([]byte(`{"lstConstanciasLote": []}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Orientation != Horizontal {
		t.Fatalf("expected horizontal default, got %q", b.Orientation)
	}
	if w, h := b.Orientation.PageSizeMM(); w != 279 || h != 216 {
		t.Fatalf("unexpected page size %dx%d", w, h)
	}
	if w, h := Vertical.PageSizeMM(); w != 216 || h != 279 {
		t.Fatalf("unexpected vertical page size %dx%d", w, h)
	}
}

func TestLoadBatch(t *testing.T) {
	p := filepath.Join(t.TempDir(), "lote.json")
	if err := os.WriteFile(p, []byte(sampleBatch), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadBatch(p); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := LoadBatch(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSubmissionNormalizesPayload(t *testing.T) {
	b, err := DecodeBatch([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := b.Submission()
	if s.Orientation != "p" || s.Background != "AAAA" {
		t.Fatalf("unexpected submission header %+v", s)
	}
	if s.Recipients[0].ID != "c-1" || s.Recipients[0].Background != "AAAA" {
		t.Fatalf("recipient defaults not applied: %+v", s.Recipients[0])
	}
	if s.Recipients[1].Background != "BBBB" {
		t.Fatalf("per-recipient background should win: %+v", s.Recipients[1])
	}
	if b.Recipients[0].ID != "" || b.Background != "data:image/png;base64,AAAA" {
		t.Fatalf("submission must not modify the batch")
	}
}

func TestCheck(t *testing.T) {
	var b Batch
	if err := b.Check(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	b = Batch{Name: "x", Background: "y", Recipients: []Recipient{{Identifier: "1"}}}
	if err := b.Check(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseOrientation(t *testing.T) {
	cases := map[string]Orientation{"l": Horizontal, "P": Vertical, "vertical": Vertical, "": Horizontal, "x": Horizontal}
	for in, want := range cases {
		if got := ParseOrientation(in); got != want {
			t.Fatalf("ParseOrientation(%q) = %q want %q", in, got, want)
		}
	}
	if Vertical.Short() != "p" || Horizontal.Short() != "l" {
		t.Fatalf("unexpected shorthand")
	}
}
