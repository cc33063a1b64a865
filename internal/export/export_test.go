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
	"archive/zip"
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certlayout/internal/domain"
	"certlayout/internal/element"
	"certlayout/internal/geometry"
)

func sampleBundle() Bundle {
	return Bundle{
		Name: "Curso Go",
		Recipients: []domain.Recipient{
			{Identifier: "A-001", Name: "O'Brien & <Sons>", HTML: "<body><h1>O&#39;Brien</h1></body>"},
			{Identifier: "B/002", Name: "Ana", HTML: "<body>Ana</body>"},
			{Identifier: "A-001", Name: "Dup", HTML: "<body>Dup</body>"},
			{Identifier: "C-003", Name: "Sin html"},
			{Name: "Sin id", HTML: "<body>x</body>"},
		},
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		id    string
		index int
		want  string
	}{
		{"A-001", 0, "A-001.html"},
		{"B/002", 1, "B_002.html"},
		{"../../etc/passwd", 2, "etc_passwd.html"},
		{"  ", 4, "constancia-5.html"},
	}
	for _, c := range cases {
		if got := FileName(domain.Recipient{Identifier: c.id}, c.index); got != c.want {
			t.Fatalf("FileName(%q) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res, err := WriteDir(dir, sampleBundle())
	if err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	want := []string{"A-001.html", "B_002.html", "A-001-2.html", "constancia-5.html", ManifestName}
	if strings.Join(res.Files, ",") != strings.Join(want, ",") {
		t.Fatalf("files = %v, want %v", res.Files, want)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "C-003" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
	b, err := os.ReadFile(filepath.Join(dir, "A-001.html"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc := string(b)
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") || !strings.Contains(doc, "<title>O&#39;Brien &amp; &lt;Sons&gt;</title>") {
		t.Fatalf("unexpected document:\n%s", doc)
	}
	var m manifest
	mb, _ := os.ReadFile(filepath.Join(dir, ManifestName))
	if err := json.Unmarshal(mb, &m); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Batch != "Curso Go" || len(m.Documents) != 4 || m.Documents[2].File != "A-001-2.html" {
		t.Fatalf("unexpected manifest %+v", m)
	}
}

func TestWriteZipWithProof(t *testing.T) {
	b := sampleBundle()
	b.Proof = true
	b.Canvas = geometry.Size{W: 320, H: 240}
	b.Layout = element.List{
		{ID: "t", Kind: element.KindText, Content: "Nombre", X: 10, Y: 10, Width: 100, Height: 20},
		{ID: "q", Kind: element.KindQR, Content: "[QR]", X: 200, Y: 150, Width: 60, Height: 60, Rotation: 30},
	}
	out, res, err := WriteZip(filepath.Join(t.TempDir(), "bundle"), b)
	if err != nil {
		t.Fatalf("WriteZip: %v", err)
	}
	if filepath.Ext(out) != ".zip" {
		t.Fatalf("expected .zip extension, got %s", out)
	}
	rd, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = rd.Close() }()
	if len(rd.File) != len(res.Files) {
		t.Fatalf("zip has %d entries, result lists %d", len(rd.File), len(res.Files))
	}
	var proof []byte
	for _, f := range rd.File {
		if f.Name != ProofName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open proof: %v", err)
		}
		proof, _ = io.ReadAll(rc)
		_ = rc.Close()
	}
	img, err := png.Decode(bytes.NewReader(proof))
	if err != nil {
		t.Fatalf("decode proof: %v", err)
	}
	if sz := img.Bounds().Size(); sz.X != 320 || sz.Y != 240 {
		t.Fatalf("proof size %v", sz)
	}
}

func TestRenderProofDrawsBoxes(t *testing.T) {
	l := element.List{{ID: "t", Kind: element.KindText, X: 20, Y: 30, Width: 50, Height: 20}}
	img := RenderProof(l, geometry.Size{})
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 600 {
		t.Fatalf("zero canvas must default to 800x600")
	}
	if got := img.RGBAAt(45, 30); got != proofText {
		t.Fatalf("expected top edge pixel, got %v", got)
	}
	if got := img.RGBAAt(400, 400); got != proofPaper {
		t.Fatalf("expected blank paper, got %v", got)
	}
}
