/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes compiled recipient documents to disk, either as a
// directory of HTML files or as one zip bundle.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"certlayout/internal/domain"
	"certlayout/internal/element"
	"certlayout/internal/geometry"
	applog "certlayout/internal/log"
	"certlayout/internal/version"
)

// ManifestName is the index written next to the documents.
const ManifestName = "manifest.json"

// ProofName is the layout proof image added when Bundle.Proof is set.
const ProofName = "layout.png"

// Bundle is one batch worth of compiled documents.
type Bundle struct {
	Name       string
	Recipients []domain.Recipient
	// Proof, when set, adds a PNG of the element boxes on a canvas of Canvas size.
	Proof  bool
	Layout element.List
	Canvas geometry.Size
}

// Result lists what was written.
type Result struct {
	Files []string
	// Skipped holds identifiers of recipients without compiled HTML.
	Skipped []string
}

type manifestEntry struct {
	Identifier string `json:"identificador"`
	Name       string `json:"nombrePersona,omitempty"`
	File       string `json:"file"`
}

type manifest struct {
	Batch     string          `json:"nombreLote"`
	Generator string          `json:"generator"`
	Created   time.Time       `json:"created"`
	Documents []manifestEntry `json:"documents"`
}

type entry struct {
	name string
	data []byte
}

// WriteDir writes one <identificador>.html per recipient into outDir.
func WriteDir(outDir string, b Bundle) (Result, error) {
	entries, res, err := build(b)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("ensure out dir: %w", err)
	}
	for _, e := range entries {
		if err := os.WriteFile(filepath.Join(outDir, e.name), e.data, 0o644); err != nil {
			return res, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	applog.WithComponent("export").Info("documents written", slog.String("dir", outDir), slog.Int("files", len(res.Files)), slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// WriteZip packages the documents into a zip archive at outPath. A missing
// .zip extension is added.
func WriteZip(outPath string, b Bundle) (string, Result, error) {
	if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
		outPath += ".zip"
	}
	entries, res, err := build(b)
	if err != nil {
		return outPath, res, err
	}
	zw, f, err := createZip(outPath)
	if err != nil {
		return outPath, res, err
	}
	defer func() { _ = f.Close() }()
	for _, e := range entries {
		if err := addZipFile(zw, e.name, e.data); err != nil {
			return outPath, res, fmt.Errorf("zip add %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return outPath, res, fmt.Errorf("close zip: %w", err)
	}
	applog.WithComponent("export").Info("bundle written", slog.String("path", outPath), slog.Int("files", len(res.Files)), slog.Int("skipped", len(res.Skipped)))
	return outPath, res, nil
}

func build(b Bundle) ([]entry, Result, error) {
	var (
		res     Result
		entries []entry
		used    = map[string]bool{}
	)
	m := manifest{Batch: b.Name, Generator: "certlayout " + version.String(), Created: time.Now().UTC()}
	for i, r := range b.Recipients {
		if strings.TrimSpace(r.HTML) == "" {
			res.Skipped = append(res.Skipped, firstNonEmpty(r.Identifier, fmt.Sprintf("#%d", i+1)))
			continue
		}
		name := uniqueName(FileName(r, i), used)
		entries = append(entries, entry{name: name, data: Document(r)})
		res.Files = append(res.Files, name)
		m.Documents = append(m.Documents, manifestEntry{Identifier: r.Identifier, Name: r.TrimmedName(), File: name})
	}
	if b.Proof {
		buf := &bytes.Buffer{}
		if err := EncodeProof(buf, b.Layout, b.Canvas); err != nil {
			return nil, res, err
		}
		entries = append(entries, entry{name: ProofName, data: buf.Bytes()})
		res.Files = append(res.Files, ProofName)
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, res, fmt.Errorf("build manifest: %w", err)
	}
	entries = append(entries, entry{name: ManifestName, data: mb})
	res.Files = append(res.Files, ManifestName)
	return entries, res, nil
}

// Document wraps a recipient's compiled body into a standalone HTML file.
func Document(r domain.Recipient) []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(firstNonEmpty(r.TrimmedName(), r.Identifier)))
	buf.WriteString("<style>@page { margin: 0; }</style>\n</head>\n")
	buf.WriteString(r.HTML)
	buf.WriteString("\n</html>\n")
	return buf.Bytes()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is <identificador>.html with unsafe characters replaced. Recipients
// without an identifier are numbered by position.
func FileName(r domain.Recipient, index int) string {
	base := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(r.Identifier), "_"), "._")
	if base == "" {
		base = fmt.Sprintf("constancia-%d", index+1)
	}
	return base + ".html"
}

func uniqueName(name string, used map[string]bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	out := name
	for i := 2; used[out]; i++ {
		out = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	used[out] = true
	return out
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	// Ensure directory exists
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create zip: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
