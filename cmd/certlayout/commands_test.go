/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certlayout/internal/config"
	"certlayout/internal/crash"
	"certlayout/internal/domain"
	"certlayout/internal/export"
	applog "certlayout/internal/log"
	"certlayout/internal/storage"
)

const batchJSON = `{
  "nombreLote": "Curso Go",
  "orientacion": "horizontal",
  "fondo": "data:image/png;base64,AAAA",
  "lstConstanciasLote": [
    {"identificador": "A-001", "nombrePersona": "Ana Li", "sello": "SEAL-1"},
    {"identificador": "B-002", "nombrePersona": "Bo Chen"}
  ]
}`

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.Path = t.TempDir()
	out := &bytes.Buffer{}
	return &cli{cfg: cfg, log: applog.WithComponent("cli"), session: &crash.Session{}, out: out}, out
}

func writeBatch(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "batch.json")
	if err := os.WriteFile(p, []byte(batchJSON), 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	return p
}

func TestNewLayoutThenCompile(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.json")
	if err := c.newLayout(context.Background(), layout, ""); err != nil {
		t.Fatalf("new: %v", err)
	}
	doc, err := storage.OpenLayout(layout)
	if err != nil {
		t.Fatalf("open layout: %v", err)
	}
	if doc.Name != "layout" || len(doc.Elements) != 3 || doc.PreviewHTML == "" {
		t.Fatalf("unexpected starter layout: name=%q elements=%d", doc.Name, len(doc.Elements))
	}
	if c.session.LayoutPath == "" || c.session.Snapshot == nil {
		t.Fatalf("crash session not wired: %+v", c.session)
	}

	bundle := filepath.Join(dir, "out")
	if err := c.compile(writeBatch(t, dir), layout, bundle); err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, name := range []string{"A-001.html", "B-002.html", export.ProofName, export.ManifestName} {
		if _, err := os.Stat(filepath.Join(bundle, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(out.String(), "Compiled 2 of 2 recipients") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestPreviewAndProof(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.json")
	if err := c.newLayout(context.Background(), layout, "Demo"); err != nil {
		t.Fatalf("new: %v", err)
	}
	out.Reset()
	if err := c.preview(layout, ""); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out.String(), "<") {
		t.Fatalf("expected html on stdout, got %q", out.String())
	}
	png := filepath.Join(dir, "proof.png")
	if err := c.proof(layout, png); err != nil {
		t.Fatalf("proof: %v", err)
	}
	if fi, err := os.Stat(png); err != nil || fi.Size() == 0 {
		t.Fatalf("proof not written: %v", err)
	}
}

func TestSubmitWritesPayload(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.json")
	if err := c.newLayout(context.Background(), layout, ""); err != nil {
		t.Fatalf("new: %v", err)
	}
	payload := filepath.Join(dir, "sub", "payload.json")
	if err := c.submit(context.Background(), writeBatch(t, dir), layout, payload); err != nil {
		t.Fatalf("submit: %v", err)
	}
	data, err := os.ReadFile(payload)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	var sb domain.SubmissionBatch
	if err := json.Unmarshal(data, &sb); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if sb.Orientation != "l" || sb.Background != "AAAA" || len(sb.Recipients) != 2 {
		t.Fatalf("unexpected payload %+v", sb)
	}
	for _, r := range sb.Recipients {
		if r.ID != r.Identifier || r.HTML == "" || r.Background != "AAAA" {
			t.Fatalf("recipient not normalized: %+v", r)
		}
	}
}

func TestSubmitIncompleteBatch(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "batch.json")
	if err := os.WriteFile(p, []byte(`{"lstConstanciasLote": []}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := c.submit(context.Background(), p, "", filepath.Join(dir, "payload.json"))
	if !errors.Is(err, domain.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "payload.json")); statErr == nil {
		t.Fatalf("payload must not be written for an incomplete batch")
	}
}

func TestTemplatesCommands(t *testing.T) {
	c, out := newTestCLI(t)
	ctx := context.Background()
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.json")
	if err := c.newLayout(ctx, layout, ""); err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.templates(ctx, []string{"save", "base", layout}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	out.Reset()
	if err := c.templates(ctx, []string{"list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out.String(), "base\thorizontal\t") {
		t.Fatalf("unexpected list output %q", out.String())
	}
	out.Reset()
	if err := c.templates(ctx, []string{"history", "base"}); err != nil {
		t.Fatalf("history: %v", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Fatalf("expected 2 snapshots, got %d:\n%s", n, out.String())
	}
	restored := filepath.Join(dir, "restored.json")
	if err := c.templates(ctx, []string{"show", "base", restored}); err != nil {
		t.Fatalf("show: %v", err)
	}
	doc, err := storage.OpenLayout(restored)
	if err != nil || len(doc.Elements) != 3 {
		t.Fatalf("restored layout: %v (%d elements)", err, len(doc.Elements))
	}
	if err := c.templates(ctx, []string{"delete", "base"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.templates(ctx, []string{"show", "base"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := c.templates(ctx, []string{"save", "x"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestShowConfigListsOverrides(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv(config.EnvGridSize, "16")
	c, out := newTestCLI(t)
	if err := c.showConfig(); err != nil {
		t.Fatalf("config: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "Config file:") || !strings.Contains(s, "editor.grid_size overridden by "+config.EnvGridSize) {
		t.Fatalf("unexpected config output:\n%s", s)
	}
}

func TestPageCanvas(t *testing.T) {
	if _, ok := (pageCanvas{}).Bounds(); ok {
		t.Fatalf("zero canvas must report unknown bounds")
	}
	r, ok := canvasOf(config.Defaults()).Bounds()
	if !ok || r.W != 800 || r.H != 600 {
		t.Fatalf("unexpected bounds %+v", r)
	}
}
