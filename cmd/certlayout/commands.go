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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"certlayout/internal/compiler"
	"certlayout/internal/config"
	"certlayout/internal/crash"
	"certlayout/internal/domain"
	"certlayout/internal/editor"
	"certlayout/internal/export"
	"certlayout/internal/storage"
)

var errUsage = errors.New("invalid arguments")

// configKeys are printed by the config command in this order.
var configKeys = []string{
	"editor.grid_size",
	"editor.snapping",
	"compiler.qr_image_path",
	"compiler.qr_fallback",
	"storage.driver",
	"storage.path",
	"storage.dsn",
	"logging.level",
	"logging.format",
	"logging.source",
	"logging.file",
}

type cli struct {
	cfg      config.AppConfig
	password string
	log      *slog.Logger
	session  *crash.Session
	out      io.Writer
}

func (c *cli) stdout() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}

func (c *cli) validate(batchPath string) error {
	b, err := domain.LoadBatch(batchPath)
	if err != nil {
		return err
	}
	w := c.stdout()
	fmt.Fprintln(w, "Batch:", b.Name)
	fmt.Fprintln(w, "Orientation:", b.Orientation)
	fmt.Fprintln(w, "Recipients:", len(b.Recipients))
	if err := b.Check(); err != nil {
		return err
	}
	fmt.Fprintln(w, "OK")
	return nil
}

// openEditor builds an editor over the batch and, when layoutPath is set,
// loads that layout. The crash session follows the editor from here on.
func (c *cli) openEditor(b domain.Batch, layoutPath string) (*editor.Editor, error) {
	ed, err := editor.New(b, editorOptions(c.cfg, c.log))
	if err != nil {
		return nil, err
	}
	if layoutPath != "" {
		doc, err := storage.OpenLayout(layoutPath)
		if err != nil {
			return nil, err
		}
		if err := ed.LoadDocument(doc); err != nil {
			return nil, err
		}
		c.session.LayoutPath = absPath(layoutPath)
	}
	c.session.Snapshot = ed.Document
	return ed, nil
}

func (c *cli) newLayout(ctx context.Context, path, name string) error {
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	b := domain.Batch{Name: name, Orientation: domain.ParseOrientation(c.cfg.Compiler.Orientation)}
	ed, err := c.openEditor(b, "")
	if err != nil {
		return err
	}
	defer ed.Close()
	c.session.LayoutPath = absPath(path)
	if _, err := ed.AddCourseName(ctx); err != nil {
		return err
	}
	if _, err := ed.AddSignature(ctx); err != nil {
		return err
	}
	if _, err := ed.AddQR(); err != nil {
		return err
	}
	if err := storage.SaveLayout(path, ed.Document()); err != nil {
		return err
	}
	c.log.Info("layout created", slog.String("path", absPath(path)), slog.Int("elements", len(ed.Elements())))
	fmt.Fprintln(c.stdout(), "Created layout at", absPath(path))
	return nil
}

func (c *cli) preview(layoutPath, out string) error {
	doc, err := storage.OpenLayout(layoutPath)
	if err != nil {
		return err
	}
	html, err := compiler.New(compilerOptions(c.cfg)).Preview(doc.Background, doc.Elements)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = io.WriteString(c.stdout(), html+"\n")
		return err
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	fmt.Fprintln(c.stdout(), "Preview written to", absPath(out))
	return nil
}

func (c *cli) proof(layoutPath, out string) error {
	doc, err := storage.OpenLayout(layoutPath)
	if err != nil {
		return err
	}
	if err := export.WriteProofPNG(out, doc.Elements, canvasSize(c.cfg)); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout(), "Proof written to", absPath(out))
	return nil
}

func (c *cli) compile(batchPath, layoutPath, out string) error {
	b, err := domain.LoadBatch(batchPath)
	if err != nil {
		return err
	}
	ed, err := c.openEditor(b, layoutPath)
	if err != nil {
		return err
	}
	defer ed.Close()
	rep := ed.CompileAll()
	if len(rep.Failed) > 0 {
		c.log.Warn("some recipients were not compiled", slog.Int("failed", len(rep.Failed)), slog.Any("err", rep.Err()))
	}
	compiled := ed.Batch()
	bundle := export.Bundle{
		Name:       compiled.Name,
		Recipients: compiled.Recipients,
		Proof:      true,
		Layout:     ed.Elements(),
		Canvas:     canvasSize(c.cfg),
	}
	var res export.Result
	if strings.EqualFold(filepath.Ext(out), ".zip") {
		out, res, err = export.WriteZip(out, bundle)
	} else {
		res, err = export.WriteDir(out, bundle)
	}
	if err != nil {
		return err
	}
	w := c.stdout()
	fmt.Fprintf(w, "Compiled %d of %d recipients into %s\n", rep.Compiled, len(compiled.Recipients), absPath(out))
	for _, id := range res.Skipped {
		fmt.Fprintln(w, "  skipped:", id)
	}
	return nil
}

func (c *cli) submit(ctx context.Context, batchPath, layoutPath, out string) error {
	b, err := domain.LoadBatch(batchPath)
	if err != nil {
		return err
	}
	ed, err := c.openEditor(b, layoutPath)
	if err != nil {
		return err
	}
	defer ed.Close()
	write := editor.SubmitFunc(func(_ context.Context, sb domain.SubmissionBatch) error {
		data, err := json.MarshalIndent(sb, "", "  ")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		return os.WriteFile(out, append(data, '\n'), 0o644)
	})
	if err := ed.Save(ctx, write); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout(), "Submission written to", absPath(out))
	return nil
}

func (c *cli) templates(ctx context.Context, args []string) error {
	db, err := openStore(ctx, c.cfg, c.password)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			c.log.Warn("close storage failed", slog.Any("err", cerr))
		}
	}()
	w := c.stdout()
	switch args[0] {
	case "list":
		infos, err := db.ListTemplates(ctx)
		if err != nil {
			return err
		}
		for _, t := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Orientation, t.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	case "save":
		if len(args) < 3 {
			return fmt.Errorf("%w: templates save requires <name> and <layout.json>", errUsage)
		}
		doc, err := storage.OpenLayout(args[2])
		if err != nil {
			return err
		}
		t, err := db.SaveTemplate(ctx, args[1], doc)
		if err != nil {
			return err
		}
		if err := db.SaveDocumentSnapshot(ctx, t.ID, doc); err != nil {
			return err
		}
		if n, err := db.PruneSnapshots(ctx, t.ID, c.cfg.Storage.SnapshotKeep); err != nil {
			c.log.Warn("prune snapshots failed", slog.Any("err", err))
		} else if n > 0 {
			c.log.Debug("snapshots pruned", slog.Int64("removed", n))
		}
		fmt.Fprintln(w, "Saved template", t.Name)
		return nil
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("%w: templates show requires <name>", errUsage)
		}
		t, err := db.GetTemplate(ctx, args[1])
		if err != nil {
			return err
		}
		if len(args) > 2 {
			if err := storage.SaveLayout(args[2], t.Document); err != nil {
				return err
			}
			fmt.Fprintln(w, "Restored template to", absPath(args[2]))
			return nil
		}
		data, err := t.Document.Encode()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "history":
		if len(args) < 2 {
			return fmt.Errorf("%w: templates history requires <name>", errUsage)
		}
		t, err := db.GetTemplate(ctx, args[1])
		if err != nil {
			return err
		}
		snaps, err := db.ListSnapshots(ctx, t.ID, 0)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%d bytes\n", s.TS.Local().Format("2006-01-02 15:04:05"), len(s.Data))
		}
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("%w: templates delete requires <name>", errUsage)
		}
		if err := db.DeleteTemplate(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(w, "Deleted template", args[1])
		return nil
	default:
		return fmt.Errorf("%w: unknown templates subcommand %q", errUsage, args[0])
	}
}

func (c *cli) showConfig() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	w := c.stdout()
	fmt.Fprintln(w, "Config file:", path)
	if dir, err := config.StorageDir(); err == nil {
		fmt.Fprintln(w, "Storage dir:", dir)
	}
	for _, key := range configKeys {
		if env, ok := config.EnvOverrideFor(key); ok {
			fmt.Fprintf(w, "  %s overridden by %s\n", key, env)
		}
	}
	if c.password != "" {
		fmt.Fprintln(w, "Storage password: set")
	}
	return nil
}

func (c *cli) setPassword(r io.Reader) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	if err := config.SetStoragePassword(strings.TrimRight(line, "\r\n")); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout(), "Storage password updated")
	return nil
}
