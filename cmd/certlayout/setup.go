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
	"context"
	"log/slog"
	"strings"

	"certlayout/internal/autofit"
	"certlayout/internal/compiler"
	"certlayout/internal/config"
	"certlayout/internal/editor"
	"certlayout/internal/geometry"
	applog "certlayout/internal/log"
	"certlayout/internal/storage"
	"certlayout/internal/textlayout"
)

// pageCanvas is the fixed canvas used when no host lays out the editor.
type pageCanvas struct{ w, h float64 }

func (c pageCanvas) Bounds() (geometry.Rect, bool) {
	if c.w <= 0 || c.h <= 0 {
		return geometry.Rect{}, false
	}
	return geometry.R(0, 0, c.w, c.h), true
}

func canvasOf(cfg config.AppConfig) pageCanvas {
	return pageCanvas{w: float64(cfg.Editor.CanvasWidth), h: float64(cfg.Editor.CanvasHeight)}
}

func canvasSize(cfg config.AppConfig) geometry.Size {
	return geometry.Size{W: float64(cfg.Editor.CanvasWidth), H: float64(cfg.Editor.CanvasHeight)}
}

func loggingOptions(cfg config.AppConfig) applog.Options {
	return applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
}

func compilerOptions(cfg config.AppConfig) compiler.Options {
	return compiler.Options{
		QRImage:       cfg.Compiler.QRImagePath,
		QRFallback:    compiler.ParseFallback(cfg.Compiler.QRFallback),
		PreviewWidth:  cfg.Editor.CanvasWidth,
		PreviewHeight: cfg.Editor.CanvasHeight,
		Logger:        applog.WithComponent("compiler"),
	}
}

// textProvider measures with the configured TTF fonts, falling back to the
// built-in face for families that were not loaded.
func textProvider(cfg config.AppConfig, l *slog.Logger) textlayout.Provider {
	if len(cfg.Editor.Fonts) == 0 {
		return textlayout.BasicProvider{}
	}
	lib := textlayout.NewFontLibrary()
	for _, f := range cfg.Editor.Fonts {
		if err := lib.LoadTTF(f.Family, f.Bold, f.Italic, f.Path); err != nil {
			l.Warn("font not loaded", slog.String("family", f.Family), slog.String("path", f.Path), slog.Any("err", err))
		}
	}
	if lib.Len() == 0 {
		return textlayout.BasicProvider{}
	}
	return textlayout.OTProvider{Lib: lib, Fallback: textlayout.BasicProvider{}}
}

func editorOptions(cfg config.AppConfig, l *slog.Logger) editor.Options {
	opts := editor.Options{
		Grid:         geometry.Grid{Size: float64(cfg.Editor.GridSize), Enabled: cfg.Editor.Snapping},
		HistoryDepth: cfg.Editor.HistoryDepth,
		Compiler:     compilerOptions(cfg),
		Canvas:       canvasOf(cfg),
		Renderer:     autofit.TextRenderer{Provider: textProvider(cfg, l)},
		Frames:       autofit.Immediate{},
		FitAttempts:  cfg.Editor.FitAttempts,
		SampleSeal:   cfg.Editor.SampleSeal,
		Logger:       applog.WithComponent("editor"),
	}
	if cfg.Editor.Guides {
		opts.Guides = &geometry.GuideOptions{Edges: true, Centers: true}
	}
	return opts
}

// openStore opens the template database. SQLite lives in the config
// directory unless storage.path says otherwise.
func openStore(ctx context.Context, cfg config.AppConfig, password string) (*storage.DB, error) {
	driver := storage.ParseDriver(cfg.Storage.Driver)
	path := strings.TrimSpace(cfg.Storage.Path)
	if driver == storage.DriverSQLite && path == "" {
		dir, err := config.StorageDir()
		if err != nil {
			return nil, err
		}
		path = dir
	}
	return storage.Open(ctx, storage.Options{
		Driver:   driver,
		Path:     path,
		DSN:      cfg.Storage.DSN,
		Password: password,
	})
}
