/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for the layout editor.
// It wraps the standard slog with a small configuration surface and a custom
// handler that enriches records with fields carried on the context (batch and
// layout being worked on) next to the usual component/op attributes.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"certlayout/internal/version"

	// lumberjack is optional; used only if file logging is enabled
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization.
// Values can be provided directly or via environment variables:
//   - CERT_LOG_LEVEL=debug|info|warn|error
//   - CERT_LOG_FORMAT=console|json
//   - CERT_LOG_FILE=<path> (enables file logging with rotation)
//   - CERT_LOG_SOURCE=true|false (include source)
//
// If File is set, a rotating file writer will be used.
// Defaults: INFO level, console format, no source.
// Console output goes to Output, or stderr when Output is nil.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string // optional path for file logging (rotated)
	Output    io.Writer
}

const appName = "certlayout"

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   *slog.Logger
	// level is shared by every handler so SetLevel takes effect without re-init.
	level = new(slog.LevelVar)
)

// L returns the default application logger, initializing from env if needed.
func L() *slog.Logger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}
	// lazy init from env
	Init(FromEnv())
	defaultLoggerMu.RLock()
	l = defaultLogger
	defaultLoggerMu.RUnlock()
	return l
}

// Init configures the global logger and sets slog.Default as well.
func Init(opts Options) {
	level.Set(parseLevel(opts.Level))
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	var sinks []slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		sinks = append(sinks, slog.NewJSONHandler(out, hopts))
	default:
		sinks = append(sinks, newConsoleHandler(out, hopts))
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		rot := &lj.Logger{Filename: file, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		sinks = append(sinks, slog.NewJSONHandler(rot, hopts))
	}

	logger := slog.New(withContextAttrs(fanout(sinks...)))
	logger = logger.With(
		slog.String("app", appName),
		slog.String("ver", version.Version),
		slog.Time("ts_init", time.Now()),
	)

	defaultLoggerMu.Lock()
	defaultLogger = logger
	defaultLoggerMu.Unlock()
	slog.SetDefault(logger)
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("CERT_LOG_LEVEL", "info"),
		Format:    getenv("CERT_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("CERT_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("CERT_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// SetLevel changes the minimum level of the installed handlers.
func SetLevel(s string) { level.Set(parseLevel(s)) }

type ctxKey int

const (
	batchKey ctxKey = iota
	layoutKey
)

// WithBatch stores the batch name on ctx; records logged with that ctx carry a "batch" attribute.
func WithBatch(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, batchKey, name)
}

// WithLayout stores the layout (template) identifier on ctx.
func WithLayout(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, layoutKey, id)
}
