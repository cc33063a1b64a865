/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type EditorConfig struct {
	GridSize     float64    `yaml:"grid_size"`
	Snapping     bool       `yaml:"snapping"`
	Guides       bool       `yaml:"guides"`
	CanvasWidth  int        `yaml:"canvas_width"`
	CanvasHeight int        `yaml:"canvas_height"`
	HistoryDepth int        `yaml:"history_depth"`
	FitAttempts  int        `yaml:"fit_attempts"`
	SampleSeal   string     `yaml:"sample_seal"`
	Fonts        []FontFile `yaml:"fonts"`
}

// FontFile registers a TrueType/OpenType file for text measurement.
type FontFile struct {
	Family string `yaml:"family"`
	Path   string `yaml:"path"`
	Bold   bool   `yaml:"bold"`
	Italic bool   `yaml:"italic"`
}

type CompilerConfig struct {
	QRImagePath string `yaml:"qr_image_path"`
	QRFallback  string `yaml:"qr_fallback"` // "shared" | "none"
	Orientation string `yaml:"orientation"` // default for batches without one
}

type StorageConfig struct {
	Driver       string `yaml:"driver"` // "sqlite" | "postgres"
	Path         string `yaml:"path"`
	DSN          string `yaml:"dsn"`
	SnapshotKeep int    `yaml:"snapshot_keep"`
	// The Postgres password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Editor        EditorConfig   `yaml:"editor"`
	Compiler      CompilerConfig `yaml:"compiler"`
	Storage       StorageConfig  `yaml:"storage"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			GridSize:     8,
			Snapping:     true,
			CanvasWidth:  800,
			CanvasHeight: 600,
			HistoryDepth: 200,
			FitAttempts:  8,
			SampleSeal:   "SELLO-DIGITAL-DE-EJEMPLO",
		},
		Compiler: CompilerConfig{QRImagePath: "/images/qr-code.svg", QRFallback: "shared", Orientation: "horizontal"},
		Storage:  StorageConfig{Driver: "sqlite", SnapshotKeep: 50},
		Logging:  LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "CERT_CONFIG"
	EnvGridSize      = "CERT_GRID_SIZE"
	EnvSnapping      = "CERT_SNAPPING"
	EnvStorageDriver = "CERT_STORAGE_DRIVER"
	EnvStorageDSN    = "CERT_STORAGE_DSN"
	EnvStoragePath   = "CERT_STORAGE_PATH"
	EnvQRImage       = "CERT_QR_IMAGE"
	EnvQRFallback    = "CERT_QR_FALLBACK"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CERT_LOG_LEVEL"
	EnvLogFormat = "CERT_LOG_FORMAT"
	EnvLogSource = "CERT_LOG_SOURCE"
	EnvLogFile   = "CERT_LOG_FILE"
)

// ConfigPath returns the per-user config file path. CERT_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CertLayout")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CertLayout")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "certlayout")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also returns the storage password from the keyring (not kept inside the struct).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file yields the defaults.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// decode over the defaults so booleans absent from the file keep their default
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", err
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", err
	}
	applyEnvOverrides(&cfg)
	pw, _ := tokenStore.Get(keyringService, keyringStoragePassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the storage password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringStoragePassword, password); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor
	if src.Editor.GridSize > 0 {
		dst.Editor.GridSize = src.Editor.GridSize
	}
	dst.Editor.Snapping = src.Editor.Snapping
	dst.Editor.Guides = src.Editor.Guides
	if src.Editor.CanvasWidth > 0 {
		dst.Editor.CanvasWidth = src.Editor.CanvasWidth
	}
	if src.Editor.CanvasHeight > 0 {
		dst.Editor.CanvasHeight = src.Editor.CanvasHeight
	}
	if src.Editor.HistoryDepth > 0 {
		dst.Editor.HistoryDepth = src.Editor.HistoryDepth
	}
	if src.Editor.FitAttempts > 0 {
		dst.Editor.FitAttempts = src.Editor.FitAttempts
	}
	if strings.TrimSpace(src.Editor.SampleSeal) != "" {
		dst.Editor.SampleSeal = strings.TrimSpace(src.Editor.SampleSeal)
	}
	if len(src.Editor.Fonts) > 0 {
		dst.Editor.Fonts = append([]FontFile(nil), src.Editor.Fonts...)
	}
	// compiler
	if strings.TrimSpace(src.Compiler.QRImagePath) != "" {
		dst.Compiler.QRImagePath = strings.TrimSpace(src.Compiler.QRImagePath)
	}
	if strings.TrimSpace(src.Compiler.QRFallback) != "" {
		dst.Compiler.QRFallback = strings.ToLower(strings.TrimSpace(src.Compiler.QRFallback))
	}
	if strings.TrimSpace(src.Compiler.Orientation) != "" {
		dst.Compiler.Orientation = strings.ToLower(strings.TrimSpace(src.Compiler.Orientation))
	}
	// storage
	if strings.TrimSpace(src.Storage.Driver) != "" {
		dst.Storage.Driver = strings.ToLower(strings.TrimSpace(src.Storage.Driver))
	}
	if strings.TrimSpace(src.Storage.Path) != "" {
		dst.Storage.Path = strings.TrimSpace(src.Storage.Path)
	}
	if strings.TrimSpace(src.Storage.DSN) != "" {
		dst.Storage.DSN = strings.TrimSpace(src.Storage.DSN)
	}
	if src.Storage.SnapshotKeep > 0 {
		dst.Storage.SnapshotKeep = src.Storage.SnapshotKeep
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvGridSize)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.Editor.GridSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapping)); v != "" {
		cfg.Editor.Snapping = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvQRImage)); v != "" {
		cfg.Compiler.QRImagePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvQRFallback)); v != "" {
		cfg.Compiler.QRFallback = strings.ToLower(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"editor.grid_size":       EnvGridSize,
	"editor.snapping":        EnvSnapping,
	"storage.driver":         EnvStorageDriver,
	"storage.dsn":            EnvStorageDSN,
	"storage.path":           EnvStoragePath,
	"compiler.qr_image_path": EnvQRImage,
	"compiler.qr_fallback":   EnvQRFallback,
	"logging.level":          EnvLogLevel,
	"logging.format":         EnvLogFormat,
	"logging.source":         EnvLogSource,
	"logging.file":           EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// StorageDir returns the default directory for the local template database.
func StorageDir() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}
