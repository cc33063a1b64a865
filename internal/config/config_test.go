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
	"os"
	"path/filepath"
	"testing"
)

type memKeyring map[string]string

func (m memKeyring) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memKeyring) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memKeyring) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points the config path into a temp dir and stubs the keyring.
func isolate(t *testing.T) (string, memKeyring) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	old := os.Getenv(EnvConfigPath)
	_ = os.Setenv(EnvConfigPath, path)
	kr := memKeyring{}
	prev := tokenStore
	tokenStore = kr
	t.Cleanup(func() {
		_ = os.Setenv(EnvConfigPath, old)
		tokenStore = prev
	})
	return path, kr
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, pw, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if pw != "" {
		t.Fatalf("expected no password, got %q", pw)
	}
	d := Defaults()
	if cfg.Editor.GridSize != d.Editor.GridSize || !cfg.Editor.Snapping || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestFileKeepsUnsetDefaults(t *testing.T) {
	path, _ := isolate(t)
	data := []byte("logging:\n  level: DEBUG\ncompiler:\n  qr_fallback: None\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Compiler.QRFallback != "none" {
		t.Fatalf("file values not applied: %#v", cfg)
	}
	if !cfg.Editor.Snapping || cfg.Editor.HistoryDepth != 200 {
		t.Fatalf("defaults lost for unset section: %#v", cfg.Editor)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	path, _ := isolate(t)
	if err := os.WriteFile(path, []byte("editor: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveRoundTripAndPassword(t *testing.T) {
	_, kr := isolate(t)
	cfg := Defaults()
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DSN = "postgres://cert@localhost/cert"
	cfg.Editor.Fonts = []FontFile{{Family: "Arial", Path: "/fonts/arial.ttf"}}
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if kr[keyringService+"/"+keyringStoragePassword] != "s3cret" {
		t.Fatalf("password not stored in keyring")
	}
	got, pw, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pw != "s3cret" || got.Storage.Driver != "postgres" || got.Storage.DSN != cfg.Storage.DSN {
		t.Fatalf("round trip mismatch: %#v pw=%q", got.Storage, pw)
	}
	if len(got.Editor.Fonts) != 1 || got.Editor.Fonts[0].Path != "/fonts/arial.ttf" {
		t.Fatalf("fonts not persisted: %#v", got.Editor.Fonts)
	}
	if err := SetStoragePassword(""); err != nil {
		t.Fatalf("clear password: %v", err)
	}
	if pw, _ := StoragePassword(); pw != "" {
		t.Fatalf("password not cleared")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	setEnv(t, EnvGridSize, "5")
	setEnv(t, EnvSnapping, "off")
	setEnv(t, EnvStorageDriver, "POSTGRES")
	setEnv(t, EnvQRImage, "/static/qr.svg")
	setEnv(t, EnvLogLevel, "error")
	setEnv(t, EnvLogSource, "1")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.GridSize != 5 || cfg.Editor.Snapping {
		t.Fatalf("editor overrides not applied: %#v", cfg.Editor)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Compiler.QRImagePath != "/static/qr.svg" {
		t.Fatalf("storage/compiler overrides not applied: %#v %#v", cfg.Storage, cfg.Compiler)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("logging overrides not applied: %#v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("editor.grid_size"); !ok || env != EnvGridSize {
		t.Fatalf("EnvOverrideFor grid_size = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("storage.dsn"); ok {
		t.Fatalf("dsn is not overridden")
	}
	if _, ok := EnvOverrideFor("unknown.key"); ok {
		t.Fatalf("unknown keys are never overridden")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = " Debug "
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/cert.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/cert.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}
