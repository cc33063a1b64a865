/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrations_UpgradeV1ToV2 ensures that a DB that only has migration 1 gets migration 2 and its index.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	dir := t.TempDir()
	file := SQLitePath(dir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(file))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	v1, err := migrationsFS.ReadFile("migrations/sqlite/001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	stmts := append([]string{
		`CREATE TABLE schema_migrations (version BIGINT PRIMARY KEY, name TEXT NOT NULL, app TEXT NOT NULL, applied_at TEXT NOT NULL)`,
		`INSERT INTO schema_migrations VALUES (1, '001_init.sql', 'test', '2020-01-01T00:00:00Z')`,
	}, splitStatements(string(v1))...)
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	mdb, err := Open(ctx, Options{Driver: DriverSQLite, Path: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mdb.Close()
	v, err := mdb.SchemaVersion(ctx)
	if err != nil || v != 2 {
		t.Fatalf("expected schema 2 after migration, got %d (%v)", v, err)
	}
	var cnt int
	if err := mdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_templates_updated'`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected templates index after migration, got %d", cnt)
	}
	var app string
	if err := mdb.db.QueryRowContext(ctx, `SELECT app FROM schema_migrations WHERE version=1`).Scan(&app); err != nil || app != "test" {
		t.Fatalf("migration 1 must not be re-applied, app=%q err=%v", app, err)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		db, err := Open(ctx, Options{Driver: DriverSQLite, Path: dir})
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		var n int
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil || n != 2 {
			t.Fatalf("open #%d: expected 2 migrations recorded, got %d (%v)", i, n, err)
		}
		_ = db.Close()
	}
}
