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
	"errors"
	"fmt"
	"time"
)

// language=SQL
const insertSnapshotSQL = `INSERT INTO snapshots(layout_id, ts, data) VALUES (?, ?, ?)`

// language=SQL
const selectLatestSnapshotSQL = `SELECT ts, data FROM snapshots WHERE layout_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
const listSnapshotsSQL = `SELECT ts, data FROM snapshots WHERE layout_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE layout_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE layout_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Snapshot is one autosaved layout state.
type Snapshot struct {
	TS   time.Time
	Data []byte
}

// SaveSnapshot persists an autosave blob for a layout.
func (s *DB) SaveSnapshot(ctx context.Context, layoutID string, data []byte, ts time.Time) error {
	if layoutID == "" {
		return errors.New("layout id is required")
	}
	if _, err := s.exec(ctx, insertSnapshotSQL, layoutID, formatTS(ts), data); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// SaveDocumentSnapshot encodes doc and stores it as a snapshot.
func (s *DB) SaveDocumentSnapshot(ctx context.Context, layoutID string, doc Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	return s.SaveSnapshot(ctx, layoutID, data, time.Now())
}

// LatestSnapshot returns the newest snapshot of a layout.
func (s *DB) LatestSnapshot(ctx context.Context, layoutID string) (Snapshot, error) {
	var (
		tsStr string
		blob  []byte
	)
	err := s.queryRow(ctx, selectLatestSnapshotSQL, layoutID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot of %q: %w", layoutID, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{TS: parseTS(tsStr), Data: blob}, nil
}

// ListSnapshots returns up to limit most recent snapshots, newest first.
func (s *DB) ListSnapshots(ctx context.Context, layoutID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, listSnapshotsSQL, layoutID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var (
			tsStr string
			blob  []byte
		)
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		out = append(out, Snapshot{TS: parseTS(tsStr), Data: blob})
	}
	return out, rows.Err()
}

// PruneSnapshots keeps at most keepLast snapshots for the layout and deletes older ones.
func (s *DB) PruneSnapshots(ctx context.Context, layoutID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.exec(ctx, pruneOldSnapshotsSQL, layoutID, layoutID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
