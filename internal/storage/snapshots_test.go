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
	"errors"
	"testing"
	"time"
)

func TestSnapshotsCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if _, err := db.LatestSnapshot(ctx, "layout-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.SaveSnapshot(ctx, "layout-1", []byte("hello"), base); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap, err := db.LatestSnapshot(ctx, "layout-1")
	if err != nil || string(snap.Data) != "hello" || !snap.TS.Equal(base) {
		t.Fatalf("LatestSnapshot got %q at %v err %v", string(snap.Data), snap.TS, err)
	}
	// Add more snapshots
	for i := 0; i < 5; i++ {
		b := []byte{byte('a' + i)}
		if err := db.SaveSnapshot(ctx, "layout-1", b, base.Add(time.Duration(i+1)*time.Millisecond)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	if err := db.SaveSnapshot(ctx, "layout-2", []byte("other"), base); err != nil {
		t.Fatalf("SaveSnapshot other: %v", err)
	}
	list, err := db.ListSnapshots(ctx, "layout-1", 10)
	if err != nil || len(list) != 6 {
		t.Fatalf("ListSnapshots got %d err %v", len(list), err)
	}
	if string(list[0].Data) != "e" {
		t.Fatalf("newest first, got %q", list[0].Data)
	}
	// Prune keep last 3
	n, err := db.PruneSnapshots(ctx, "layout-1", 3)
	if err != nil {
		t.Fatalf("PruneSnapshots: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deletions, got %d", n)
	}
	list, err = db.ListSnapshots(ctx, "layout-1", 10)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListSnapshots after prune got %d err %v", len(list), err)
	}
	if other, _ := db.ListSnapshots(ctx, "layout-2", 10); len(other) != 1 {
		t.Fatalf("prune must not touch other layouts")
	}
}

func TestSaveDocumentSnapshot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.SaveDocumentSnapshot(ctx, "tpl", sampleDoc()); err != nil {
		t.Fatalf("SaveDocumentSnapshot: %v", err)
	}
	snap, err := db.LatestSnapshot(ctx, "tpl")
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	doc, err := DecodeDocument(snap.Data)
	if err != nil || len(doc.Elements) != 2 {
		t.Fatalf("snapshot does not decode: %+v %v", doc, err)
	}
}
