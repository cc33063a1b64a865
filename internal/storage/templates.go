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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"certlayout/internal/domain"
)

// tsLayout is fixed width so timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// Template is a saved reusable layout.
type Template struct {
	ID        string
	Name      string
	Document  Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateInfo is a template without its document.
type TemplateInfo struct {
	ID          string
	Name        string
	Orientation domain.Orientation
	UpdatedAt   time.Time
}

// language=SQL
const selectTemplateIDSQL = `SELECT id, created_at FROM templates WHERE name = ?`

// language=SQL
const insertTemplateSQL = `INSERT INTO templates(id, name, orientation, background, layout, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

// language=SQL
const updateTemplateSQL = `UPDATE templates SET orientation = ?, background = ?, layout = ?, updated_at = ? WHERE id = ?`

// language=SQL
const selectTemplateSQL = `SELECT id, name, layout, created_at, updated_at FROM templates WHERE name = ?`

// language=SQL
const listTemplatesSQL = `SELECT id, name, orientation, updated_at FROM templates ORDER BY updated_at DESC, name`

// language=SQL
const deleteTemplateSQL = `DELETE FROM templates WHERE name = ?`

// SaveTemplate stores doc under name, replacing an existing template of the same name.
func (s *DB) SaveTemplate(ctx context.Context, name string, doc Document) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, errors.New("template name is required")
	}
	doc.Name = name
	now := time.Now().UTC()
	if doc.SavedAt.IsZero() {
		doc.SavedAt = now
	}
	data, err := doc.Encode()
	if err != nil {
		return Template{}, err
	}
	if doc.Orientation == "" {
		doc.Orientation = domain.Horizontal
	}

	var id, created string
	err = s.queryRow(ctx, selectTemplateIDSQL, name).Scan(&id, &created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, created = uuid.NewString(), formatTS(now)
		if _, err := s.exec(ctx, insertTemplateSQL, id, name, string(doc.Orientation), doc.Background, string(data), created, formatTS(now)); err != nil {
			return Template{}, fmt.Errorf("insert template: %w", err)
		}
	case err != nil:
		return Template{}, fmt.Errorf("lookup template: %w", err)
	default:
		if _, err := s.exec(ctx, updateTemplateSQL, string(doc.Orientation), doc.Background, string(data), formatTS(now), id); err != nil {
			return Template{}, fmt.Errorf("update template: %w", err)
		}
	}
	s.log.Debug("template saved", slog.String("name", name), slog.String("id", id), slog.Int("elements", len(doc.Elements)))
	return Template{ID: id, Name: name, Document: doc, CreatedAt: parseTS(created), UpdatedAt: now}, nil
}

// GetTemplate loads a template by name.
func (s *DB) GetTemplate(ctx context.Context, name string) (Template, error) {
	var (
		t                       Template
		layout, created, update string
	)
	err := s.queryRow(ctx, selectTemplateSQL, strings.TrimSpace(name)).Scan(&t.ID, &t.Name, &layout, &created, &update)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Template{}, fmt.Errorf("select template: %w", err)
	}
	doc, err := DecodeDocument([]byte(layout))
	if err != nil {
		return Template{}, fmt.Errorf("template %q: %w", name, err)
	}
	t.Document = doc
	t.CreatedAt, t.UpdatedAt = parseTS(created), parseTS(update)
	return t, nil
}

// ListTemplates returns all templates, most recently updated first.
func (s *DB) ListTemplates(ctx context.Context) ([]TemplateInfo, error) {
	rows, err := s.query(ctx, listTemplatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []TemplateInfo
	for rows.Next() {
		var (
			ti       TemplateInfo
			orient   string
			updateTS string
		)
		if err := rows.Scan(&ti.ID, &ti.Name, &orient, &updateTS); err != nil {
			return nil, err
		}
		ti.Orientation = domain.ParseOrientation(orient)
		ti.UpdatedAt = parseTS(updateTS)
		out = append(out, ti)
	}
	return out, rows.Err()
}

// DeleteTemplate removes a template by name.
func (s *DB) DeleteTemplate(ctx context.Context, name string) error {
	res, err := s.exec(ctx, deleteTemplateSQL, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}
