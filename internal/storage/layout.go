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
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"certlayout/internal/domain"
	"certlayout/internal/element"
)

const (
	// DocumentVersion is written into every saved layout.
	DocumentVersion = 1
	BackupsDirName  = "backups"
)

// ErrInvalidLayout is returned when a layout document does not match the schema.
var ErrInvalidLayout = errors.New("storage: invalid layout")

//go:embed schema/layout.schema.json
var layoutSchema []byte

var layoutSchemaLoader = gojsonschema.NewBytesLoader(layoutSchema)

// Document is the persisted form of an editor layout: the shared
// background, page orientation, element list and the last preview.
type Document struct {
	Version     int                `json:"version"`
	Name        string             `json:"name,omitempty"`
	Background  string             `json:"background,omitempty"`
	Orientation domain.Orientation `json:"orientation,omitempty"`
	Elements    element.List       `json:"elements"`
	PreviewHTML string             `json:"html,omitempty"`
	SavedAt     time.Time          `json:"savedAt,omitempty"`
}

// Encode returns the indented JSON form of doc, stamping the version.
func (doc Document) Encode() ([]byte, error) {
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	if doc.Elements == nil {
		doc.Elements = element.List{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeDocument validates data against the layout schema and decodes it.
func DecodeDocument(data []byte) (Document, error) {
	res, err := gojsonschema.Validate(layoutSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidLayout, strings.Join(msgs, "; "))
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := doc.Elements.Validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if doc.Orientation == "" {
		doc.Orientation = domain.Horizontal
	}
	return doc, nil
}

// OpenLayout loads a layout file. If it cannot be read or parsed, the
// latest backup next to it is tried.
func OpenLayout(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		doc, berr := openFromLatestBackup(path)
		if berr != nil {
			return Document{}, fmt.Errorf("open layout: %w; backup attempt: %v", err, berr)
		}
		return doc, nil
	}
	doc, derr := DecodeDocument(b)
	if derr != nil {
		doc, berr := openFromLatestBackup(path)
		if berr != nil {
			return Document{}, fmt.Errorf("parse layout: %w; backup attempt: %v", derr, berr)
		}
		return doc, nil
	}
	return doc, nil
}

// SaveLayout writes doc to path with transactional semantics and a
// timestamped backup of the previous file (if present).
func SaveLayout(path string, doc Document) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("layout path is required")
	}
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now().UTC()
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create layout dir: %w", err)
	}
	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current file exists, copy it to a timestamped backup before replacing
	base := filepath.Base(path)
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", base, stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current layout: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp layout: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace layout: %w", rerr)
	}
	return nil
}

// Backups lists the backup files of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// AutosaveCrashSnapshot writes doc into the backups directory of path as
// <base>.crash-<stamp>.json, leaving path and its regular backups untouched.
func AutosaveCrashSnapshot(path string, doc Document) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("layout path is required")
	}
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now().UTC()
	}
	data, err := doc.Encode()
	if err != nil {
		return "", err
	}
	stamp := time.Now().Format("20060102-150405.000")
	out := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(path), stamp))
	if err := writeFileSync(out, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return out, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

func openFromLatestBackup(path string) (Document, error) {
	candidates, err := Backups(path)
	if err != nil {
		return Document{}, err
	}
	if len(candidates) == 0 {
		return Document{}, errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return Document{}, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := DecodeDocument(b)
	if err != nil {
		return Document{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return doc, nil
}
