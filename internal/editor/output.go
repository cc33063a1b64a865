/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"certlayout/internal/compiler"
	"certlayout/internal/domain"
	applog "certlayout/internal/log"
	"certlayout/internal/storage"
)

// ErrBusy is returned by Save while another save is in flight.
var ErrBusy = errors.New("editor: save in progress")

// Submitter hands a finished batch to the issuing backend.
type Submitter interface {
	Submit(ctx context.Context, b domain.SubmissionBatch) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, b domain.SubmissionBatch) error

func (f SubmitFunc) Submit(ctx context.Context, b domain.SubmissionBatch) error { return f(ctx, b) }

// Busy reports whether a save is in flight. Hosts disable their save control while it is true.
func (e *Editor) Busy() bool { return e.busy.Load() }

// Batch returns a copy of the batch, including compiled recipient HTML.
func (e *Editor) Batch() domain.Batch {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.batch
	b.Recipients = append([]domain.Recipient(nil), e.batch.Recipients...)
	b.SignerIDs = append([]int(nil), e.batch.SignerIDs...)
	return b
}

// SetRecipients replaces the recipient list and recomputes the personas,
// keeping the long/short toggle.
func (e *Editor) SetRecipients(rs []domain.Recipient) {
	e.mu.Lock()
	e.batch.Recipients = append([]domain.Recipient(nil), rs...)
	e.mu.Unlock()
	e.resolver.Refresh(rs)
}

// Orientation returns the page orientation of the batch.
func (e *Editor) Orientation() domain.Orientation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batch.Orientation
}

// SetOrientation changes the page orientation and notifies the host.
func (e *Editor) SetOrientation(o domain.Orientation) {
	if o != domain.Vertical {
		o = domain.Horizontal
	}
	e.mu.Lock()
	changed := e.batch.Orientation != o
	e.batch.Orientation = o
	e.mu.Unlock()
	if changed && e.opts.OnOrientation != nil {
		e.opts.OnOrientation(o)
	}
}

// Background returns the shared background image URL.
func (e *Editor) Background() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batch.Background
}

// SetBackground replaces the shared background and regenerates the preview.
func (e *Editor) SetBackground(bg string) error {
	e.mu.Lock()
	e.batch.Background = bg
	e.mu.Unlock()
	return e.refresh()
}

// Layout returns what the compiler needs to build recipient documents.
func (e *Editor) Layout() compiler.Layout {
	e.mu.Lock()
	bg, o := e.batch.Background, e.batch.Orientation
	e.mu.Unlock()
	visible, _ := e.resolver.Visible()
	return compiler.Layout{
		Background:  bg,
		Orientation: o,
		Elements:    e.store.List(),
		Persona:     visible,
	}
}

// BuildHTMLForRecipient renders the printable document of r.
func (e *Editor) BuildHTMLForRecipient(r domain.Recipient) (string, error) {
	return e.compiler.CompileForRecipient(e.Layout(), r)
}

// CompileAll writes a document into every recipient of the batch. Failed
// recipients keep their previous HTML and are listed in the report.
func (e *Editor) CompileAll() compiler.Report {
	lay := e.Layout()
	e.mu.Lock()
	rs := append([]domain.Recipient(nil), e.batch.Recipients...)
	e.mu.Unlock()
	rep := e.compiler.CompileAll(lay, rs)
	e.mu.Lock()
	if len(e.batch.Recipients) == len(rs) {
		e.batch.Recipients = rs
	}
	e.mu.Unlock()
	return rep
}

// Save refreshes the preview, compiles every recipient and submits the
// batch. Compile failures are logged and do not stop the submission.
func (e *Editor) Save(ctx context.Context, sub Submitter) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.busy.Store(false)
	l := applog.WithOperation(e.log, "save")
	ctx = applog.WithBatch(ctx, e.Batch().Name)
	start := time.Now()

	if err := e.Batch().Check(); err != nil {
		return err
	}
	if err := e.refresh(); err != nil {
		l.WarnContext(ctx, "preview refresh failed", slog.Any("err", err))
	}
	if rep := e.CompileAll(); len(rep.Failed) > 0 {
		l.WarnContext(ctx, "some recipients kept their previous html", slog.Int("failed", len(rep.Failed)), slog.Any("err", rep.Err()))
	}
	if sub == nil {
		return nil
	}
	if err := sub.Submit(ctx, e.Batch().Submission()); err != nil {
		l.ErrorContext(ctx, "submit failed", slog.Any("err", err))
		return fmt.Errorf("submit batch: %w", err)
	}
	l.InfoContext(ctx, "batch submitted", slog.Duration("took", time.Since(start)))
	return nil
}

// Document captures the layout for storage.
func (e *Editor) Document() storage.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return storage.Document{
		Name:        e.batch.Name,
		Background:  e.batch.Background,
		Orientation: e.batch.Orientation,
		Elements:    e.store.List(),
		PreviewHTML: e.preview,
	}
}

// LoadDocument replaces the layout with doc and starts a fresh history.
func (e *Editor) LoadDocument(doc storage.Document) error {
	if err := doc.Elements.Validate(); err != nil {
		return err
	}
	e.ctrl.Close()
	e.mu.Lock()
	if doc.Background != "" {
		e.batch.Background = doc.Background
	}
	if doc.Orientation != "" {
		e.batch.Orientation = doc.Orientation
	}
	e.mu.Unlock()
	e.store.ReplaceAll(doc.Elements.Normalized())
	e.history.Reset()
	return e.commit("load")
}
