/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor owns the state of one layout session: the element store,
// its history, the persona toggle and the derived preview. Hosts drive it
// through plain method calls and the interaction controller's event bus.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/mobile/event/key"

	"certlayout/internal/autofit"
	"certlayout/internal/compiler"
	"certlayout/internal/domain"
	"certlayout/internal/element"
	"certlayout/internal/geometry"
	"certlayout/internal/interact"
	applog "certlayout/internal/log"
	"certlayout/internal/persona"
	"certlayout/internal/textlayout"
	"certlayout/internal/undo"
)

// DefaultSampleSeal is the editor-time QR payload of new QR elements.
const DefaultSampleSeal = "SELLO-DIGITAL-DE-EJEMPLO"

// Options configures an Editor. Zero values pick the package defaults.
type Options struct {
	Grid         geometry.Grid
	Guides       *geometry.GuideOptions
	HistoryDepth int
	Compiler     compiler.Options
	// Canvas reports the laid-out canvas in client coordinates. It may be nil.
	Canvas      interact.Canvas
	Renderer    autofit.Renderer
	Frames      autofit.Frames
	FitAttempts int
	SampleSeal  string
	Logger      *slog.Logger
	// OnOrientation is called after SetOrientation changed the page orientation.
	OnOrientation func(domain.Orientation)
	// OnPreview receives every regenerated preview fragment.
	OnPreview func(html string)
}

// Editor is the layout session. All methods are safe for concurrent use,
// though hosts normally call them from one event loop.
type Editor struct {
	opts     Options
	log      *slog.Logger
	store    *element.Store
	history  *undo.History
	resolver *persona.Resolver
	compiler *compiler.Compiler
	sizer    *autofit.Sizer
	ctrl     *interact.Controller
	bus      *interact.Dispatcher

	mu        sync.Mutex
	batch     domain.Batch
	preview   string
	keyCancel func()

	busy atomic.Bool
}

// New starts a session over b with an empty canvas. The empty layout is the
// first history snapshot, so undoing every edit returns to it.
func New(b domain.Batch, opts Options) (*Editor, error) {
	if opts.SampleSeal == "" {
		opts.SampleSeal = DefaultSampleSeal
	}
	if b.Orientation == "" {
		b.Orientation = domain.Horizontal
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("editor")
	}
	if opts.Compiler.Logger == nil {
		opts.Compiler.Logger = l
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = autofit.TextRenderer{Provider: textlayout.BasicProvider{}}
	}

	e := &Editor{
		opts:     opts,
		log:      l,
		store:    element.NewStore(nil),
		history:  undo.NewHistory(undo.Config{MaxDepth: opts.HistoryDepth}),
		resolver: persona.NewResolver(b.Recipients),
		compiler: compiler.New(opts.Compiler),
		bus:      interact.NewDispatcher(),
		batch:    b,
	}
	e.sizer = &autofit.Sizer{
		Store:       e.store,
		Renderer:    renderer,
		Canvas:      opts.Canvas,
		Frames:      opts.Frames,
		MaxAttempts: opts.FitAttempts,
		Log:         l,
	}
	e.ctrl = interact.New(e.store, opts.Canvas, e.bus, interact.Options{
		Grid:   opts.Grid,
		Guides: opts.Guides,
		Logger: l,
		OnCommit: func(g interact.Gesture, id string) {
			if err := e.commit(string(g)); err != nil {
				e.log.Error("preview after gesture failed", slog.String("id", id), slog.Any("err", err))
			}
		},
	})
	if err := e.commit("open"); err != nil {
		return nil, err
	}
	l.Info("editor ready", slog.String("batch", b.Name), slog.Int("recipients", len(b.Recipients)))
	return e, nil
}

// Controller exposes the gesture state machine.
func (e *Editor) Controller() *interact.Controller { return e.ctrl }

// Dispatcher is the event bus hosts feed pointer and key events into.
func (e *Editor) Dispatcher() *interact.Dispatcher { return e.bus }

// Elements returns the current element list.
func (e *Editor) Elements() element.List { return e.store.List() }

// Subscribe registers fn for every element list change.
func (e *Editor) Subscribe(fn func(element.List)) (cancel func()) { return e.store.Subscribe(fn) }

// Activate starts listening for undo/redo shortcuts on the bus. Calling it
// twice is harmless.
func (e *Editor) Activate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.keyCancel != nil {
		return
	}
	e.keyCancel = e.bus.OnKey(func(ev key.Event) { e.HandleKey(ev) })
}

// Close ends any gesture in flight and removes every listener the session registered.
func (e *Editor) Close() {
	e.ctrl.Close()
	e.mu.Lock()
	cancel := e.keyCancel
	e.keyCancel = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// HandleKey runs the undo or redo shortcut bound to ev, if any.
func (e *Editor) HandleKey(ev key.Event) interact.Action {
	a := interact.ShortcutFor(ev)
	var err error
	switch a {
	case interact.ActionUndo:
		_, err = e.Undo()
	case interact.ActionRedo:
		_, err = e.Redo()
	default:
		return a
	}
	if err != nil {
		e.log.Error("shortcut failed", slog.String("action", a.String()), slog.Any("err", err))
	}
	return a
}

// Select marks id as selected for the edit panel.
func (e *Editor) Select(id string) { e.ctrl.Select(id) }

// Selected returns the selected element id.
func (e *Editor) Selected() string { return e.ctrl.Selected() }

// Click forwards a click on id; it reports whether the edit panel should open.
func (e *Editor) Click(id string) bool { return e.ctrl.Click(id) }

// FontFamilies lists the families offered by the edit panel.
func (e *Editor) FontFamilies() []string {
	return append([]string(nil), textlayout.FontFamilies...)
}

// AddCourseName adds the course title preset and fits it to its text.
func (e *Editor) AddCourseName(ctx context.Context) (element.Element, error) {
	return e.addText(ctx, textlayout.PresetCourse, "", nil)
}

// AddSignature adds the signature line preset and fits it to its text.
func (e *Editor) AddSignature(ctx context.Context) (element.Element, error) {
	return e.addText(ctx, textlayout.PresetSignature, "", nil)
}

// AddQR adds a QR placeholder sized to the canvas. QR elements are not fitted.
func (e *Editor) AddQR() (element.Element, error) {
	p, _ := textlayout.GetPreset(textlayout.PresetQR)
	el := fromPreset(p, "")
	el.Kind = element.KindQR
	el.QRText = e.opts.SampleSeal
	if canvas, ok := e.canvasBounds(); ok {
		el.Width, el.Height = autofit.InitialQRSize(p.W, p.H, canvas.Size())
	}
	el = e.store.Add(el)
	e.log.Debug("qr added", slog.String("id", el.ID), slog.Float64("w", el.Width), slog.Float64("h", el.Height))
	return el, e.commit("add qr")
}

func (e *Editor) addText(ctx context.Context, preset, content string, at *geometry.Pt) (element.Element, error) {
	p, _ := textlayout.GetPreset(preset)
	el := fromPreset(p, content)
	if at != nil {
		el.X, el.Y = at.X, at.Y
	}
	el = e.store.Add(el)
	if _, _, err := e.sizer.Fit(ctx, el.ID); err != nil {
		return el, fmt.Errorf("fit %s: %w", el.ID, err)
	}
	if fitted, ok := e.store.Find(el.ID); ok {
		el = fitted
	}
	return el, e.commit("add " + preset)
}

func fromPreset(p textlayout.Preset, content string) element.Element {
	if content == "" {
		content = p.Content
	}
	return element.Element{
		Kind:       element.KindText,
		Content:    content,
		X:          p.X,
		Y:          p.Y,
		Width:      p.W,
		Height:     p.H,
		FontSize:   p.Font.SizePx,
		FontFamily: p.Font.Family,
		Color:      p.Color,
		Bold:       p.Font.Bold,
		Italic:     p.Font.Italic,
		ScaleX:     1,
		ScaleY:     1,
	}
}

// Remove deletes id. Its tag, if any, returns to the pool.
func (e *Editor) Remove(id string) (bool, error) {
	if _, ok := e.store.RemoveByID(id); !ok {
		return false, nil
	}
	if e.ctrl.Selected() == id {
		e.ctrl.Select("")
	}
	return true, e.commit("remove")
}

// UpdateElement replaces the element with el's id, as the edit panel does on
// save. Out-of-range size, rotation and font size are clamped, not rejected.
func (e *Editor) UpdateElement(el element.Element) (bool, error) {
	if err := el.Validate(); err != nil {
		return false, err
	}
	el = el.Normalize()
	if !e.store.UpdateByID(el.ID, func(cur *element.Element) { *cur = el }) {
		return false, nil
	}
	return true, e.commit("edit")
}

// Undo restores the previous snapshot. It reports false when there is none.
func (e *Editor) Undo() (bool, error) {
	l, ok := e.history.Undo()
	if !ok {
		return false, nil
	}
	e.store.ReplaceAll(l)
	return true, e.refresh()
}

// Redo re-applies the next snapshot. It reports false when there is none.
func (e *Editor) Redo() (bool, error) {
	l, ok := e.history.Redo()
	if !ok {
		return false, nil
	}
	e.store.ReplaceAll(l)
	return true, e.refresh()
}

// CanUndo reports whether Undo would change the layout.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change the layout.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// History returns the snapshot count and the cursor position.
func (e *Editor) History() (length, cursor int) { return e.history.Stats() }

// PreviewHTML returns the last generated preview fragment.
func (e *Editor) PreviewHTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preview
}

// commit regenerates the preview, then records the current list in history.
// The snapshot is recorded even when the preview fails.
func (e *Editor) commit(op string) error {
	err := e.refresh()
	e.history.Push(e.store.List())
	n, cur := e.history.Stats()
	e.log.Debug("history push", slog.String("op", op), slog.Int("len", n), slog.Int("cursor", cur))
	return err
}

// refresh regenerates the preview from the current state.
func (e *Editor) refresh() error {
	e.mu.Lock()
	bg := e.batch.Background
	e.mu.Unlock()
	html, err := e.compiler.Preview(bg, e.store.List())
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	e.mu.Lock()
	e.preview = html
	e.mu.Unlock()
	if e.opts.OnPreview != nil {
		e.opts.OnPreview(html)
	}
	return nil
}

func (e *Editor) canvasBounds() (geometry.Rect, bool) {
	if e.opts.Canvas == nil {
		return geometry.Rect{}, false
	}
	return e.opts.Canvas.Bounds()
}
