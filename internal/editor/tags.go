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
	"fmt"
	"log/slog"
	"math"

	"certlayout/internal/autofit"
	"certlayout/internal/element"
	"certlayout/internal/geometry"
	"certlayout/internal/persona"
	"certlayout/internal/textlayout"
)

// DefaultTags returns the full tag set for the batch and the visible persona.
func (e *Editor) DefaultTags() []persona.Tag {
	e.mu.Lock()
	b := e.batch
	e.mu.Unlock()
	visible, ok := e.resolver.Visible()
	return persona.BuildDefaultTags(b, visible, ok)
}

// Tags returns the tags not yet placed on the canvas.
func (e *Editor) Tags() []persona.Tag {
	return persona.Pool(e.DefaultTags(), e.store.List())
}

// PlaceTag creates an element for t at the default tag position. Placing a
// tag whose content is already on the canvas does nothing and reports false.
func (e *Editor) PlaceTag(ctx context.Context, t persona.Tag) (element.Element, bool, error) {
	return e.placeTag(ctx, t, nil)
}

// DropTag places the tag encoded in payload at a client position. Drops are
// ignored while the canvas is not laid out.
func (e *Editor) DropTag(ctx context.Context, payload string, client geometry.Pt) (element.Element, bool, error) {
	canvas, ok := e.canvasBounds()
	if !ok {
		e.log.Debug("drop ignored, canvas unknown")
		return element.Element{}, false, nil
	}
	t := persona.ParseDropPayload(payload)
	if t.Label == "" && t.Value == payload {
		e.log.Debug("drop payload taken as plain value", slog.Int("bytes", len(payload)))
	}
	local := client.Sub(canvas.Min())
	at := geometry.Pt{X: math.Max(0, local.X), Y: math.Max(0, local.Y)}
	return e.placeTag(ctx, t, &at)
}

func (e *Editor) placeTag(ctx context.Context, t persona.Tag, at *geometry.Pt) (element.Element, bool, error) {
	content := t.Content()
	if content == "" {
		return element.Element{}, false, nil
	}
	if persona.IsPlaced(t, e.store.List()) {
		e.log.Debug("tag already placed", slog.String("content", content))
		return element.Element{}, false, nil
	}
	if !t.IsQR() {
		el, err := e.addText(ctx, textlayout.PresetTag, content, at)
		return el, err == nil, err
	}

	p, _ := textlayout.GetPreset(textlayout.PresetQRTag)
	el := fromPreset(p, "")
	el.Kind = element.KindQR
	el.QRText = e.opts.SampleSeal
	if at != nil {
		el.X, el.Y = at.X, at.Y
	}
	if canvas, ok := e.canvasBounds(); ok {
		el.Width, el.Height = autofit.ClampQR(p.W, p.H, canvas.Size())
	}
	el = e.store.Add(el)
	return el, true, e.commit("place qr tag")
}

// Long reports whether the longest name is the visible persona.
func (e *Editor) Long() bool { return e.resolver.Long() }

// VisibleName is the name shown on the canvas while editing.
func (e *Editor) VisibleName() string { return e.resolver.VisibleName() }

// ToggleLongName switches the visible persona and rewrites the placed text
// that showed the previous name. Changed elements are re-fitted. It returns
// the ids that changed.
func (e *Editor) ToggleLongName(ctx context.Context, long bool) ([]string, error) {
	ch := e.resolver.SetLong(long)
	if !ch.Changed() {
		return nil, nil
	}
	l, changed := persona.ReplaceName(e.store.List(), ch.Before, ch.After)
	if len(changed) == 0 {
		return nil, nil
	}
	e.store.ReplaceAll(l)
	e.log.Debug("persona switched", slog.String("from", ch.Before), slog.String("to", ch.After), slog.Int("elements", len(changed)))
	for _, id := range changed {
		if _, _, err := e.sizer.Fit(ctx, id); err != nil {
			return changed, fmt.Errorf("fit %s: %w", id, err)
		}
	}
	return changed, e.commit("toggle persona")
}
