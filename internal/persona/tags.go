/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package persona

import (
	"encoding/json"
	"strings"

	"certlayout/internal/domain"
	"certlayout/internal/element"
)

// Tag labels of the default pool.
const (
	LabelTitle      = "Título"
	LabelName       = "Nombre"
	LabelCURP       = "CURP"
	LabelRFC        = "RFC"
	LabelQR         = "QR"
	LabelInstructor = "Instructor"
	LabelDate       = "Fecha"
)

// QRMarker is the value of the QR tag and the display text of QR elements.
const QRMarker = "[QR]"

// Tag is a data field the user can place on the canvas.
type Tag struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// Content is the text an element created from t starts with: the value, or the label when the value is empty.
func (t Tag) Content() string {
	if t.Value != "" {
		return t.Value
	}
	return t.Label
}

// IsQR reports whether placing t creates a QR element.
func (t Tag) IsQR() bool { return t.Content() == QRMarker }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// BuildDefaultTags returns the tag set for b with the given visible persona.
// Values fall back to the first recipient, then to a human placeholder.
func BuildDefaultTags(b domain.Batch, visible domain.Recipient, hasVisible bool) []Tag {
	first, _ := b.First()
	var name, curp, rfc string
	if hasVisible {
		name = firstNonEmpty(visible.TrimmedName(), "Nombre")
		curp = firstNonEmpty(visible.CURP, first.CURP)
		rfc = firstNonEmpty(visible.RFC, first.RFC)
	} else {
		name = firstNonEmpty(first.Name, "Nombre")
		curp = first.CURP
		rfc = first.RFC
	}
	return []Tag{
		{Label: LabelTitle, Value: firstNonEmpty(b.Name, "Título del certificado")},
		{Label: LabelName, Value: name},
		{Label: LabelCURP, Value: curp},
		{Label: LabelRFC, Value: rfc},
		{Label: LabelQR, Value: QRMarker},
		{Label: LabelInstructor, Value: firstNonEmpty(b.Instructor, "Nombre del instructor")},
		{Label: LabelDate, Value: firstNonEmpty(b.Date, "dd/mm/aaaa")},
	}
}

// Pool returns the defaults not yet placed, in default order. Each placed
// element consumes at most one tag with equal content, so the pool plus the
// placed elements always add back up to the defaults.
func Pool(defaults []Tag, placed element.List) []Tag {
	used := make(map[string]int, len(placed))
	for _, e := range placed {
		used[e.Content]++
	}
	out := make([]Tag, 0, len(defaults))
	for _, t := range defaults {
		c := t.Content()
		if used[c] > 0 {
			used[c]--
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsPlaced reports whether an element with t's content is already on the canvas.
func IsPlaced(t Tag, placed element.List) bool {
	c := t.Content()
	for _, e := range placed {
		if e.Content == c {
			return true
		}
	}
	return false
}

// ParseDropPayload decodes a drag-and-drop payload. JSON objects with a label
// or value become that tag; anything else is taken as a plain value.
func ParseDropPayload(payload string) Tag {
	var t Tag
	if err := json.Unmarshal([]byte(payload), &t); err == nil && (t.Value != "" || t.Label != "") {
		return t
	}
	return Tag{Value: payload}
}
