/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the batch ("lote") and recipient ("constancia") records
// exchanged with the issuing backend. JSON names follow the backend contract.

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Orientation of the printed certificate page.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// ParseOrientation accepts the long names and the backend shorthand
// ("l" landscape, "p" portrait). Anything else is horizontal.
func ParseOrientation(s string) Orientation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical", "p", "portrait":
		return Vertical
	default:
		return Horizontal
	}
}

// Short returns the backend shorthand: "p" for vertical, "l" otherwise.
func (o Orientation) Short() string {
	if o == Vertical {
		return "p"
	}
	return "l"
}

// PageSizeMM returns the printed page width and height in millimetres.
func (o Orientation) PageSizeMM() (w, h int) {
	if o == Vertical {
		return 216, 279
	}
	return 279, 216
}

func (o *Orientation) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("orientation: %w", err)
	}
	if s == nil {
		*o = Horizontal
		return nil
	}
	*o = ParseOrientation(*s)
	return nil
}

// Recipient is one certificate of a batch. HTML is the output field the
// compiler writes into.
type Recipient struct {
	ID         string `json:"idConstancia,omitempty"`
	Name       string `json:"nombrePersona,omitempty"`
	RFC        string `json:"rfc,omitempty"`
	CURP       string `json:"curp,omitempty"`
	Email      string `json:"email,omitempty"`
	Background string `json:"fondoImagen,omitempty"`
	HTML       string `json:"textoHtml,omitempty"`
	Seal       string `json:"sello,omitempty"`
	Identifier string `json:"identificador"`
}

// TrimmedName returns the recipient's name without surrounding whitespace.
func (r Recipient) TrimmedName() string { return strings.TrimSpace(r.Name) }

// Batch is a set of certificates sharing one background and layout.
type Batch struct {
	Name          string      `json:"nombreLote,omitempty"`
	Orientation   Orientation `json:"orientacion,omitempty"`
	Instructor    string      `json:"instructor,omitempty"`
	Date          string      `json:"fecha,omitempty"`
	Background    string      `json:"fondo,omitempty"`
	BackgroundExt string      `json:"extFondo,omitempty"`
	SignerIDs     []int       `json:"firmadoresIds,omitempty"`
	Recipients    []Recipient `json:"lstConstanciasLote"`
}

// First returns the first recipient, if any.
func (b Batch) First() (Recipient, bool) {
	if len(b.Recipients) == 0 {
		return Recipient{}, false
	}
	return b.Recipients[0], true
}

// Check verifies the fields required before a batch can be submitted.
func (b Batch) Check() error {
	var missing []string
	if strings.TrimSpace(b.Name) == "" {
		missing = append(missing, "nombreLote")
	}
	if strings.TrimSpace(b.Background) == "" {
		missing = append(missing, "fondo")
	}
	if len(b.Recipients) == 0 {
		missing = append(missing, "lstConstanciasLote")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

var dataURLHeader = regexp.MustCompile(`^data:[^;]+;base64,`)

// StripDataURL removes a leading "data:<mime>;base64," header.
func StripDataURL(s string) string { return dataURLHeader.ReplaceAllString(s, "") }

// Submission returns the payload sent to the backend: orientation in
// shorthand, backgrounds without data URL headers, recipient ids and
// backgrounds defaulted from the identifier and the batch background.
// The receiver is not modified.
func (b Batch) Submission() SubmissionBatch {
	out := SubmissionBatch{
		Name:          b.Name,
		Orientation:   b.Orientation.Short(),
		Instructor:    b.Instructor,
		Date:          b.Date,
		Background:    StripDataURL(b.Background),
		BackgroundExt: b.BackgroundExt,
		SignerIDs:     append([]int(nil), b.SignerIDs...),
		Recipients:    make([]Recipient, len(b.Recipients)),
	}
	for i, r := range b.Recipients {
		if r.ID == "" {
			r.ID = r.Identifier
		}
		bg := r.Background
		if bg == "" {
			bg = b.Background
		}
		r.Background = StripDataURL(bg)
		out.Recipients[i] = r
	}
	return out
}

// SubmissionBatch is the wire form produced by Batch.Submission.
type SubmissionBatch struct {
	Name          string      `json:"nombreLote"`
	Orientation   string      `json:"orientacion"`
	Instructor    string      `json:"instructor,omitempty"`
	Date          string      `json:"fecha,omitempty"`
	Background    string      `json:"fondo"`
	BackgroundExt string      `json:"extFondo,omitempty"`
	SignerIDs     []int       `json:"firmadoresIds,omitempty"`
	Recipients    []Recipient `json:"lstConstanciasLote"`
}
