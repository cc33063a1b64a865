/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package compiler turns an element list into HTML: a live preview fragment
// for the editor and one standalone print document per recipient.
// All interpolated text goes through html/template escaping.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"strings"

	"certlayout/internal/domain"
	"certlayout/internal/element"
	applog "certlayout/internal/log"
)

// Fallback selects where a recipient without a seal gets its QR payload from.
type Fallback string

const (
	// FallbackShared uses the element's editor-time payload, then its display text.
	FallbackShared Fallback = "shared"
	// FallbackNone leaves the payload empty.
	FallbackNone Fallback = "none"
)

// ParseFallback maps a config value to a Fallback, defaulting to shared.
func ParseFallback(s string) Fallback {
	if strings.EqualFold(strings.TrimSpace(s), string(FallbackNone)) {
		return FallbackNone
	}
	return FallbackShared
}

const (
	DefaultQRImage       = "/images/qr-code.svg"
	DefaultPreviewWidth  = 800
	DefaultPreviewHeight = 600
)

// Options configure a Compiler.
type Options struct {
	QRImage       string
	QRFallback    Fallback
	PreviewWidth  int
	PreviewHeight int
	Logger        *slog.Logger
}

// Layout is everything the compiler needs from the editor: the shared
// background, the elements and the persona that was visible while editing.
type Layout struct {
	Background  string
	Orientation domain.Orientation
	Elements    element.List
	Persona     domain.Recipient
}

// Compiler renders layouts. It holds parsed templates and is safe for concurrent use.
type Compiler struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Compiler {
	if opts.QRImage == "" {
		opts.QRImage = DefaultQRImage
	}
	if opts.QRFallback == "" {
		opts.QRFallback = FallbackShared
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = DefaultPreviewWidth
	}
	if opts.PreviewHeight <= 0 {
		opts.PreviewHeight = DefaultPreviewHeight
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("compiler")
	}
	return &Compiler{opts: opts, log: l}
}

// Options returns the effective options.
func (c *Compiler) Options() Options { return c.opts }

var previewTmpl = template.Must(template.New("preview").Parse(
	`<div style="{{.Style}}">{{range .Elements}}
  <div id="el-{{.ID}}" style="{{.Style}}">{{.Text}}</div>{{end}}
</div>`))

type previewData struct {
	Style    template.CSS
	Elements []previewElement
}

type previewElement struct {
	ID    string
	Style template.CSS
	Text  string
}

// Preview renders the fixed-size editor preview. QR elements show their display text.
func (c *Compiler) Preview(background string, l element.List) (string, error) {
	data := previewData{
		Style: style(
			"position: relative;",
			"width: "+fmt.Sprint(c.opts.PreviewWidth)+"px;",
			"height: "+fmt.Sprint(c.opts.PreviewHeight)+"px;",
			"background-image: url('"+cssURL(background)+"');",
			"background-size: contain;",
			"background-repeat: no-repeat;",
		),
		Elements: make([]previewElement, 0, len(l)),
	}
	for _, e := range l {
		sx, sy := e.Scales()
		data.Elements = append(data.Elements, previewElement{
			ID: e.ID,
			Style: style(
				"position: absolute;",
				"left: "+num(e.X)+"px;",
				"top: "+num(e.Y)+"px;",
				"width: "+num(e.Width)+"px;",
				"height: "+num(e.Height)+"px;",
				"font-family: "+fontFamily(e.Family())+";",
				"font-size: "+num(e.Size())+"px;",
				"color: "+color(e.Ink())+";",
				"font-weight: "+pick(e.Bold, "bold", "normal")+";",
				"font-style: "+pick(e.Italic, "italic", "normal")+";",
				"transform: rotate("+num(e.Rotation)+"deg) scale("+num(sx)+", "+num(sy)+");",
				"transform-origin: center;",
				"white-space: nowrap;",
			),
			Text: e.Content,
		})
	}
	var buf bytes.Buffer
	if err := previewTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}

var documentTmpl = template.Must(template.New("document").Parse(
	`<body style="margin: 0px;padding: 0px; position:relative;">
<div style="{{.Page}}">{{range .Blocks}}{{if .QR}}
<div style="bottom: 20px; margin-left: 22px; position:absolute; width:100%;">
  <div style="width: 100%; display: flex;">
    <div style="{{.ImgBox}}"><img style="{{.ImgBox}}" src="{{$.QRImage}}" alt="QR"/></div>
    <div style="{{.TextBox}}">
      <div style="font-size: 11px; color: #000000; font-family:Arial, Helvetica, sans-serif; word-wrap: break-word; margin-left:11px; margin-right: 11px; margin-bottom: 0px; margin-top: auto; text-align:left;">{{.Text}}</div>
    </div>
  </div>
</div>{{else}}
<div style="{{.Box}}">
  <h1 style="{{.Heading}}">{{.Text}}</h1>
</div>{{end}}{{end}}
</div></body>`))

type documentData struct {
	Page    template.CSS
	QRImage string
	Blocks  []block
}

type block struct {
	QR      bool
	Text    string
	Box     template.CSS
	Heading template.CSS
	ImgBox  template.CSS
	TextBox template.CSS
}

// CompileForRecipient renders the print document for r. Text equal to the
// edit-time persona's name, CURP or RFC is replaced with r's own value; QR
// blocks carry r's seal or the configured fallback.
func (c *Compiler) CompileForRecipient(lay Layout, r domain.Recipient) (string, error) {
	wmm, hmm := lay.Orientation.PageSizeMM()
	bg := firstNonEmpty(r.Background, lay.Background)
	data := documentData{
		Page: style(
			"text-align: center;",
			"background-image:url('"+cssURL(bg)+"');",
			"position:relative;",
			"background-position: center;",
			"background-repeat: no-repeat;",
			"background-size: contain;",
			fmt.Sprintf("height:%dmm;", hmm),
			fmt.Sprintf("width:%dmm;", wmm),
			"overflow: hidden;",
		),
		QRImage: c.opts.QRImage,
		Blocks:  make([]block, 0, len(lay.Elements)),
	}
	for _, e := range lay.Elements {
		if e.IsQR() {
			data.Blocks = append(data.Blocks, c.qrBlock(e, r))
			continue
		}
		data.Blocks = append(data.Blocks, textBlock(e, substitute(e.Content, lay.Persona, r)))
	}
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render document for %s: %w", r.Identifier, err)
	}
	return buf.String(), nil
}

func (c *Compiler) qrBlock(e element.Element, r domain.Recipient) block {
	imgW := math.Max(40, math.Round(orDefault(e.Width, 100)))
	textH := math.Max(32, orDefault(e.Height, 100))
	payload := r.Seal
	if c.opts.QRFallback == FallbackShared {
		payload = firstNonEmpty(r.Seal, e.QRText, e.Content)
	}
	return block{
		QR:     true,
		Text:   payload,
		ImgBox: style("float: left;", "width: "+num(imgW)+"px;"),
		TextBox: style(
			"float: left;",
			"width: calc(100% - "+num(imgW)+"px);",
			"height: "+num(textH)+"px;",
			"word-wrap: break-word;",
			"margin-bottom: auto;",
			"margin-top: 10px;",
		),
	}
}

func textBlock(e element.Element, text string) block {
	fs := e.Size()
	box := []string{
		"height:" + num(e.Height) + "px;",
		"text-align:center;",
		"position:absolute;",
		"width:" + num(e.Width) + "px;",
		"left:" + num(e.X) + "px;",
		"top:" + num(e.Y) + "px;",
	}
	if e.Rotation != 0 {
		box = append(box, "transform: rotate("+num(e.Rotation)+"deg);", "transform-origin: center;")
	}
	return block{
		Text: text,
		Box:  style(box...),
		Heading: style(
			"color:"+color(e.Ink())+";",
			"font-size:"+num(fs)+"px;",
			"margin:0px;",
			"line-height:"+num(math.Max(1, math.Round(fs*1.05)))+"px;",
			"font-family: "+fontFamily(e.Family())+";",
			"font-weight: "+pick(e.Bold, "600", "400")+";",
			"font-style: "+pick(e.Italic, "italic", "normal")+";",
			"position:absolute;",
			"bottom:0px;",
			"width:100%;",
		),
	}
}

// substitute swaps the edit-time persona's fields for the recipient's own.
func substitute(text string, persona, r domain.Recipient) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return text
	}
	pairs := [][2]string{
		{persona.TrimmedName(), r.TrimmedName()},
		{strings.TrimSpace(persona.CURP), strings.TrimSpace(r.CURP)},
		{strings.TrimSpace(persona.RFC), strings.TrimSpace(r.RFC)},
	}
	for _, p := range pairs {
		if p[0] != "" && t == p[0] {
			if p[1] == "" {
				return text
			}
			return p[1]
		}
	}
	return text
}

// RecipientError records a recipient whose document could not be built.
type RecipientError struct {
	Index      int
	Identifier string
	Err        error
}

func (e RecipientError) Error() string {
	return fmt.Sprintf("recipient %d (%s): %v", e.Index, e.Identifier, e.Err)
}

func (e RecipientError) Unwrap() error { return e.Err }

// Report summarises a CompileAll run.
type Report struct {
	Compiled int
	Failed   []RecipientError
}

// Err joins the per-recipient failures, or returns nil.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i := range r.Failed {
		errs[i] = r.Failed[i]
	}
	return errors.Join(errs...)
}

// CompileAll writes a document into every recipient's HTML field. A failure
// for one recipient, including a panic, is logged and leaves that
// recipient's previous HTML untouched; the others are still compiled.
func (c *Compiler) CompileAll(lay Layout, recipients []domain.Recipient) Report {
	var rep Report
	for i := range recipients {
		html, err := c.safeCompile(lay, recipients[i])
		if err != nil {
			rep.Failed = append(rep.Failed, RecipientError{Index: i, Identifier: recipients[i].Identifier, Err: err})
			c.log.Warn("compile recipient failed; keeping previous html",
				slog.Int("index", i), slog.String("recipient", recipients[i].Identifier), slog.Any("err", err))
			continue
		}
		recipients[i].HTML = html
		rep.Compiled++
	}
	c.log.Debug("compiled batch", slog.Int("compiled", rep.Compiled), slog.Int("failed", len(rep.Failed)))
	return rep
}

// compileHook lets tests inject failures for a single recipient.
var compileHook func(domain.Recipient) error

func (c *Compiler) safeCompile(lay Layout, r domain.Recipient) (html string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if compileHook != nil {
		if err := compileHook(r); err != nil {
			return "", err
		}
	}
	return c.CompileForRecipient(lay, r)
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func orDefault(v, d float64) float64 {
	if v == 0 {
		return d
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
