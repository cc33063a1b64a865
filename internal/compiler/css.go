/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package compiler

import (
	"html/template"
	"math"
	"strconv"
	"strings"
)

// Style values are assembled here and handed to the templates as template.CSS,
// so every user-controlled piece must be reduced to characters that cannot
// leave the declaration it belongs to.

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(geometryRound(v), 'f', -1, 64)
}

func geometryRound(v float64) float64 { return math.Round(v*1000) / 1000 }

func keep(s string, ok func(r rune) bool) string {
	var b strings.Builder
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// fontFamily keeps letters, digits, spaces, commas, dashes and underscores.
func fontFamily(s string) string {
	return keep(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return true
		case r == ' ' || r == ',' || r == '-' || r == '_':
			return true
		case r > 127:
			return true
		}
		return false
	})
}

// color keeps what hex, named and rgb()/hsl() colors need.
func color(s string) string {
	return keep(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return true
		case r == '#' || r == '(' || r == ')' || r == ',' || r == '.' || r == '%' || r == ' ':
			return true
		}
		return false
	})
}

var urlReplacer = strings.NewReplacer(
	"'", "%27", `"`, "%22", "(", "%28", ")", "%29", `\`, "%5C",
	"\n", "", "\r", "", "<", "%3C", ">", "%3E", ";", "%3B",
)

// cssURL makes s safe inside url('...').
func cssURL(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); strings.HasPrefix(strings.ToLower(s), "data:") && i > 0 {
		// the header legitimately contains ';' (";base64")
		head := strings.NewReplacer("'", "", `"`, "", "(", "", ")", "", `\`, "", "<", "", ">", "").Replace(s[:i])
		return head + urlReplacer.Replace(s[i:])
	}
	return urlReplacer.Replace(s)
}

// style joins declarations into a single trusted CSS value.
func style(decls ...string) template.CSS {
	return template.CSS(strings.Join(decls, " "))
}
