// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package cgen

import (
	"bytes"
	"fmt"
	"strings"
)

// writer accumulates C source with brace-driven indentation: a line ending
// in "{" indents the lines after it, a line starting with "}" dedents
// itself. Case labels sit half out of the switch body.
type writer struct {
	buf   bytes.Buffer
	depth int
}

func (w *writer) line(format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		w.buf.WriteByte('\n')
		return
	}

	depth := w.depth
	if strings.HasPrefix(trimmed, "}") {
		depth--
		w.depth--
	}
	// Case labels and goto targets sit one level out of their block.
	if strings.HasPrefix(trimmed, "case ") ||
		strings.HasPrefix(trimmed, "default:") ||
		strings.HasPrefix(trimmed, "fail:") {
		depth--
	}
	for i := 0; i < depth; i++ {
		w.buf.WriteByte('\t')
	}
	// Leading tabs in the text itself indent continuation lines past the
	// block depth.
	w.buf.WriteString(strings.TrimRight(text, " \t"))
	w.buf.WriteByte('\n')

	if strings.HasSuffix(trimmed, "{") {
		w.depth++
	}
}

func (w *writer) blank() {
	w.buf.WriteByte('\n')
}

func (w *writer) bytes() []byte {
	return w.buf.Bytes()
}
