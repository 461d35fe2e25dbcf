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

// Package records tokenizes the textual schema format into ordered records.
//
// The grammar is line-oriented CSV. A two-column line starts a message; a
// four-column line adds a field; a five-column line adds the field to an
// option variant of the message. Lines beginning with "#include " pass
// through to the generated header. A trailing "#comment" on any line
// documents the following declaration.
package records

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Kind discriminates record shapes.
type Kind uint8

const (
	// KindMessage starts a message: "name,discriminant".
	KindMessage Kind = iota

	// KindField adds a field: "message,offset,name,size[,variant]".
	KindField

	// KindComment documents the next declaration.
	KindComment

	// KindInclude passes an include line through to the header.
	KindInclude
)

// Record is one tokenized schema line.
type Record struct {
	Line int
	Kind Kind

	// KindMessage and KindField.
	Message string

	// KindMessage: the discriminant value token.
	Value string

	// KindField.
	Offset  string
	Field   string
	Size    string
	Variant string

	// KindComment and KindInclude payload.
	Text string
}

// Parse tokenizes a schema source. Malformed column counts are reported
// with their line number.
func Parse(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()

		if strings.HasPrefix(raw, "#include ") {
			out = append(out, Record{
				Line: line,
				Kind: KindInclude,
				Text: strings.TrimRight(raw, " \t"),
			})
			continue
		}

		head, comment, hasComment := strings.Cut(strings.TrimRight(raw, " \t"), "#")
		if hasComment {
			out = append(out, Record{
				Line: line,
				Kind: KindComment,
				Text: comment,
			})
		}
		if head == "" {
			continue
		}

		parts := strings.Split(head, ",")
		switch len(parts) {
		case 2:
			out = append(out, Record{
				Line:    line,
				Kind:    KindMessage,
				Message: parts[0],
				Value:   parts[1],
			})
		case 4:
			out = append(out, Record{
				Line:    line,
				Kind:    KindField,
				Message: parts[0],
				Offset:  parts[1],
				Field:   parts[2],
				Size:    parts[3],
			})
		case 5:
			out = append(out, Record{
				Line:    line,
				Kind:    KindField,
				Message: parts[0],
				Offset:  parts[1],
				Field:   parts[2],
				Size:    parts[3],
				Variant: parts[4],
			})
		default:
			return nil, fmt.Errorf("records: line %d: malformed record %q", line, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return out, nil
}

// ParseString tokenizes an in-memory schema source.
func ParseString(src string) ([]Record, error) {
	return Parse(strings.NewReader(src))
}
