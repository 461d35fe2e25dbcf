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

package codec

// Value is a decoded message, or a message under construction for encoding.
// Field payloads are uint64 for integer and amount types, bool, []byte for
// opaque blobs and byte arrays, []any for other arrays, *Tlv for extensible
// record containers. An absent optional field has no map entry. Padding and
// length-source fields never appear; their wire bytes are recomputed on
// encode.
type Value struct {
	Msg    string
	Fields map[string]any
}

func NewValue(msg string) *Value {
	return &Value{Msg: msg, Fields: make(map[string]any)}
}

// Set stores a field payload and returns the value for chaining.
func (v *Value) Set(field string, payload any) *Value {
	v.Fields[field] = payload
	return v
}

// Field returns a field payload, or nil if absent.
func (v *Value) Field(field string) any {
	return v.Fields[field]
}

// Tlv is the payload of a field carrying an extensible record container.
// Each record is a Value whose Msg names a record type of the container.
// Records unknown to the decoding schema are skipped and do not appear.
type Tlv struct {
	Records []*Value
}

// Record returns the first record of the named type, or nil.
func (t *Tlv) Record(msg string) *Value {
	for _, r := range t.Records {
		if r.Msg == msg {
			return r
		}
	}
	return nil
}
