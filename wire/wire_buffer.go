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

package wire

import (
	"encoding/binary"
)

// Buffer accumulates an encoded message. The zero value is ready to use.
// A Buffer is owned by exactly one encode call until Collect returns it.
type Buffer struct {
	buf []byte
}

func (b *Buffer) Len() int {
	return len(b.buf)
}

func (b *Buffer) U8(v uint8) {
	b.buf = append(b.buf, v)
}

func (b *Buffer) U16(v uint16) {
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
}

func (b *Buffer) U32(v uint32) {
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
}

func (b *Buffer) U64(v uint64) {
	b.buf = binary.BigEndian.AppendUint64(b.buf, v)
}

func (b *Buffer) Bool(v bool) {
	if v {
		b.U8(1)
	} else {
		b.U8(0)
	}
}

func (b *Buffer) Bytes(p []byte) {
	b.buf = append(b.buf, p...)
}

// Pad appends n zero bytes.
func (b *Buffer) Pad(n int) {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, 0)
	}
}

// Collect returns the accumulated bytes. The buffer must not be written to
// afterward.
func (b *Buffer) Collect() []byte {
	return b.buf
}
