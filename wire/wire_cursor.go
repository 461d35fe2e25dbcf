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

// Cursor reads primitive values from a byte sequence. A read past the end of
// the remaining bytes consumes everything, poisons the cursor and returns a
// zero value; every later read is a no-op. Callers check Exhausted once at
// the end instead of after every read.
//
// A Cursor is owned by exactly one decode call at a time.
type Cursor struct {
	buf       []byte
	exhausted bool
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining reports the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf)
}

// Exhausted reports whether any read overran the buffer.
func (c *Cursor) Exhausted() bool {
	return c.exhausted
}

// Fail poisons the cursor, discarding any unread bytes.
func (c *Cursor) Fail() {
	c.buf = nil
	c.exhausted = true
}

func (c *Cursor) take(n int) []byte {
	if c.exhausted {
		return nil
	}
	if n < 0 || n > len(c.buf) {
		c.Fail()
		return nil
	}
	out := c.buf[:n]
	c.buf = c.buf[n:]
	return out
}

func (c *Cursor) U8() uint8 {
	raw := c.take(1)
	if raw == nil {
		return 0
	}
	return raw[0]
}

func (c *Cursor) U16() uint16 {
	raw := c.take(2)
	if raw == nil {
		return 0
	}
	return binary.BigEndian.Uint16(raw)
}

func (c *Cursor) U32() uint32 {
	raw := c.take(4)
	if raw == nil {
		return 0
	}
	return binary.BigEndian.Uint32(raw)
}

func (c *Cursor) U64() uint64 {
	raw := c.take(8)
	if raw == nil {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

// Bool reads one byte. Any value other than 0 or 1 poisons the cursor.
func (c *Cursor) Bool() bool {
	v := c.U8()
	if v > 1 {
		c.Fail()
		return false
	}
	return v == 1
}

// Bytes reads n bytes into a fresh slice.
func (c *Cursor) Bytes(n int) []byte {
	raw := c.take(n)
	if raw == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, raw)
	return out
}

// Pad skips n bytes without interpreting them.
func (c *Cursor) Pad(n int) {
	c.take(n)
}
