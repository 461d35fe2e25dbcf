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

package wire_test

import (
	"testing"

	"github.com/grubles/lightning/internal/testutil"
	"github.com/grubles/lightning/wire"
)

func TestCursorReads(t *testing.T) {
	t.Parallel()

	c := wire.NewCursor([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
		0x01,
		0xAA, 0xBB,
	})
	testutil.ExpectEq(t, uint8(0x01), c.U8())
	testutil.ExpectEq(t, uint16(0x0203), c.U16())
	testutil.ExpectEq(t, uint32(0x04050607), c.U32())
	testutil.ExpectEq(t, uint64(0x08090A0B0C0D0E0F), c.U64())
	testutil.ExpectEq(t, true, c.Bool())
	testutil.ExpectBytesEq(t, []byte{0xAA, 0xBB}, c.Bytes(2))
	testutil.ExpectFalse(t, c.Exhausted())
	testutil.ExpectEq(t, 0, c.Remaining())
}

func TestCursorPoison(t *testing.T) {
	t.Parallel()

	c := wire.NewCursor([]byte{0x12})
	testutil.ExpectEq(t, uint16(0), c.U16())
	testutil.ExpectTrue(t, c.Exhausted())

	// Every later read is a no-op returning zero values.
	testutil.ExpectEq(t, uint8(0), c.U8())
	testutil.ExpectEq(t, uint64(0), c.U64())
	testutil.ExpectFalse(t, c.Bool())
	if got := c.Bytes(1); got != nil {
		t.Errorf("Expected nil, got: %#v", got)
	}
	testutil.ExpectEq(t, 0, c.Remaining())
}

func TestCursorBoolRejectsNonBoolean(t *testing.T) {
	t.Parallel()

	c := wire.NewCursor([]byte{0x02, 0x00})
	testutil.ExpectFalse(t, c.Bool())
	testutil.ExpectTrue(t, c.Exhausted())
}

func TestCursorPad(t *testing.T) {
	t.Parallel()

	c := wire.NewCursor([]byte{0xFF, 0xFF, 0x01})
	c.Pad(2)
	testutil.ExpectFalse(t, c.Exhausted())
	testutil.ExpectEq(t, uint8(0x01), c.U8())

	c.Pad(1)
	testutil.ExpectTrue(t, c.Exhausted())
}

func TestCursorBytesAreCopied(t *testing.T) {
	t.Parallel()

	src := []byte{0x01, 0x02}
	c := wire.NewCursor(src)
	got := c.Bytes(2)
	src[0] = 0xFF
	testutil.ExpectBytesEq(t, []byte{0x01, 0x02}, got)
}

func TestBufferWrites(t *testing.T) {
	t.Parallel()

	var b wire.Buffer
	b.U8(0x01)
	b.U16(0x0203)
	b.U32(0x04050607)
	b.U64(0x08090A0B0C0D0E0F)
	b.Bool(true)
	b.Bool(false)
	b.Bytes([]byte{0xAA})
	b.Pad(3)
	testutil.ExpectBytesEq(t, []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
		0x01,
		0x00,
		0xAA,
		0x00, 0x00, 0x00,
	}, b.Collect())
	testutil.ExpectEq(t, 19, b.Len())
}
