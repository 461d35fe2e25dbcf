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

// Package wire implements the runtime primitives shared by message codecs:
// a read cursor that propagates failure by poisoning itself, and a growable
// write buffer whose writes cannot fail.
//
// All multi-byte integers are big-endian (network order).
package wire

import (
	"errors"
)

var (
	// ErrTypeMismatch reports a leading discriminant that does not match
	// the expected message tag.
	ErrTypeMismatch = errors.New("wire: message type mismatch")

	// ErrTruncated reports a required read past the end of the buffer.
	ErrTruncated = errors.New("wire: message truncated")

	// ErrLengthMismatch reports a TLV record that consumed a different
	// number of bytes than its declared length.
	ErrLengthMismatch = errors.New("wire: tlv record length mismatch")
)
