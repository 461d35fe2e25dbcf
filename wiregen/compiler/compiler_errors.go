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

package compiler

import (
	"fmt"
)

// Error is a fatal schema error. Any Error aborts compilation; no partial
// schema is produced.
type Error struct {
	code    uint32
	message string
	line    int
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	if err.line > 0 {
		return fmt.Sprintf("line %d: E%d: %s", err.line, err.code, err.message)
	}
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Line() int {
	return err.line
}

func errUnknownMessage(name string, line int) *Error {
	return &Error{
		code:    2001,
		message: fmt.Sprintf("Unknown message '%s'", name),
		line:    line,
	}
}

func errDuplicateMessage(name string, line int) *Error {
	return &Error{
		code:    2002,
		message: fmt.Sprintf("Duplicate definition of message '%s'", name),
		line:    line,
	}
}

func errDuplicateDiscriminant(value uint64, name, prevName string, line int) *Error {
	return &Error{
		code: 2003,
		message: fmt.Sprintf(
			"Discriminant %d of message '%s' already used by message '%s'",
			value, name, prevName,
		),
		line: line,
	}
}

func errDiscriminantValue(name, token string, line int) *Error {
	return &Error{
		code: 2004,
		message: fmt.Sprintf(
			"Message '%s' has invalid discriminant value %q",
			name, token,
		),
		line: line,
	}
}

func errUnknownLenVar(msg, field, lenVar string, line int) *Error {
	return &Error{
		code: 2005,
		message: fmt.Sprintf(
			"Field %s.%s references unknown length variable '%s'",
			msg, field, lenVar,
		),
		line: line,
	}
}

func errLenVarWidth(msg, field, lenVar, lenType string, line int) *Error {
	return &Error{
		code: 2006,
		message: fmt.Sprintf(
			"Field %s.%s has non-u16 length variable '%s' (type %s)",
			msg, field, lenVar, lenType,
		),
		line: line,
	}
}

func errLenVarNotInteger(msg, field, lenVar, lenType string, line int) *Error {
	return &Error{
		code: 2007,
		message: fmt.Sprintf(
			"Field %s.%s has non-integer length variable '%s' (type %s)",
			msg, field, lenVar, lenType,
		),
		line: line,
	}
}

func errNonSimpleLenVar(msg, field, lenVar string, line int) *Error {
	return &Error{
		code: 2008,
		message: fmt.Sprintf(
			"Field %s.%s has non-simple length variable '%s'",
			msg, field, lenVar,
		),
		line: line,
	}
}

func errInvalidFieldSize(msg, field string, size, width int, line int) *Error {
	return &Error{
		code: 2009,
		message: fmt.Sprintf(
			"Invalid size %d for %s.%s: not a multiple of %d",
			size, msg, field, width,
		),
		line: line,
	}
}

func errUnknownType(msg, field, token string, line int) *Error {
	return &Error{
		code: 2010,
		message: fmt.Sprintf(
			"Unknown type %q for field %s.%s",
			token, msg, field,
		),
		line: line,
	}
}

func errUnknownSize(msg, field string, size int, line int) *Error {
	return &Error{
		code: 2011,
		message: fmt.Sprintf(
			"Cannot infer a type for %s.%s from size %d",
			msg, field, size,
		),
		line: line,
	}
}

func errBadArrayCount(msg, field, token string, line int) *Error {
	return &Error{
		code: 2012,
		message: fmt.Sprintf(
			"Field %s.%s has invalid array count %q: not a literal"+
				" integer or the preceding field",
			msg, field, token,
		),
		line: line,
	}
}

func errMalformedSize(msg, field, token string, line int) *Error {
	return &Error{
		code: 2013,
		message: fmt.Sprintf(
			"Field %s.%s has non-numeric size token %q in size-inference mode",
			msg, field, token,
		),
		line: line,
	}
}

func errOptionalArray(msg, field string, line int) *Error {
	return &Error{
		code: 2014,
		message: fmt.Sprintf(
			"Optional field %s.%s cannot be an array",
			msg, field,
		),
		line: line,
	}
}

func errNestedTlv(container, record, field string, line int) *Error {
	return &Error{
		code: 2015,
		message: fmt.Sprintf(
			"TLV record %s.%s may not contain nested TLV field '%s'",
			container, record, field,
		),
		line: line,
	}
}

func errOptionalInTlv(container, record, field string, line int) *Error {
	return &Error{
		code: 2016,
		message: fmt.Sprintf(
			"TLV record %s.%s may not contain optional field '%s'",
			container, record, field,
		),
		line: line,
	}
}

func errTlvNotLengthPrefixed(msg, field string, line int) *Error {
	return &Error{
		code: 2017,
		message: fmt.Sprintf(
			"TLV field %s.%s must be sized by a preceding length field",
			msg, field,
		),
		line: line,
	}
}

func errTlvLoad(container string, cause error, line int) *Error {
	return &Error{
		code: 2018,
		message: fmt.Sprintf(
			"Cannot load TLV container '%s': %v",
			container, cause,
		),
		line: line,
	}
}

func errTlvNoResolver(container string, line int) *Error {
	return &Error{
		code: 2019,
		message: fmt.Sprintf(
			"TLV container '%s' referenced but no include source configured",
			container,
		),
		line: line,
	}
}
