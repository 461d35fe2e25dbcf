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

import (
	"fmt"

	"github.com/grubles/lightning/wiregen/schema"
)

// Strategy is the single declarative decision made per field. The encode
// and decode generators, and the C rendering backend, branch on nothing
// else.
type Strategy uint8

const (
	// StrategyScalar is a fixed assignable scalar: an unsigned integer,
	// a bool, or an amount carried as a 64-bit integer.
	StrategyScalar Strategy = iota

	// StrategyBlob is a fixed-width opaque byte sequence embedded
	// directly in the message.
	StrategyBlob

	// StrategyBulkArray is a fixed-count byte array moved in one
	// operation.
	StrategyBulkArray

	// StrategyElemArray is a fixed-count array encoded element by
	// element.
	StrategyElemArray

	// StrategyLenArray is an array whose element count is read at
	// runtime from an earlier length-source field.
	StrategyLenArray

	// StrategyLenSource is an integer whose wire value is the length of
	// a later field. It is recomputed on encode and transient on decode.
	StrategyLenSource

	// StrategyOptional is a presence byte followed, when 1, by the
	// field's value.
	StrategyOptional

	// StrategyPadding is skipped on decode and zero-filled on encode.
	StrategyPadding

	// StrategyTlv is a length-delimited span holding an extensible
	// record container.
	StrategyTlv
)

// FieldPlan pairs a field with its chosen strategy.
type FieldPlan struct {
	Field    *schema.FieldSpec
	Strategy Strategy
}

// MessagePlan is the complete codec plan for one message, in wire order.
type MessagePlan struct {
	Message *schema.MessageSpec
	Fields  []FieldPlan
}

// Plan assigns a strategy to every field of a message. Planning never
// fails; consumers that cannot realize a strategy for a particular type,
// such as the in-process codecs for externally-allocated aggregates,
// reject it when they compile the plan.
func Plan(m *schema.MessageSpec) *MessagePlan {
	plan := &MessagePlan{Message: m}
	for i := range m.Fields {
		f := &m.Fields[i]
		plan.Fields = append(plan.Fields, FieldPlan{
			Field:    f,
			Strategy: fieldStrategy(f),
		})
	}
	return plan
}

func fieldStrategy(f *schema.FieldSpec) Strategy {
	if f.IsPadding() {
		return StrategyPadding
	}
	if f.IsTlv() {
		return StrategyTlv
	}
	switch f.Role {
	case schema.RoleLengthPrefixed:
		return StrategyLenArray
	case schema.RoleFixedArray:
		if f.Type.HasArrayHelper() {
			return StrategyBulkArray
		}
		return StrategyElemArray
	case schema.RoleOptional:
		return StrategyOptional
	}
	if f.IsLenSource {
		return StrategyLenSource
	}
	if f.Type.Assignable() {
		return StrategyScalar
	}
	return StrategyBlob
}

func checkRepresentable(m *schema.MessageSpec, f *schema.FieldSpec) error {
	t := f.Type
	if t.NeedsAlloc || t.Width <= 0 || t.Kind == schema.KindStruct {
		return fmt.Errorf(
			"codec: %s.%s: type %q has no in-process representation",
			m.Name, f.Name, t.Name,
		)
	}
	switch t.Kind {
	case schema.KindUint, schema.KindEnum:
		switch t.Width {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf(
				"codec: %s.%s: type %q has unsupported integer width %d",
				m.Name, f.Name, t.Name, t.Width,
			)
		}
	}
	return nil
}
