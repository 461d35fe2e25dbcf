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

// Package schema defines the object model for a compiled wire-message
// schema. Values are built once by the compiler and are read-only
// blueprints afterward; generation passes never mutate them.
package schema

import (
	"strings"
)

// Kind classifies the primitive shape of a field type.
type Kind uint8

const (
	// KindUint is an unsigned integer of 1, 2, 4 or 8 bytes.
	KindUint Kind = iota

	// KindBool is a single presence/truth byte.
	KindBool

	// KindBlob is an opaque fixed-width byte value (hashes, points,
	// signatures, amounts).
	KindBlob

	// KindStruct is a named aggregate whose layout is handled by a
	// type-specific sub-procedure. Width may be zero when the layout is
	// not catalogued (permitted for extensibility).
	KindStruct

	// KindEnum is a named enumeration, assignable like an integer. Width
	// may be zero when the underlying width is not catalogued.
	KindEnum

	// KindPad is wire padding; it carries no semantic value.
	KindPad
)

// TypeSpec is a resolved field type. Name is the declared type name,
// including any "struct " or "enum " prefix. Immutable once resolved.
type TypeSpec struct {
	Name  string
	Kind  Kind
	Width int

	// NeedsAlloc marks aggregates whose own layout is variable-length and
	// which therefore require an allocation context.
	NeedsAlloc bool
}

// Base returns the type name with any "struct " or "enum " prefix removed.
// Generated helper names are derived from the base name.
func (t TypeSpec) Base() string {
	if rest, ok := strings.CutPrefix(t.Name, "struct "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(t.Name, "enum "); ok {
		return rest
	}
	return t.Name
}

// Assignable reports whether values of this type are passed and stored by
// value rather than through a type-specific sub-procedure.
func (t TypeSpec) Assignable() bool {
	switch t.Kind {
	case KindUint, KindBool, KindEnum:
		return true
	}
	return t.Name == "struct amount_msat" || t.Name == "struct amount_sat"
}

// HasArrayHelper reports whether arrays of this type use a single
// counted-copy operation. Only the single-byte case is accelerated.
func (t TypeSpec) HasArrayHelper() bool {
	return t.Name == "u8"
}

// EnumTag is the symbolic name and numeric value of a message discriminant.
// Values are unique within their namespace: one namespace for top-level
// messages, one per TLV container.
type EnumTag struct {
	Name  string
	Value uint64
}

// Role is a field's size-role variant. At most one of array, length-prefixed
// or optional applies to any field.
type Role uint8

const (
	// RoleFixed is a scalar whose width comes from its TypeSpec.
	RoleFixed Role = iota

	// RoleFixedArray is an array with a literal element count.
	RoleFixedArray

	// RoleLengthPrefixed is an array whose element count is read at
	// runtime from a previously declared field.
	RoleLengthPrefixed

	// RoleOptional is a value preceded by one presence byte.
	RoleOptional

	// RolePadding is skipped on decode and zero-filled on encode.
	RolePadding
)

// FieldSpec is one field of a message, in wire order.
type FieldSpec struct {
	Name     string
	Comments []string
	Type     TypeSpec
	Role     Role

	// Count is the element count for fixed roles (1 for scalars), or the
	// byte count for padding.
	Count int

	// LenField names the earlier field holding this field's element count
	// (RoleLengthPrefixed only).
	LenField string

	// IsLenSource marks ordinary fixed unsigned-integer fields that are
	// the length for a later field. Their wire value is recomputed on
	// encode and kept transient on decode.
	IsLenSource bool

	// LenFor names the field this length-source field sizes. When several
	// fields share one length source, LenFor names the last of them.
	LenFor string

	// Tlv names the extensible record container carried by this field,
	// if any.
	Tlv string
}

// IsTlv reports whether the field carries a tagged-record container.
func (f *FieldSpec) IsTlv() bool {
	return f.Tlv != ""
}

// IsPadding reports whether the field is wire padding.
func (f *FieldSpec) IsPadding() bool {
	return f.Role == RolePadding
}

// MessageSpec is one message type. Field order is wire order and is
// preserved exactly.
type MessageSpec struct {
	Name     string
	Tag      EnumTag
	Comments []string
	Fields   []FieldSpec

	// HasVariable is true if any field is length-prefixed, optional, or
	// typed as an externally-allocated aggregate. Entry points for such
	// messages take an allocation context.
	HasVariable bool

	// IsTlvRecord marks records nested inside a TLV container. Such
	// records may not contain optional or nested TLV fields.
	IsTlvRecord bool
}

// Field returns the named field, or nil.
func (m *MessageSpec) Field(name string) *FieldSpec {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// TlvContainer is an extensible tagged-record sub-protocol embedded as one
// message field. Record tags are scoped to the container.
type TlvContainer struct {
	Name    string
	Records []*MessageSpec
}

// Record returns the named record type, or nil.
func (c *TlvContainer) Record(name string) *MessageSpec {
	for _, r := range c.Records {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Schema is a fully built schema: every message, option variant and TLV
// container, resolved before any generation starts.
type Schema struct {
	Messages []*MessageSpec

	// Variants are option-suffixed clones of base messages. They share
	// the base message's discriminant.
	Variants []*MessageSpec

	Containers []*TlvContainer

	// Includes are passthrough include lines for the header artifact.
	Includes []string
}

// Message returns the named message or variant, or nil.
func (s *Schema) Message(name string) *MessageSpec {
	for _, m := range s.Messages {
		if m.Name == name {
			return m
		}
	}
	for _, m := range s.Variants {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Container returns the named TLV container, or nil.
func (s *Schema) Container(name string) *TlvContainer {
	for _, c := range s.Containers {
		if c.Name == name {
			return c
		}
	}
	return nil
}
