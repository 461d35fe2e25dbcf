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

// Package cgen renders a resolved schema as C source artifacts: the
// declaration header, the codec definitions, and a debug printer. Field
// handling follows the same per-field strategies the executable codecs
// compile, so the two backends cannot drift.
package cgen

import (
	"fmt"
	"strings"

	"github.com/grubles/lightning/wiregen/codec"
	"github.com/grubles/lightning/wiregen/schema"
)

// Flavor selects which artifact Generate renders. A flavor only selects
// passes; none of them changes how any field is handled.
type Flavor uint8

const (
	// FlavorHeader renders enum tables, record structs and entry-point
	// prototypes.
	FlavorHeader Flavor = iota

	// FlavorImpl renders the enum name lookup and the fromwire/towire
	// definitions.
	FlavorImpl

	// FlavorPrint renders debug print routines and a dispatch on the
	// peeked discriminant.
	FlavorPrint

	// FlavorPrintHeader renders the prototype for the print dispatch.
	FlavorPrintHeader
)

// Config carries the artifact-level knobs. Both file names are used
// verbatim: HeaderFile as the include target and the source of the
// header guard.
type Config struct {
	// EnumName is the C name of the top-level discriminant enum.
	EnumName string

	// HeaderFile is the path of the generated header, included by the
	// other flavors and uppercased into the guard macro.
	HeaderFile string
}

func (cfg *Config) enumName() string {
	if cfg.EnumName == "" {
		return "wire_type"
	}
	return cfg.EnumName
}

func (cfg *Config) guard() string {
	name := cfg.HeaderFile
	if name == "" {
		name = "wire/gen_wire.h"
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
	return "LIGHTNING_" + mapped
}

func (cfg *Config) headerFile() string {
	if cfg.HeaderFile == "" {
		return "wire/gen_wire.h"
	}
	return cfg.HeaderFile
}

// Generate renders one artifact flavor for a resolved schema.
func Generate(s *schema.Schema, flavor Flavor, cfg Config) ([]byte, error) {
	w := &writer{}
	w.line("/* This file was generated by wiregen. */")
	w.line("/* Do not modify this file! Modify the CSV it was generated from. */")
	switch flavor {
	case FlavorHeader:
		genHeader(w, s, &cfg)
	case FlavorImpl:
		genImpl(w, s, &cfg)
	case FlavorPrint:
		genPrint(w, s, &cfg)
	case FlavorPrintHeader:
		genPrintHeader(w, &cfg)
	default:
		return nil, fmt.Errorf("cgen: unknown flavor %d", flavor)
	}
	return w.bytes(), nil
}

// param is one entry-point parameter. Padding and length-source fields
// never surface as parameters; their bytes are derived.
type param struct {
	field    *schema.FieldSpec
	strategy codec.Strategy
}

func messageParams(m *schema.MessageSpec) []param {
	var params []param
	for _, fp := range codec.Plan(m).Fields {
		switch fp.Strategy {
		case codec.StrategyPadding, codec.StrategyLenSource:
			continue
		}
		params = append(params, param{field: fp.Field, strategy: fp.Strategy})
	}
	return params
}

// cType renders a TypeSpec as the C type of a single element.
func cType(t schema.TypeSpec) string {
	return t.Name
}

// helperSuffix names the fromwire_/towire_ helper for one element of a
// type: the base name with any struct or enum keyword stripped.
func helperSuffix(t schema.TypeSpec) string {
	return t.Base()
}

func recordStruct(container *schema.TlvContainer, record *schema.MessageSpec) string {
	return fmt.Sprintf("struct %s_%s", container.Name, record.Name)
}

func containerStruct(container *schema.TlvContainer) string {
	return "struct " + container.Name
}

// towireDecl renders the parameter as towire entry points take it: scalars
// by value, aggregates and arrays by const pointer.
func (p param) towireDecl() string {
	f := p.field
	switch p.strategy {
	case codec.StrategyScalar:
		// Integers, bools and amounts ride by value.
		return fmt.Sprintf("%s %s", cType(f.Type), f.Name)
	case codec.StrategyBlob:
		return fmt.Sprintf("const %s *%s", cType(f.Type), f.Name)
	case codec.StrategyBulkArray, codec.StrategyElemArray:
		return fmt.Sprintf("const %s %s[%d]", cType(f.Type), f.Name, f.Count)
	case codec.StrategyLenArray:
		return fmt.Sprintf("const %s *%s", cType(f.Type), f.Name)
	case codec.StrategyOptional:
		return fmt.Sprintf("const %s *%s", cType(f.Type), f.Name)
	case codec.StrategyTlv:
		return fmt.Sprintf("const struct %s *%s", f.Tlv, f.Name)
	}
	return fmt.Sprintf("const %s *%s", cType(f.Type), f.Name)
}

// fromwireDecl renders the parameter as fromwire entry points fill it:
// out-pointers, with variable-size payloads tal-allocated behind a double
// pointer.
func (p param) fromwireDecl() string {
	f := p.field
	switch p.strategy {
	case codec.StrategyScalar, codec.StrategyBlob:
		return fmt.Sprintf("%s *%s", cType(f.Type), f.Name)
	case codec.StrategyBulkArray, codec.StrategyElemArray:
		return fmt.Sprintf("%s %s[%d]", cType(f.Type), f.Name, f.Count)
	case codec.StrategyLenArray:
		return fmt.Sprintf("%s **%s", cType(f.Type), f.Name)
	case codec.StrategyOptional:
		return fmt.Sprintf("%s **%s", cType(f.Type), f.Name)
	case codec.StrategyTlv:
		return fmt.Sprintf("struct %s **%s", f.Tlv, f.Name)
	}
	return fmt.Sprintf("%s *%s", cType(f.Type), f.Name)
}

func towireParams(m *schema.MessageSpec) string {
	parts := []string{"const tal_t *ctx"}
	for _, p := range messageParams(m) {
		parts = append(parts, p.towireDecl())
	}
	return strings.Join(parts, ", ")
}

func fromwireParams(m *schema.MessageSpec) string {
	var parts []string
	if m.HasVariable {
		parts = append(parts, "const tal_t *ctx")
	}
	parts = append(parts, "const u8 *p")
	for _, p := range messageParams(m) {
		parts = append(parts, p.fromwireDecl())
	}
	return strings.Join(parts, ", ")
}
