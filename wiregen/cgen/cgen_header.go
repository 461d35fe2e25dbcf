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

package cgen

import (
	"fmt"
	"strings"

	"github.com/grubles/lightning/wiregen/codec"
	"github.com/grubles/lightning/wiregen/schema"
)

func genHeader(w *writer, s *schema.Schema, cfg *Config) {
	guard := cfg.guard()
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.line("#include <ccan/tal/tal.h>")
	w.line("#include <wire/wire.h>")
	for _, include := range s.Includes {
		w.line("%s", include)
	}
	w.blank()

	genEnum(w, cfg.enumName(), s.Messages)
	w.line("const char *%s_name(int e);", cfg.enumName())
	w.blank()

	for _, container := range s.Containers {
		genContainerDecls(w, container)
	}

	for _, m := range s.Messages {
		genPrototypes(w, m)
	}
	for _, m := range s.Variants {
		genPrototypes(w, m)
	}

	w.line("#endif /* %s */", guard)
}

// genEnum renders a discriminant enum. Record containers reuse it with
// their own tag namespace.
func genEnum(w *writer, name string, msgs []*schema.MessageSpec) {
	w.line("enum %s {", name)
	for _, m := range msgs {
		for _, comment := range m.Comments {
			w.line("/* %s */", strings.TrimSpace(comment))
		}
		w.line("%s = %d,", m.Tag.Name, m.Tag.Value)
	}
	w.line("};")
	w.blank()
}

func genContainerDecls(w *writer, container *schema.TlvContainer) {
	genEnum(w, container.Name+"_type", container.Records)

	for _, record := range container.Records {
		w.line("%s {", recordStruct(container, record))
		for _, p := range messageParams(record) {
			w.line("%s;", p.structMember())
		}
		w.line("};")
		w.blank()
	}

	// One pointer per record type; NULL marks an absent record.
	w.line("%s {", containerStruct(container))
	for _, record := range container.Records {
		w.line("%s *%s;", recordStruct(container, record), record.Name)
	}
	w.line("};")
	w.blank()

	w.line("u8 *towire_%s(const tal_t *ctx, const %s *tlv);",
		container.Name, containerStruct(container))
	w.line("%s *fromwire_%s(const tal_t *ctx, const u8 **cursor, size_t *plen, size_t len);",
		containerStruct(container), container.Name)
	w.blank()
}

// structMember renders a field as a record struct member. Variable-size
// members are tal-allocated arrays.
func (p param) structMember() string {
	f := p.field
	switch p.strategy {
	case codec.StrategyBulkArray, codec.StrategyElemArray:
		return fmt.Sprintf("%s %s[%d]", cType(f.Type), f.Name, f.Count)
	case codec.StrategyLenArray:
		return fmt.Sprintf("%s *%s", cType(f.Type), f.Name)
	}
	return fmt.Sprintf("%s %s", cType(f.Type), f.Name)
}

func genPrototypes(w *writer, m *schema.MessageSpec) {
	w.line("u8 *towire_%s(%s);", m.Name, towireParams(m))
	w.line("bool fromwire_%s(%s);", m.Name, fromwireParams(m))
	w.blank()
}
