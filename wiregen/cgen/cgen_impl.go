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
	"github.com/grubles/lightning/wiregen/codec"
	"github.com/grubles/lightning/wiregen/schema"
)

func genImpl(w *writer, s *schema.Schema, cfg *Config) {
	w.line("#include <%s>", cfg.headerFile())
	w.line("#include <ccan/mem/mem.h>")
	w.line("#include <stdio.h>")
	w.blank()

	genNameLookup(w, cfg.enumName(), s.Messages)

	for _, container := range s.Containers {
		genContainerImpl(w, container)
	}
	for _, m := range s.Messages {
		genTowire(w, m)
		genFromwire(w, m)
	}
	for _, m := range s.Variants {
		genTowire(w, m)
		genFromwire(w, m)
	}
}

func genNameLookup(w *writer, enumName string, msgs []*schema.MessageSpec) {
	w.line("const char *%s_name(int e)", enumName)
	w.line("{")
	w.line("static char invalidbuf[sizeof(\"INVALID \") + STR_MAX_CHARS(e)];")
	w.blank()
	w.line("switch ((enum %s)e) {", enumName)
	for _, m := range msgs {
		w.line("case %s: return \"%s\";", m.Tag.Name, m.Tag.Name)
	}
	w.line("}")
	w.blank()
	w.line("snprintf(invalidbuf, sizeof(invalidbuf), \"INVALID %%i\", e);")
	w.line("return invalidbuf;")
	w.line("}")
	w.blank()
}

// genTowire renders the encoder. The discriminant goes first; length
// sources are recomputed from the arrays and container spans they size.
func genTowire(w *writer, m *schema.MessageSpec) {
	w.line("u8 *towire_%s(%s)", m.Name, towireParams(m))
	w.line("{")
	w.line("u8 *p = tal_arr(ctx, u8, 0);")
	w.blank()
	w.line("towire_u16(&p, %s);", m.Tag.Name)
	for _, fp := range codec.Plan(m).Fields {
		genTowireField(w, m, fp)
	}
	w.line("return memcheck(p, tal_count(p));")
	w.line("}")
	w.blank()
}

func genTowireField(w *writer, m *schema.MessageSpec, fp codec.FieldPlan) {
	f := fp.Field
	switch fp.Strategy {
	case codec.StrategyPadding:
		w.line("towire_pad(&p, %d);", f.Count)

	case codec.StrategyScalar:
		w.line("towire_%s(&p, %s);", helperSuffix(f.Type), f.Name)

	case codec.StrategyBlob:
		w.line("towire_%s(&p, %s);", helperSuffix(f.Type), f.Name)

	case codec.StrategyBulkArray:
		w.line("towire_u8_array(&p, %s, %d);", f.Name, f.Count)

	case codec.StrategyElemArray:
		w.line("for (size_t i = 0; i < %d; i++)", f.Count)
		w.line("\ttowire_%s(&p, %s + i);", helperSuffix(f.Type), f.Name)

	case codec.StrategyLenSource:
		target := m.Field(f.LenFor)
		if target != nil && target.IsTlv() {
			// The container span is encoded here so its byte length
			// can prefix it.
			w.line("u8 *%s_span = towire_%s(ctx, %s);",
				target.Name, target.Tlv, target.Name)
			w.line("towire_%s(&p, tal_count(%s_span));",
				helperSuffix(f.Type), target.Name)
		} else if target != nil {
			w.line("towire_%s(&p, tal_count(%s));",
				helperSuffix(f.Type), target.Name)
		} else {
			w.line("towire_%s(&p, 0);", helperSuffix(f.Type))
		}

	case codec.StrategyLenArray:
		if f.Type.HasArrayHelper() {
			w.line("towire_u8_array(&p, %s, tal_count(%s));", f.Name, f.Name)
		} else {
			w.line("for (size_t i = 0; i < tal_count(%s); i++)", f.Name)
			w.line("\ttowire_%s(&p, %s + i);", helperSuffix(f.Type), f.Name)
		}

	case codec.StrategyOptional:
		w.line("towire_bool(&p, %s != NULL);", f.Name)
		w.line("if (%s != NULL)", f.Name)
		w.line("\ttowire_%s(&p, *%s);", helperSuffix(f.Type), f.Name)

	case codec.StrategyTlv:
		w.line("towire_u8_array(&p, %s_span, tal_count(%s_span));", f.Name, f.Name)
		w.line("tal_free(%s_span);", f.Name)
	}
}

// genFromwire renders the decoder: discriminant check, transient length
// locals, per-field reads, and one final poison check.
func genFromwire(w *writer, m *schema.MessageSpec) {
	w.line("bool fromwire_%s(%s)", m.Name, fromwireParams(m))
	w.line("{")
	w.line("const u8 *cursor = p;")
	w.line("size_t plen = tal_count(p);")
	w.blank()
	w.line("if (fromwire_u16(&cursor, &plen) != %s)", m.Tag.Name)
	w.line("\treturn false;")
	for _, fp := range codec.Plan(m).Fields {
		genFromwireField(w, m, fp)
	}
	w.line("return cursor != NULL;")
	w.line("}")
	w.blank()
}

func genFromwireField(w *writer, m *schema.MessageSpec, fp codec.FieldPlan) {
	f := fp.Field
	switch fp.Strategy {
	case codec.StrategyPadding:
		w.line("fromwire_pad(&cursor, &plen, %d);", f.Count)

	case codec.StrategyScalar:
		w.line("*%s = fromwire_%s(&cursor, &plen);", f.Name, helperSuffix(f.Type))

	case codec.StrategyBlob:
		w.line("fromwire_%s(&cursor, &plen, %s);", helperSuffix(f.Type), f.Name)

	case codec.StrategyBulkArray:
		w.line("fromwire_u8_array(&cursor, &plen, %s, %d);", f.Name, f.Count)

	case codec.StrategyElemArray:
		w.line("for (size_t i = 0; i < %d; i++)", f.Count)
		w.line("\tfromwire_%s(&cursor, &plen, %s + i);", helperSuffix(f.Type), f.Name)

	case codec.StrategyLenSource:
		w.line("%s %s = fromwire_%s(&cursor, &plen);",
			cType(f.Type), f.Name, helperSuffix(f.Type))

	case codec.StrategyLenArray:
		elem := cType(f.Type)
		w.line("*%s = %s > plen ? NULL : tal_arr(ctx, %s, %s);",
			f.Name, f.LenField, elem, f.LenField)
		if f.Type.HasArrayHelper() {
			w.line("fromwire_u8_array(&cursor, &plen, *%s, %s);", f.Name, f.LenField)
		} else {
			w.line("for (size_t i = 0; i < %s; i++)", f.LenField)
			w.line("\tfromwire_%s(&cursor, &plen, *%s + i);", helperSuffix(f.Type), f.Name)
		}

	case codec.StrategyOptional:
		w.line("if (fromwire_bool(&cursor, &plen)) {")
		w.line("*%s = tal(ctx, %s);", f.Name, cType(f.Type))
		w.line("**%s = fromwire_%s(&cursor, &plen);", f.Name, helperSuffix(f.Type))
		w.line("} else {")
		w.line("*%s = NULL;", f.Name)
		w.line("}")

	case codec.StrategyTlv:
		w.line("*%s = fromwire_%s(ctx, &cursor, &plen, %s);",
			f.Name, f.Tlv, f.LenField)
	}
}

// genContainerImpl renders one record container: per-record codecs, the
// ordered conditional-presence encoder, and the tag-dispatch decode loop
// that skips unknown records.
func genContainerImpl(w *writer, container *schema.TlvContainer) {
	for _, record := range container.Records {
		genRecordTowire(w, container, record)
		genRecordFromwire(w, container, record)
	}
	genContainerTowire(w, container)
	genContainerFromwire(w, container)
}

func genRecordTowire(w *writer, container *schema.TlvContainer, record *schema.MessageSpec) {
	w.line("static u8 *towire_%s_%s(const tal_t *ctx, const %s *r)",
		container.Name, record.Name, recordStruct(container, record))
	w.line("{")
	w.line("u8 *p = tal_arr(ctx, u8, 0);")
	w.blank()
	for _, fp := range codec.Plan(record).Fields {
		genRecordTowireField(w, fp)
	}
	w.line("return p;")
	w.line("}")
	w.blank()
}

func genRecordTowireField(w *writer, fp codec.FieldPlan) {
	f := fp.Field
	switch fp.Strategy {
	case codec.StrategyPadding:
		w.line("towire_pad(&p, %d);", f.Count)
	case codec.StrategyScalar:
		w.line("towire_%s(&p, r->%s);", helperSuffix(f.Type), f.Name)
	case codec.StrategyBlob:
		w.line("towire_%s(&p, &r->%s);", helperSuffix(f.Type), f.Name)
	case codec.StrategyBulkArray:
		w.line("towire_u8_array(&p, r->%s, %d);", f.Name, f.Count)
	case codec.StrategyElemArray:
		w.line("for (size_t i = 0; i < %d; i++)", f.Count)
		w.line("\ttowire_%s(&p, r->%s + i);", helperSuffix(f.Type), f.Name)
	case codec.StrategyLenSource:
		w.line("towire_%s(&p, tal_count(r->%s));", helperSuffix(f.Type), f.LenFor)
	case codec.StrategyLenArray:
		if f.Type.HasArrayHelper() {
			w.line("towire_u8_array(&p, r->%s, tal_count(r->%s));", f.Name, f.Name)
		} else {
			w.line("for (size_t i = 0; i < tal_count(r->%s); i++)", f.Name)
			w.line("\ttowire_%s(&p, r->%s + i);", helperSuffix(f.Type), f.Name)
		}
	}
}

func genRecordFromwire(w *writer, container *schema.TlvContainer, record *schema.MessageSpec) {
	structName := recordStruct(container, record)
	w.line("static %s *fromwire_%s_%s(const tal_t *ctx, const u8 *span, size_t len)",
		structName, container.Name, record.Name)
	w.line("{")
	w.line("%s *r = tal(ctx, %s);", structName, structName)
	w.line("const u8 *cursor = span;")
	w.line("size_t plen = len;")
	w.blank()
	for _, fp := range codec.Plan(record).Fields {
		genRecordFromwireField(w, fp)
	}
	// A record must consume its span exactly.
	w.line("if (cursor == NULL || plen != 0)")
	w.line("\treturn tal_free(r);")
	w.line("return r;")
	w.line("}")
	w.blank()
}

func genRecordFromwireField(w *writer, fp codec.FieldPlan) {
	f := fp.Field
	switch fp.Strategy {
	case codec.StrategyPadding:
		w.line("fromwire_pad(&cursor, &plen, %d);", f.Count)
	case codec.StrategyScalar:
		w.line("r->%s = fromwire_%s(&cursor, &plen);", f.Name, helperSuffix(f.Type))
	case codec.StrategyBlob:
		w.line("fromwire_%s(&cursor, &plen, &r->%s);", helperSuffix(f.Type), f.Name)
	case codec.StrategyBulkArray:
		w.line("fromwire_u8_array(&cursor, &plen, r->%s, %d);", f.Name, f.Count)
	case codec.StrategyElemArray:
		w.line("for (size_t i = 0; i < %d; i++)", f.Count)
		w.line("\tfromwire_%s(&cursor, &plen, r->%s + i);", helperSuffix(f.Type), f.Name)
	case codec.StrategyLenSource:
		w.line("%s %s = fromwire_%s(&cursor, &plen);",
			cType(f.Type), f.Name, helperSuffix(f.Type))
	case codec.StrategyLenArray:
		w.line("r->%s = %s > plen ? NULL : tal_arr(r, %s, %s);",
			f.Name, f.LenField, cType(f.Type), f.LenField)
		if f.Type.HasArrayHelper() {
			w.line("fromwire_u8_array(&cursor, &plen, r->%s, %s);", f.Name, f.LenField)
		} else {
			w.line("for (size_t i = 0; i < %s; i++)", f.LenField)
			w.line("\tfromwire_%s(&cursor, &plen, r->%s + i);", helperSuffix(f.Type), f.Name)
		}
	}
}

func genContainerTowire(w *writer, container *schema.TlvContainer) {
	w.line("u8 *towire_%s(const tal_t *ctx, const %s *tlv)",
		container.Name, containerStruct(container))
	w.line("{")
	w.line("u8 *p = tal_arr(ctx, u8, 0);")
	w.blank()
	w.line("if (tlv == NULL)")
	w.line("\treturn p;")
	for _, record := range container.Records {
		w.line("if (tlv->%s != NULL) {", record.Name)
		w.line("u8 *span = towire_%s_%s(ctx, tlv->%s);",
			container.Name, record.Name, record.Name)
		w.line("towire_u16(&p, %s);", record.Tag.Name)
		w.line("towire_u16(&p, tal_count(span));")
		w.line("towire_u8_array(&p, span, tal_count(span));")
		w.line("tal_free(span);")
		w.line("}")
	}
	w.line("return p;")
	w.line("}")
	w.blank()
}

func genContainerFromwire(w *writer, container *schema.TlvContainer) {
	structName := containerStruct(container)
	w.line("%s *fromwire_%s(const tal_t *ctx, const u8 **cursor, size_t *plen, size_t len)",
		structName, container.Name)
	w.line("{")
	w.line("%s *tlv = talz(ctx, %s);", structName, structName)
	w.line("size_t remaining = len;")
	w.blank()
	w.line("while (remaining > 0) {")
	w.line("u16 tag, reclen;")
	w.blank()
	w.line("if (remaining < 4)")
	w.line("\tgoto fail;")
	w.line("tag = fromwire_u16(cursor, plen);")
	w.line("reclen = fromwire_u16(cursor, plen);")
	w.line("remaining -= 4;")
	w.line("if (reclen > remaining || *cursor == NULL)")
	w.line("\tgoto fail;")
	w.line("switch ((enum %s_type)tag) {", container.Name)
	for _, record := range container.Records {
		w.line("case %s:", record.Tag.Name)
		w.line("\ttlv->%s = fromwire_%s_%s(tlv, *cursor, reclen);",
			record.Name, container.Name, record.Name)
		w.line("\tif (tlv->%s == NULL)", record.Name)
		w.line("\t\tgoto fail;")
		w.line("\tbreak;")
	}
	w.line("default:")
	w.line("\tbreak;")
	w.line("}")
	w.line("fromwire_pad(cursor, plen, reclen);")
	w.line("remaining -= reclen;")
	w.line("}")
	w.line("return tlv;")
	w.blank()
	w.line("fail:")
	w.line("fromwire_fail(cursor, plen);")
	w.line("return tal_free(tlv);")
	w.line("}")
	w.blank()
}
