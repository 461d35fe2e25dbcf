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

func genPrintHeader(w *writer, cfg *Config) {
	guard := cfg.guard() + "_PRINT"
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.line("#include <ccan/tal/tal.h>")
	w.blank()
	w.line("void printwire_%s(const u8 *msg);", cfg.enumName())
	w.blank()
	w.line("#endif /* %s */", guard)
}

func genPrint(w *writer, s *schema.Schema, cfg *Config) {
	w.line("#include <%s>", cfg.headerFile())
	w.line("#include <inttypes.h>")
	w.line("#include <stdio.h>")
	w.blank()

	genPrintHexHelper(w)
	for _, m := range s.Messages {
		genPrintMessage(w, m)
	}
	genPrintDispatch(w, s, cfg)
}

func genPrintHexHelper(w *writer) {
	w.line("static void printwire_hex(const char *name, const u8 *cursor, size_t plen, size_t len)")
	w.line("{")
	w.line("printf(\"%%s=\", name);")
	w.line("if (cursor == NULL || len > plen) {")
	w.line("printf(\"**TRUNCATED**\\n\");")
	w.line("return;")
	w.line("}")
	w.line("for (size_t i = 0; i < len; i++)")
	w.line("\tprintf(\"%%02x\", cursor[i]);")
	w.line("printf(\"\\n\");")
	w.line("}")
	w.blank()
}

func genPrintMessage(w *writer, m *schema.MessageSpec) {
	w.line("static void printwire_%s(const u8 *cursor, size_t plen)", m.Name)
	w.line("{")
	for _, fp := range codec.Plan(m).Fields {
		genPrintField(w, fp)
	}
	w.line("if (cursor == NULL) {")
	w.line("printf(\"**TRUNCATED**\\n\");")
	w.line("return;")
	w.line("}")
	w.line("if (plen != 0)")
	w.line("\tprintwire_hex(\"extra\", cursor, plen, plen);")
	w.line("}")
	w.blank()
}

func genPrintField(w *writer, fp codec.FieldPlan) {
	f := fp.Field
	switch fp.Strategy {
	case codec.StrategyPadding:
		w.line("fromwire_pad(&cursor, &plen, %d);", f.Count)

	case codec.StrategyScalar:
		if f.Type.Kind == schema.KindBool {
			w.line("printf(\"%s=%%s\\n\", fromwire_bool(&cursor, &plen) ? \"true\" : \"false\");", f.Name)
			return
		}
		if f.Type.Kind == schema.KindBlob {
			// Amounts print as their integer value.
			w.line("printf(\"%s=%%\"PRIu64\"\\n\", fromwire_u64(&cursor, &plen));", f.Name)
			return
		}
		w.line("printf(\"%s=%%\"PRIu64\"\\n\", (u64)fromwire_%s(&cursor, &plen));",
			f.Name, helperSuffix(f.Type))

	case codec.StrategyBlob:
		w.line("printwire_hex(\"%s\", cursor, plen, %d);", f.Name, f.Type.Width)
		w.line("fromwire_pad(&cursor, &plen, %d);", f.Type.Width)

	case codec.StrategyBulkArray, codec.StrategyElemArray:
		total := f.Count * f.Type.Width
		w.line("printwire_hex(\"%s\", cursor, plen, %d);", f.Name, total)
		w.line("fromwire_pad(&cursor, &plen, %d);", total)

	case codec.StrategyLenSource:
		w.line("%s %s = fromwire_%s(&cursor, &plen);",
			cType(f.Type), f.Name, helperSuffix(f.Type))

	case codec.StrategyLenArray, codec.StrategyTlv:
		span := f.LenField
		if !f.IsTlv() && f.Type.Width != 1 {
			w.line("printwire_hex(\"%s\", cursor, plen, %s * %d);", f.Name, span, f.Type.Width)
			w.line("fromwire_pad(&cursor, &plen, %s * %d);", span, f.Type.Width)
			return
		}
		w.line("printwire_hex(\"%s\", cursor, plen, %s);", f.Name, span)
		w.line("fromwire_pad(&cursor, &plen, %s);", span)

	case codec.StrategyOptional:
		w.line("if (fromwire_bool(&cursor, &plen)) {")
		if f.Type.Kind == schema.KindUint {
			w.line("printf(\"%s=%%\"PRIu64\"\\n\", (u64)fromwire_%s(&cursor, &plen));",
				f.Name, helperSuffix(f.Type))
		} else {
			w.line("printwire_hex(\"%s\", cursor, plen, %d);", f.Name, f.Type.Width)
			w.line("fromwire_pad(&cursor, &plen, %d);", f.Type.Width)
		}
		w.line("} else {")
		w.line("printf(\"%s=(absent)\\n\");", f.Name)
		w.line("}")
	}
}

// genPrintDispatch peeks the discriminant and routes to the per-message
// printer.
func genPrintDispatch(w *writer, s *schema.Schema, cfg *Config) {
	w.line("void printwire_%s(const u8 *msg)", cfg.enumName())
	w.line("{")
	w.line("const u8 *cursor = msg;")
	w.line("size_t plen = tal_count(msg);")
	w.line("u16 type = fromwire_u16(&cursor, &plen);")
	w.blank()
	w.line("switch ((enum %s)type) {", cfg.enumName())
	for _, m := range s.Messages {
		w.line("case %s:", m.Tag.Name)
		w.line("\tprintf(\"%s:\\n\");", m.Tag.Name)
		w.line("\tprintwire_%s(cursor, plen);", m.Name)
		w.line("\treturn;")
	}
	w.line("}")
	w.blank()
	w.line("printf(\"UNKNOWN TYPE %%u\\n\", type);")
	w.line("}")
}
