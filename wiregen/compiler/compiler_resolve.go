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
	"strings"

	"github.com/grubles/lightning/wiregen/schema"
)

// resolver maps size tokens to concrete TypeSpecs using the catalog.
type resolver struct {
	cat *Catalog
}

// explicit resolves a declared type token by identity lookup. Unknown
// "struct X" and "enum X" names resolve to width-0 opaque types rather
// than failing, permitting forward references to aggregates the catalog
// has not seen.
func (r *resolver) explicit(msg, field, token string, line int) (schema.TypeSpec, *Error) {
	if t, ok := r.cat.Type(token); ok {
		return t, nil
	}
	if strings.HasPrefix(token, "struct ") {
		return schema.TypeSpec{Name: token, Kind: schema.KindStruct}, nil
	}
	if strings.HasPrefix(token, "enum ") {
		return schema.TypeSpec{Name: token, Kind: schema.KindEnum}, nil
	}
	return schema.TypeSpec{}, errUnknownType(msg, field, token, line)
}

// infer guesses a field's type from its byte count. The tiers are checked
// in strict priority order: an exact (message, field) override always
// beats a name-fragment match, which always beats a bare size default.
func (r *resolver) infer(msg, field string, size, line int) (schema.TypeSpec, *Error) {
	for _, rule := range r.cat.overrides {
		if rule.Message == msg && rule.Field == field {
			return r.lookup(msg, field, rule.Type, line)
		}
	}
	for _, rule := range r.cat.partials {
		if strings.Contains(field, rule.Match) {
			return r.lookup(msg, field, rule.Type, line)
		}
	}
	for _, rule := range r.cat.sizes {
		if rule.Size == size {
			return r.lookup(msg, field, rule.Type, line)
		}
	}
	return schema.TypeSpec{}, errUnknownSize(msg, field, size, line)
}

func (r *resolver) lookup(msg, field, name string, line int) (schema.TypeSpec, *Error) {
	if t, ok := r.cat.Type(name); ok {
		return t, nil
	}
	return schema.TypeSpec{}, errUnknownType(msg, field, name, line)
}
