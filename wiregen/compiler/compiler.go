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

// Package compiler builds a resolved schema from tokenized records.
//
// Compilation is a single ordered pass. Message records register a name
// and discriminant; field records append to the named message, with the
// field's type either looked up by name or inferred from its byte size.
// Referenced TLV containers are loaded and compiled eagerly, so a
// successful result is fully resolved and generation cannot fail on a
// dangling reference.
package compiler

import (
	"bytes"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/grubles/lightning/wiregen/records"
	"github.com/grubles/lightning/wiregen/schema"
)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	catalog    *Catalog
	inferSizes bool
	includes   fs.FS
}

// WithCatalog sets the type catalog. The default is DefaultCatalog.
func WithCatalog(catalog *Catalog) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.catalog = catalog
	})
}

// WithSizeInference switches the size column's interpretation from
// declared type names to byte counts resolved through the catalog's
// inference tiers.
func WithSizeInference(infer bool) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.inferSizes = infer
	})
}

// WithIncludes sets the filesystem searched for TLV container sources.
func WithIncludes(fsys fs.FS) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.includes = fsys
	})
}

type CompileResult struct {
	Schema *schema.Schema
	Errors []*Error
}

func Compile(recs []records.Record, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(recs)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	if compileOptions.catalog == nil {
		compileOptions.catalog = DefaultCatalog()
	}
	return compileOptions
}

func (opts *CompileOptions) Compile(recs []records.Record) CompileResult {
	b := &builder{
		opts: opts,
		res:  resolver{cat: opts.catalog},
		out:  &schema.Schema{},
	}
	b.containers = make(map[string]*schema.TlvContainer)
	top := b.newScope("")
	top.addMsg = func(m *schema.MessageSpec) {
		b.out.Messages = append(b.out.Messages, m)
	}
	top.addVariant = func(m *schema.MessageSpec) {
		b.out.Variants = append(b.out.Variants, m)
	}
	b.run(top, recs)
	if len(b.errors) > 0 {
		return CompileResult{Errors: b.errors}
	}
	return CompileResult{Schema: b.out}
}

// TlvFileName returns the source file name for a named TLV container.
func TlvFileName(container string) string {
	return "gen_" + container + "_csv"
}

type builder struct {
	opts *CompileOptions
	res  resolver
	out  *schema.Schema

	// Loaded containers, memoized by name. A failed load memoizes nil so
	// the error is reported once.
	containers map[string]*schema.TlvContainer

	errors []*Error
}

// scope is the declaration namespace a record stream compiles into. The
// top-level stream and each TLV container source get their own scope, so
// container record names and tags never collide with message names.
type scope struct {
	container string
	tagPrefix string

	msgs     map[string]*schema.MessageSpec
	variants map[string]*schema.MessageSpec
	tags     map[uint64]string

	// prevField tracks, per message, the most recent field that did not
	// itself consume a length variable. It is the only field a later
	// length-prefixed field may name as its element count.
	prevField map[string]string

	comments []string

	addMsg     func(*schema.MessageSpec)
	addVariant func(*schema.MessageSpec)
}

func (b *builder) newScope(container string) *scope {
	tagPrefix := "WIRE_"
	if container != "" {
		tagPrefix = "TLV_"
	}
	return &scope{
		container: container,
		tagPrefix: tagPrefix,
		msgs:      make(map[string]*schema.MessageSpec),
		variants:  make(map[string]*schema.MessageSpec),
		tags:      make(map[uint64]string),
		prevField: make(map[string]string),
	}
}

func (sc *scope) takeComments() []string {
	comments := sc.comments
	sc.comments = nil
	return comments
}

func (b *builder) err(e *Error) {
	b.errors = append(b.errors, e)
}

func (b *builder) run(sc *scope, recs []records.Record) {
	for i := range recs {
		rec := &recs[i]
		switch rec.Kind {
		case records.KindInclude:
			b.out.Includes = append(b.out.Includes, rec.Text)
		case records.KindComment:
			sc.comments = append(sc.comments, rec.Text)
		case records.KindMessage:
			b.message(sc, rec)
		case records.KindField:
			b.field(sc, rec)
		}
	}
}

func (b *builder) message(sc *scope, rec *records.Record) {
	value, err := strconv.ParseUint(rec.Value, 0, 64)
	if err != nil || value > math.MaxUint16 {
		b.err(errDiscriminantValue(rec.Message, rec.Value, rec.Line))
		return
	}
	if _, dup := sc.msgs[rec.Message]; dup {
		b.err(errDuplicateMessage(rec.Message, rec.Line))
		return
	}
	if prev, dup := sc.tags[value]; dup {
		b.err(errDuplicateDiscriminant(value, rec.Message, prev, rec.Line))
		return
	}
	m := &schema.MessageSpec{
		Name: rec.Message,
		Tag: schema.EnumTag{
			Name:  sc.tagPrefix + strings.ToUpper(rec.Message),
			Value: value,
		},
		Comments:    sc.takeComments(),
		IsTlvRecord: sc.container != "",
	}
	sc.msgs[rec.Message] = m
	sc.tags[value] = rec.Message
	sc.addMsg(m)
}

func (b *builder) field(sc *scope, rec *records.Record) {
	var m *schema.MessageSpec
	if rec.Variant != "" {
		m = b.variantOf(sc, rec)
	} else {
		m = sc.msgs[rec.Message]
		if m == nil {
			b.err(errUnknownMessage(rec.Message, rec.Line))
			return
		}
	}
	if m == nil {
		return
	}
	f, ok := b.buildField(sc, m, rec)
	if !ok {
		return
	}
	m.Fields = append(m.Fields, f)
	if f.Role != schema.RoleLengthPrefixed {
		sc.prevField[m.Name] = f.Name
	}
}

// variantOf returns the option variant the record targets, cloning it from
// the base message on first use. Variants share the base discriminant.
func (b *builder) variantOf(sc *scope, rec *records.Record) *schema.MessageSpec {
	base := sc.msgs[rec.Message]
	if base == nil {
		b.err(errUnknownMessage(rec.Message, rec.Line))
		return nil
	}
	name := rec.Message + "_" + strings.ReplaceAll(rec.Variant, "-", "_")
	if v, ok := sc.variants[name]; ok {
		return v
	}
	v := &schema.MessageSpec{
		Name:        name,
		Tag:         base.Tag,
		Comments:    base.Comments,
		Fields:      append([]schema.FieldSpec(nil), base.Fields...),
		HasVariable: base.HasVariable,
		IsTlvRecord: base.IsTlvRecord,
	}
	sc.variants[name] = v
	sc.prevField[name] = sc.prevField[rec.Message]
	sc.addVariant(v)
	return v
}

func (b *builder) buildField(sc *scope, m *schema.MessageSpec, rec *records.Record) (schema.FieldSpec, bool) {
	f := schema.FieldSpec{
		Name:     rec.Field,
		Comments: sc.takeComments(),
		Count:    1,
	}

	if tlvName, isTlv := strings.CutSuffix(f.Name, "+"); isTlv {
		f.Name = tlvName
		if sc.container != "" {
			b.err(errNestedTlv(sc.container, m.Name, f.Name, rec.Line))
			return f, false
		}
		f.Tlv = tlvName
		b.container(tlvName, rec.Line)
	}

	sizeTok := rec.Size
	optional := false
	if rest, ok := strings.CutPrefix(sizeTok, "?"); ok {
		if sc.container != "" {
			b.err(errOptionalInTlv(sc.container, m.Name, f.Name, rec.Line))
			return f, false
		}
		optional = true
		sizeTok = rest
	}
	prev := sc.prevField[m.Name]

	switch {
	case strings.Contains(sizeTok, "*"):
		countTok, elemTok, _ := strings.Cut(sizeTok, "*")
		if countTok == prev && prev != "" {
			f.Role = schema.RoleLengthPrefixed
			f.LenField = countTok
		} else if n, err := strconv.Atoi(countTok); err == nil && n >= 0 {
			f.Count = n
		} else {
			b.err(errBadArrayCount(m.Name, f.Name, countTok, rec.Line))
			return f, false
		}
		sizeTok = elemTok

	case b.opts.inferSizes && sizeTok == prev && prev != "":
		// A bare reference to the preceding field is shorthand for a
		// length-prefixed run of single bytes.
		f.Role = schema.RoleLengthPrefixed
		f.LenField = sizeTok
		sizeTok = "1"
	}

	if !b.resolveType(sc, m, &f, sizeTok, rec.Line) {
		return f, false
	}

	if f.Type.Kind == schema.KindPad {
		f.Role = schema.RolePadding
	}
	if optional {
		if f.Role != schema.RoleFixed || f.Count != 1 {
			b.err(errOptionalArray(m.Name, f.Name, rec.Line))
			return f, false
		}
		f.Role = schema.RoleOptional
	}
	if f.Role == schema.RoleFixed && f.Count != 1 {
		f.Role = schema.RoleFixedArray
	}
	if f.IsTlv() && f.Role != schema.RoleLengthPrefixed {
		b.err(errTlvNotLengthPrefixed(m.Name, f.Name, rec.Line))
		return f, false
	}

	if f.Role == schema.RoleLengthPrefixed {
		if !b.checkLenField(sc, m, &f, rec.Line) {
			return f, false
		}
		m.HasVariable = true
	}
	if f.Role == schema.RoleOptional || f.Type.NeedsAlloc {
		m.HasVariable = true
	}
	return f, true
}

// resolveType fills in f.Type from the remaining size token. In inference
// mode the token is a byte count; a fixed field spanning several elements
// of the inferred type becomes an array of them.
func (b *builder) resolveType(sc *scope, m *schema.MessageSpec, f *schema.FieldSpec, sizeTok string, line int) bool {
	if !b.opts.inferSizes {
		t, cerr := b.res.explicit(m.Name, f.Name, sizeTok, line)
		if cerr != nil {
			b.err(cerr)
			return false
		}
		f.Type = t
		return true
	}

	n, err := strconv.Atoi(sizeTok)
	if err != nil || n < 0 {
		b.err(errMalformedSize(m.Name, f.Name, sizeTok, line))
		return false
	}
	t, cerr := b.res.infer(m.Name, f.Name, n, line)
	if cerr != nil {
		b.err(cerr)
		return false
	}
	f.Type = t
	if t.Width <= 0 || n%t.Width != 0 {
		b.err(errInvalidFieldSize(m.Name, f.Name, n, t.Width, line))
		return false
	}
	if f.Role != schema.RoleLengthPrefixed {
		f.Count *= n / t.Width
	}
	return true
}

// checkLenField validates and marks the length variable a length-prefixed
// field names. It must be a plain fixed scalar declared earlier in the
// same message. Inferred schemas additionally pin it to u16, the width
// every known wire format uses for counts.
func (b *builder) checkLenField(sc *scope, m *schema.MessageSpec, f *schema.FieldSpec, line int) bool {
	lv := m.Field(f.LenField)
	if lv == nil {
		b.err(errUnknownLenVar(m.Name, f.Name, f.LenField, line))
		return false
	}
	if lv.Role != schema.RoleFixed || lv.Count != 1 {
		b.err(errNonSimpleLenVar(m.Name, f.Name, f.LenField, line))
		return false
	}
	if b.opts.inferSizes {
		if lv.Type.Name != "u16" {
			b.err(errLenVarWidth(m.Name, f.Name, f.LenField, lv.Type.Name, line))
			return false
		}
	} else if lv.Type.Kind != schema.KindUint {
		b.err(errLenVarNotInteger(m.Name, f.Name, f.LenField, lv.Type.Name, line))
		return false
	}
	lv.IsLenSource = true
	lv.LenFor = f.Name
	return true
}

// container loads and compiles a named TLV container, memoized so a
// container shared by several messages compiles once.
func (b *builder) container(name string, line int) *schema.TlvContainer {
	if c, loaded := b.containers[name]; loaded {
		return c
	}
	b.containers[name] = nil
	if b.opts.includes == nil {
		b.err(errTlvNoResolver(name, line))
		return nil
	}
	src, err := fs.ReadFile(b.opts.includes, TlvFileName(name))
	if err != nil {
		b.err(errTlvLoad(name, err, line))
		return nil
	}
	recs, err := records.Parse(bytes.NewReader(src))
	if err != nil {
		b.err(errTlvLoad(name, err, line))
		return nil
	}

	c := &schema.TlvContainer{Name: name}
	sub := b.newScope(name)
	sub.addMsg = func(m *schema.MessageSpec) {
		c.Records = append(c.Records, m)
	}
	sub.addVariant = func(m *schema.MessageSpec) {
		b.out.Variants = append(b.out.Variants, m)
	}
	b.run(sub, recs)

	b.containers[name] = c
	b.out.Containers = append(b.out.Containers, c)
	return c
}
