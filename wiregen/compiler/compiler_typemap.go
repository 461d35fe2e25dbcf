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
	"maps"
	"os"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/grubles/lightning/wiregen/schema"
)

// typemapFile is the YAML shape of a user-supplied catalog extension.
type typemapFile struct {
	Types []struct {
		Name   string `yaml:"name"`
		Kind   string `yaml:"kind"`
		Width  int    `yaml:"width"`
		Varlen bool   `yaml:"varlen"`
	} `yaml:"types"`
	Overrides []struct {
		Message string `yaml:"message"`
		Field   string `yaml:"field"`
		Type    string `yaml:"type"`
	} `yaml:"overrides"`
	Partials []struct {
		Match string `yaml:"match"`
		Type  string `yaml:"type"`
	} `yaml:"partials"`
	Sizes []struct {
		Size int    `yaml:"size"`
		Type string `yaml:"type"`
	} `yaml:"sizes"`
}

// Extend returns a new catalog with the YAML extension applied. User types
// replace built-in entries of the same name; user inference rules are
// consulted before the built-in rules, so the override > partial > size
// tier order is unchanged. The receiver is not modified.
func (cat *Catalog) Extend(src []byte) (*Catalog, error) {
	var file typemapFile
	if err := yaml.Unmarshal(src, &file); err != nil {
		return nil, fmt.Errorf("typemap: %w", err)
	}

	next := &Catalog{
		types:     maps.Clone(cat.types),
		overrides: slices.Clone(cat.overrides),
		partials:  slices.Clone(cat.partials),
		sizes:     slices.Clone(cat.sizes),
	}

	for _, t := range file.Types {
		var kind schema.Kind
		switch t.Kind {
		case "uint":
			kind = schema.KindUint
		case "bool":
			kind = schema.KindBool
		case "", "blob":
			kind = schema.KindBlob
		case "struct":
			kind = schema.KindStruct
		case "enum":
			kind = schema.KindEnum
		default:
			return nil, fmt.Errorf("typemap: type %q has unknown kind %q", t.Name, t.Kind)
		}
		next.types[t.Name] = schema.TypeSpec{
			Name:       t.Name,
			Kind:       kind,
			Width:      t.Width,
			NeedsAlloc: t.Varlen,
		}
	}

	checkType := func(where, name string) error {
		if _, ok := next.types[name]; !ok {
			return fmt.Errorf("typemap: %s references unknown type %q", where, name)
		}
		return nil
	}

	var overrides []OverrideRule
	for _, o := range file.Overrides {
		if err := checkType("override", o.Type); err != nil {
			return nil, err
		}
		overrides = append(overrides, OverrideRule{o.Message, o.Field, o.Type})
	}
	next.overrides = append(overrides, next.overrides...)

	var partials []PartialRule
	for _, p := range file.Partials {
		if err := checkType("partial", p.Type); err != nil {
			return nil, err
		}
		partials = append(partials, PartialRule{p.Match, p.Type})
	}
	next.partials = append(partials, next.partials...)

	var sizes []SizeRule
	for _, s := range file.Sizes {
		if err := checkType("size", s.Type); err != nil {
			return nil, err
		}
		sizes = append(sizes, SizeRule{s.Size, s.Type})
	}
	next.sizes = append(sizes, next.sizes...)

	return next, nil
}

// LoadCatalog returns the default catalog extended by the named YAML
// typemap file.
func LoadCatalog(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("typemap: %w", err)
	}
	return DefaultCatalog().Extend(src)
}
