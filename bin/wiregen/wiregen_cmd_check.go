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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/grubles/lightning/wiregen/compiler"
)

type cmdCheck struct {
	compileFlags
}

func (cmd *cmdCheck) flags(flags *pflag.FlagSet) {
	cmd.compileFlags.register(flags)
}

func (cmd *cmdCheck) run(ctx context.Context, argv []string) int {
	if len(argv) < 1 {
		fmt.Fprintln(os.Stderr, "usage: wiregen check [flags] CSV...")
		return 1
	}

	log := cmd.logger()
	opts, err := cmd.options()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	recs, err := parseSources(log, argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	result := compiler.Compile(recs, opts...)
	if len(result.Errors) > 0 {
		reportErrors(result.Errors)
		return 1
	}
	log.Debug().
		Int("messages", len(result.Schema.Messages)).
		Int("variants", len(result.Schema.Variants)).
		Int("containers", len(result.Schema.Containers)).
		Msg("compiled schema")
	return 0
}
