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

	"github.com/grubles/lightning/wiregen/cgen"
	"github.com/grubles/lightning/wiregen/compiler"
)

type cmdGenerate struct {
	compileFlags

	flavor     string
	enumName   string
	headerFile string
	outPath    string
}

func (cmd *cmdGenerate) flags(flags *pflag.FlagSet) {
	cmd.compileFlags.register(flags)
	flags.StringVar(&cmd.flavor, "flavor", "header", "output flavor: header, impl, print, or print-header")
	flags.StringVar(&cmd.enumName, "enum-name", "", "name of the generated message type enum")
	flags.StringVar(&cmd.headerFile, "header-file", "", "header path used in include guards and #include lines")
	flags.StringVarP(&cmd.outPath, "output", "o", "", "output file (default stdout)")
}

func (cmd *cmdGenerate) run(ctx context.Context, argv []string) int {
	if len(argv) < 1 {
		fmt.Fprintln(os.Stderr, "usage: wiregen generate [flags] CSV...")
		return 1
	}

	var flavor cgen.Flavor
	switch cmd.flavor {
	case "header":
		flavor = cgen.FlavorHeader
	case "impl":
		flavor = cgen.FlavorImpl
	case "print":
		flavor = cgen.FlavorPrint
	case "print-header":
		flavor = cgen.FlavorPrintHeader
	default:
		fmt.Fprintf(os.Stderr, "Unsupported output flavor %q\n", cmd.flavor)
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

	output, err := cgen.Generate(result.Schema, flavor, cgen.Config{
		EnumName:   cmd.enumName,
		HeaderFile: cmd.headerFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if cmd.outPath == "" {
		if _, err := os.Stdout.Write(output); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(cmd.outPath, openFlags, 0o666)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	_, writeErr := fp.Write(output)
	closeErr := fp.Close()
	if writeErr != nil {
		fmt.Fprintln(os.Stderr, writeErr)
		return 1
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
		return 1
	}
	return 0
}
