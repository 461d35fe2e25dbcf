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
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/grubles/lightning/wiregen/compiler"
	"github.com/grubles/lightning/wiregen/records"
)

// compileFlags holds the options shared by every command that runs the
// schema compiler.
type compileFlags struct {
	inferSizes  bool
	includeDir  string
	typemapPath string
	verbose     bool
}

func (cf *compileFlags) register(flags *pflag.FlagSet) {
	flags.BoolVar(&cf.inferSizes, "infer-sizes", true, "infer field types from numeric sizes")
	flags.StringVar(&cf.includeDir, "include-dir", ".", "directory searched for TLV record schemas")
	flags.StringVar(&cf.typemapPath, "typemap", "", "YAML file extending the built-in type catalog")
	flags.BoolVarP(&cf.verbose, "verbose", "v", false, "enable debug tracing")
}

func (cf *compileFlags) logger() zerolog.Logger {
	level := zerolog.Disabled
	if cf.verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func (cf *compileFlags) options() ([]compiler.CompileOption, error) {
	opts := []compiler.CompileOption{
		compiler.WithSizeInference(cf.inferSizes),
		compiler.WithIncludes(os.DirFS(cf.includeDir)),
	}
	if cf.typemapPath != "" {
		catalog, err := compiler.LoadCatalog(cf.typemapPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, compiler.WithCatalog(catalog))
	}
	return opts, nil
}

func parseSources(log zerolog.Logger, paths []string) ([]records.Record, error) {
	var recs []records.Record
	for _, path := range paths {
		fp, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		parsed, err := records.Parse(fp)
		closeErr := fp.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if closeErr != nil {
			return nil, closeErr
		}
		log.Debug().Str("file", path).Int("records", len(parsed)).Msg("parsed schema source")
		recs = append(recs, parsed...)
	}
	return recs, nil
}

var errColor = color.New(color.FgRed)

func reportErrors(errs []*compiler.Error) {
	for _, err := range errs {
		errColor.Fprintln(os.Stderr, err.Error())
	}
}
