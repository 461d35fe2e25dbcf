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
	stdflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	wiregenCmd := &cobra.Command{
		Use: "wiregen [options] COMMAND",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	wiregenCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, wiregenCmd.UsageString())
		os.Exit(1)
		return nil
	}

	generate := &cmdGenerate{}
	generateCmd := &cobra.Command{
		Use:   "generate [flags] CSV...",
		Short: "Compile message schemas and emit C wire code",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(generate.run(ctx, args))
			return nil
		},
	}
	generate.flags(generateCmd.Flags())
	wiregenCmd.AddCommand(generateCmd)

	check := &cmdCheck{}
	checkCmd := &cobra.Command{
		Use:   "check [flags] CSV...",
		Short: "Compile message schemas and report diagnostics",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(check.run(ctx, args))
			return nil
		},
	}
	check.flags(checkCmd.Flags())
	wiregenCmd.AddCommand(checkCmd)

	wiregenCmd.Flags().AddGoFlagSet(stdflag.CommandLine)
	wiregenCmd.ParseFlags(nil)
	if _, err := wiregenCmd.ExecuteC(); err != nil {
		os.Exit(1)
	}
}
