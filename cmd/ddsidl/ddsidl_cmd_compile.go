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
	"path/filepath"

	"github.com/kr/pretty"
	"github.com/spf13/pflag"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddstext"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
)

type cmdCompile struct {
	compileFlags
	outPath string
	format  string
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile FILE.idl",
		summary: "Compile an IDL file into topic descriptors",
		args:    1,
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	cmd.compileFlags.register(flags)
	flags.StringVarP(&cmd.outPath, "output", "o", "", "output file (default stdout)")
	flags.StringVarP(&cmd.format, "format", "f", "", "output format: text, binary, xml or debug")
}

// outputFormat picks the format from --format, falling back to the
// extension of the output path.
func outputFormat(format, outPath string) (string, error) {
	switch format {
	case "text", "ddstext":
		return "text", nil
	case "bin", "binary", "ddsbin":
		return "binary", nil
	case "xml", "debug":
		return format, nil
	case "":
	default:
		return "", fmt.Errorf("Unsupported output format %q", format)
	}
	switch filepath.Ext(outPath) {
	case ".txt", ".ddstext":
		return "text", nil
	case ".bin", ".ddsbin":
		return "binary", nil
	case ".xml":
		return "xml", nil
	}
	return "", fmt.Errorf("No format selected (choose 'text', 'binary', 'xml' or 'debug')")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	srcPath := argv[0]
	format, err := outputFormat(cmd.format, cmd.outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	s, err := cmd.settings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	result := compileFile(os.Stderr, srcPath, s, false)
	if result == nil {
		return 1
	}

	output, err := encodeResult(result, format, srcPath, s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := writeOutput(cmd.outPath, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func encodeResult(result *compiler.Result, format, srcPath string, s settings) ([]byte, error) {
	switch format {
	case "text":
		return []byte(ddstext.Encode(result.Topics)), nil
	case "binary":
		req, err := ddsbin.NewRequest(srcPath, result)
		if err != nil {
			return nil, err
		}
		req.Options = s.names()
		return ddsbin.EncodeRequest(req)
	case "xml":
		order, err := meta.EmissionOrder(result.Types)
		if err != nil {
			return nil, err
		}
		return []byte(meta.XMLDescriptor(result.Types, order) + "\n"), nil
	case "debug":
		return []byte(pretty.Sprint(result.Topics) + "\n"), nil
	}
	return nil, fmt.Errorf("Unsupported output format %q", format)
}
