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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"go.uber.org/multierr"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

type diagnostic interface {
	Span() syntax.Span
}

// formatDiagnostic prefixes a diagnostic with the source position of its
// span.
func formatDiagnostic(lines *syntax.LineMap, diag diagnostic) string {
	return fmt.Sprintf("%v: %v", lines.SpanPosition(diag.Span()), diag)
}

// compileFile parses and compiles the IDL file at path, printing every
// diagnostic to stderr. The result is nil if the file could not be read
// or parsed, or if compilation reported errors.
func compileFile(stderr io.Writer, path string, s settings, checkOnly bool) *compiler.Result {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil
	}
	lines := syntax.NewLineMap(path, src)

	glog.V(1).Infof("parsing %s (%d bytes)", path, len(src))
	parsed, err := syntax.Parse(src)
	if err != nil {
		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			fmt.Fprintln(stderr, formatDiagnostic(lines, syntaxErr))
		} else {
			fmt.Fprintln(stderr, err)
		}
		return nil
	}

	opts := compiler.NewCompileOptions(s.compileOptions()...)
	var result *compiler.Result
	if checkOnly {
		glog.V(1).Infof("checking %s", path)
		result = opts.Check(parsed)
	} else {
		glog.V(1).Infof("compiling %s with %v", path, s.names())
		result = opts.Compile(parsed)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(stderr, formatDiagnostic(lines, warning))
	}
	for _, err := range result.Errors {
		fmt.Fprintln(stderr, formatDiagnostic(lines, err))
	}
	if len(result.Errors) > 0 {
		return nil
	}
	glog.V(1).Infof("%s: %d topics", path, len(result.Topics))
	return result
}

// writeOutput writes data to path, or to stdout if path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(path, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.Write(data)
	return multierr.Append(writeErr, fp.Close())
}

// outputPath joins a plugin-provided relative path onto outDir. Paths that
// could escape outDir are rejected.
func outputPath(outDir string, file *ddsbin.OutputFile) (string, error) {
	parts := file.Path
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid output path %q: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid output path %q: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("invalid output path %q: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid output path %q: component %q contains a path separator", parts, part)
		}
	}
	return filepath.Join(append([]string{outDir}, parts...)...), nil
}
