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

// Package c99 renders topic descriptors as C source.
package c99

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
)

//go:embed templates/*.tmpl
var templates embed.FS

var tmpls = template.Must(
	template.New("C99").
		Funcs(template.FuncMap{"cString": cString}).
		ParseFS(templates, "templates/*.tmpl"),
)

type fileData struct {
	FileName   string
	Source     string
	Guard      string
	HeaderName string
	Types      []*ddsbin.TypeDecl
	Topics     []*ddsbin.Descriptor
}

// Render produces a header and a source file named after the request's
// IDL file.
func Render(req *ddsbin.Request) ([]*ddsbin.OutputFile, error) {
	base := strings.TrimSuffix(path.Base(req.Source), path.Ext(req.Source))
	if base == "" || base == "." || base == "/" {
		return nil, fmt.Errorf("c99: cannot derive output name from %q", req.Source)
	}
	data := fileData{
		Source:     req.Source,
		Guard:      guard(base),
		HeaderName: base + ".h",
		Types:      req.Types,
		Topics:     req.Topics,
	}

	var out []*ddsbin.OutputFile
	for _, file := range []struct {
		name     string
		template string
	}{
		{base + ".h", "Header"},
		{base + ".c", "Source"},
	} {
		data.FileName = file.name
		var buf bytes.Buffer
		if err := tmpls.ExecuteTemplate(&buf, file.template, data); err != nil {
			return nil, fmt.Errorf("c99: rendering %s: %w", file.name, err)
		}
		out = append(out, &ddsbin.OutputFile{
			Path:    []string{file.name},
			Content: buf.Bytes(),
		})
	}
	return out, nil
}

func guard(base string) string {
	var buf strings.Builder
	buf.WriteString("_DDSL_")
	for _, c := range strings.ToUpper(base) {
		if ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			buf.WriteRune(c)
		} else {
			buf.WriteByte('_')
		}
	}
	buf.WriteString("_H_")
	return buf.String()
}

// cString quotes s as a C string literal. An empty string renders as NULL.
func cString(s string) string {
	if s == "" {
		return "NULL"
	}
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range []byte(s) {
		switch {
		case c == '"' || c == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case c == '\n':
			buf.WriteString("\\n")
		case c < 0x20 || c >= 0x7F:
			fmt.Fprintf(&buf, "\\%03o", c)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
