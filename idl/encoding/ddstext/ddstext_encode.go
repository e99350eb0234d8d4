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

// Package ddstext renders compiled topics as indented text.
package ddstext

import (
	"fmt"
	"io"
	"strings"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
)

func Encode(topics []*compiler.Topic) string {
	var buf strings.Builder
	EncodeTo(topics, &buf)
	return buf.String()
}

func EncodeTo(topics []*compiler.Topic, w io.Writer) error {
	e := encoder{w: w}
	for _, topic := range topics {
		if e.err != nil {
			break
		}
		e.visitTopic(topic)
	}
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) block(name string, body func()) {
	e.linef("%s {", name)
	e.indent += 1
	body()
	e.indent -= 1
	e.line("}")
}

func (e *encoder) visitTopic(topic *compiler.Topic) {
	e.block("topic", func() {
		e.linef("name = %s", quote(topic.Name.String()))
		e.linef("type_name = %s", quote(topic.Name.CName()))
		e.linef("alignment = .%s", topic.Alignment)
		e.linef("key_size = %s", topic.KeySize)
		e.linef("flags = %s", fmtFlags(topic))
		for _, key := range topic.Keys {
			e.block("key", func() {
				e.linef("name = %s", quote(key.Name))
				e.linef("offset = %d", key.Offset)
			})
		}
		e.line("ops = [")
		e.indent += 1
		for _, op := range topic.Ops {
			e.line(quote(op.String()))
		}
		e.indent -= 1
		e.line("]")
		if topic.XML != "" {
			e.linef("xml = %s", quote(topic.XML))
		}
	})
}

func fmtFlags(topic *compiler.Topic) string {
	if topic.Flags == 0 {
		return "[]"
	}
	var flags []string
	for _, flag := range strings.Split(topic.Flags.String(), " | ") {
		flags = append(flags, "."+strings.TrimPrefix(flag, "DDS_TOPIC_"))
	}
	return "[" + strings.Join(flags, ", ") + "]"
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		if c == '\\' || c == '"' {
			buf.WriteByte('\\')
			buf.WriteRune(c)
			continue
		}
		if c == '\t' {
			buf.WriteString("\\t")
			continue
		}
		if c == '\n' {
			buf.WriteString("\\n")
			continue
		}
		if c < 0x20 || c == 0x7F {
			fmt.Fprintf(&buf, "\\x%02X", c)
			continue
		}
		buf.WriteRune(c)
	}
	buf.WriteByte('"')
	return buf.String()
}
