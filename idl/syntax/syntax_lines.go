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

package syntax

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/shlex"
)

type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

type lineEntry struct {
	offset uint32
	file   string
	line   int
}

// LineMap translates byte offsets into source positions, honouring the
// `# <line> "<file>"` markers written by a C preprocessor.
type LineMap struct {
	entries []lineEntry
}

func NewLineMap(filename string, src []byte) *LineMap {
	lm := &LineMap{}
	file := filename
	line := 1
	var offset uint32
	for len(src) > 0 {
		end := bytes.IndexByte(src, '\n')
		var text []byte
		if end < 0 {
			text = src
			src = nil
		} else {
			text = src[:end]
			src = src[end+1:]
		}
		lm.entries = append(lm.entries, lineEntry{offset, file, line})
		offset += uint32(len(text))
		if end >= 0 {
			offset++
		}
		line++
		if markerLine, markerFile, ok := parseLineMarker(text); ok {
			line = markerLine
			if markerFile != "" {
				file = markerFile
			}
		}
	}
	if len(lm.entries) == 0 {
		lm.entries = append(lm.entries, lineEntry{0, file, 1})
	}
	return lm
}

func parseLineMarker(text []byte) (int, string, bool) {
	text = bytes.TrimLeft(text, " \t")
	if len(text) == 0 || text[0] != '#' {
		return 0, "", false
	}
	text = bytes.TrimLeft(text[1:], " \t")
	text = bytes.TrimPrefix(text, []byte("line"))
	fields, err := shlex.Split(string(text))
	if err != nil || len(fields) == 0 {
		return 0, "", false
	}
	line, err := strconv.Atoi(fields[0])
	if err != nil || line < 0 {
		return 0, "", false
	}
	var file string
	if len(fields) > 1 {
		file = fields[1]
	}
	return line, file, true
}

func (lm *LineMap) Position(offset uint32) Position {
	idx := sort.Search(len(lm.entries), func(ii int) bool {
		return lm.entries[ii].offset > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	entry := lm.entries[idx]
	return Position{
		File:   entry.file,
		Line:   entry.line,
		Column: int(offset-entry.offset) + 1,
	}
}

func (lm *LineMap) SpanPosition(span Span) Position {
	return lm.Position(span.Start())
}
