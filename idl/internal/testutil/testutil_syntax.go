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

package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

func MustParse(t *testing.T, src string) *syntax.Specification {
	t.Helper()
	spec, err := syntax.Parse([]byte(src), syntax.WithTrivia(false))
	if err != nil {
		t.Fatalf("syntax.Parse(%q): %v", src, err)
	}
	return spec
}

// DumpTree renders the node tree as indented lines of node type names,
// with the source text of leaves.
func DumpTree(node syntax.Node) string {
	var buf strings.Builder
	dumpTree(&buf, node, 0)
	return buf.String()
}

func dumpTree(buf *strings.Builder, node syntax.Node, indent int) {
	name := strings.TrimPrefix(fmt.Sprintf("%T", node), "*syntax.")
	buf.WriteString(strings.Repeat("    ", indent))
	buf.WriteString(name)

	hasChildren := false
	for range node.ChildNodes() {
		hasChildren = true
		break
	}
	if !hasChildren {
		fmt.Fprintf(buf, " %q", syntax.Unparse(node))
	}
	buf.WriteString("\n")
	for child := range node.ChildNodes() {
		dumpTree(buf, child, indent+1)
	}
}
