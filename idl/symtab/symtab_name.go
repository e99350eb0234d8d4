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

package symtab

import (
	"slices"
	"strings"
)

// ScopedName is an ordered identifier path such as `M::S::x`.
//
// The zero value is the empty (global) scope.
type ScopedName struct {
	components []string
}

func NewScopedName(components ...string) ScopedName {
	return ScopedName{components: slices.Clone(components)}
}

// ParseScopedName splits a `::`-separated name. The second return value
// reports whether the name was written fully qualified (leading `::`).
func ParseScopedName(name string) (ScopedName, bool) {
	absolute := strings.HasPrefix(name, "::")
	name = strings.TrimPrefix(name, "::")
	if name == "" {
		return ScopedName{}, absolute
	}
	return ScopedName{components: strings.Split(name, "::")}, absolute
}

func (n ScopedName) Len() int {
	return len(n.components)
}

func (n ScopedName) IsEmpty() bool {
	return len(n.components) == 0
}

func (n ScopedName) Components() []string {
	return slices.Clone(n.components)
}

func (n ScopedName) Clone() ScopedName {
	return ScopedName{components: slices.Clone(n.components)}
}

func (n *ScopedName) Append(component string) {
	n.components = append(slices.Clip(n.components), component)
}

// Pop removes the last component and returns it. Popping an empty name
// returns "".
func (n *ScopedName) Pop() string {
	if len(n.components) == 0 {
		return ""
	}
	last := n.components[len(n.components)-1]
	n.components = n.components[:len(n.components)-1]
	return last
}

// Concat returns a new name made of n's components followed by other's.
func (n ScopedName) Concat(other ScopedName) ScopedName {
	out := make([]string, 0, len(n.components)+len(other.components))
	out = append(out, n.components...)
	out = append(out, other.components...)
	return ScopedName{components: out}
}

// Child returns n with one more component.
func (n ScopedName) Child(component string) ScopedName {
	return n.Concat(ScopedName{components: []string{component}})
}

// IsParentOf reports whether n is a strict prefix of other.
func (n ScopedName) IsParentOf(other ScopedName) bool {
	if len(n.components) >= len(other.components) {
		return false
	}
	return slices.Equal(n.components, other.components[:len(n.components)])
}

func (n ScopedName) Leaf() string {
	if len(n.components) == 0 {
		return ""
	}
	return n.components[len(n.components)-1]
}

func (n ScopedName) Path() ScopedName {
	if len(n.components) == 0 {
		return ScopedName{}
	}
	return ScopedName{components: slices.Clone(n.components[:len(n.components)-1])}
}

func (n ScopedName) Equal(other ScopedName) bool {
	return slices.Equal(n.components, other.components)
}

// Compare orders names component by component. A name sorts before any
// longer name it is a prefix of.
func (n ScopedName) Compare(other ScopedName) int {
	return slices.Compare(n.components, other.components)
}

func (n ScopedName) String() string {
	return strings.Join(n.components, "::")
}

// CName is the identifier the C language binding uses for the name.
func (n ScopedName) CName() string {
	return strings.Join(n.components, "_")
}

// XMLName is the fully qualified form used in metadata descriptors.
func (n ScopedName) XMLName() string {
	return "::" + n.String()
}

func (n ScopedName) key() string {
	return strings.Join(n.components, "\x00")
}
