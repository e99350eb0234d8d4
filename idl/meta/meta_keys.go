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

package meta

import (
	"fmt"
	"strings"
)

// MaxKeySize is the largest key that fits the fixed-size key hash.
const MaxKeySize = 16

// KeySize is the serialized size of a key, or Unbounded when it can vary.
type KeySize struct {
	N         uint64
	Unbounded bool
}

func (k KeySize) String() string {
	if k.Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", k.N)
}

func (k KeySize) add(other KeySize) KeySize {
	if k.Unbounded || other.Unbounded {
		return KeySize{Unbounded: true}
	}
	return KeySize{N: k.N + other.N}
}

// IsFixed reports whether the key fits MaxKeySize.
func (k KeySize) IsFixed() bool {
	return !k.Unbounded && k.N > 0 && k.N <= MaxKeySize
}

func KeySizeOf(t Type) KeySize {
	switch t := t.(type) {
	case *Basic:
		return basicTable[t.Kind].keySize
	case *Enum:
		return KeySize{N: 4}
	case *BoundedString, *Sequence, *Union:
		return KeySize{Unbounded: true}
	case *Array:
		elem := KeySizeOf(t.Elem)
		if elem.Unbounded {
			return elem
		}
		return KeySize{N: elem.N * t.Count()}
	case *Struct:
		var out KeySize
		haveKey := false
		for _, member := range t.Members {
			if !member.Key {
				continue
			}
			haveKey = true
			out = out.add(KeySizeOf(member.Type))
		}
		if !haveKey {
			return KeySize{Unbounded: true}
		}
		return out
	case *Alias:
		return KeySizeOf(t.Referent)
	}
	panic(fmt.Sprintf("meta.KeySizeOf: unknown type %T", t))
}

// MarkKey flags the member at a dotted path as part of the key. Every
// member along the path is flagged, and when the path ends at a struct
// all of its members are flagged too. The result is the instruction
// offset of the final member within s's program.
func MarkKey(s *Struct, path string) (int, error) {
	offset := 0
	current := s
	segments := strings.Split(path, ".")
	for ii, segment := range segments {
		if current == nil {
			return 0, fmt.Errorf("key %q: %q is not a struct", path, strings.Join(segments[:ii], "."))
		}
		var found *Member
		for _, member := range current.Members {
			if member.Name == segment {
				found = member
				break
			}
			offset += WordCount(member.Type)
		}
		if found == nil {
			return 0, fmt.Errorf("key %q: no member named %q", path, segment)
		}
		found.Key = true
		current, _ = Deref(found.Type).(*Struct)
		if ii == len(segments)-1 && current != nil {
			markAll(current)
		}
	}
	return offset, nil
}

func markAll(s *Struct) {
	for _, member := range s.Members {
		member.Key = true
		if nested, ok := Deref(member.Type).(*Struct); ok {
			markAll(nested)
		}
	}
}

// IsUnoptimizable reports whether values of s cannot be copied as a flat
// memory block.
func IsUnoptimizable(s *Struct) bool {
	for _, member := range s.Members {
		if isUnoptimizableMember(member.Type) {
			return true
		}
	}
	return false
}

func isUnoptimizableMember(t Type) bool {
	if AlignmentOf(t) == Alignment_POINTER {
		return true
	}
	switch t := Deref(t).(type) {
	case *Union, *BoundedString:
		return true
	case *Struct:
		return IsUnoptimizable(t)
	case *Array:
		return isUnoptimizableMember(t.Elem)
	}
	return false
}

type TopicFlags uint32

const (
	TopicFlag_NO_OPTIMIZE TopicFlags = 1 << 0
	TopicFlag_FIXED_KEY   TopicFlags = 1 << 1
)

func (f TopicFlags) String() string {
	var flags []string
	if f&TopicFlag_NO_OPTIMIZE != 0 {
		flags = append(flags, "DDS_TOPIC_NO_OPTIMIZE")
	}
	if f&TopicFlag_FIXED_KEY != 0 {
		flags = append(flags, "DDS_TOPIC_FIXED_KEY")
	}
	if len(flags) == 0 {
		return "0u"
	}
	return strings.Join(flags, " | ")
}

func TopicFlagsOf(s *Struct) TopicFlags {
	var flags TopicFlags
	if IsUnoptimizable(s) {
		flags |= TopicFlag_NO_OPTIMIZE
	}
	if KeySizeOf(s).IsFixed() {
		flags |= TopicFlag_FIXED_KEY
	}
	return flags
}
