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
)

// Alignment is the natural alignment of a type. Some values are only known
// to the C compiler and are rendered as expressions.
type Alignment uint8

const (
	Alignment_ONE Alignment = iota
	Alignment_BOOL
	Alignment_ONE_OR_BOOL
	Alignment_TWO
	Alignment_TWO_OR_BOOL
	Alignment_FOUR
	Alignment_POINTER
	Alignment_EIGHT
)

const (
	alignHasOne uint8 = 1 << iota
	alignHasTwo
	alignHasBool
)

func (a Alignment) String() string {
	switch a {
	case Alignment_ONE:
		return "ONE"
	case Alignment_BOOL:
		return "BOOL"
	case Alignment_ONE_OR_BOOL:
		return "ONE_OR_BOOL"
	case Alignment_TWO:
		return "TWO"
	case Alignment_TWO_OR_BOOL:
		return "TWO_OR_BOOL"
	case Alignment_FOUR:
		return "FOUR"
	case Alignment_POINTER:
		return "POINTER"
	case Alignment_EIGHT:
		return "EIGHT"
	}
	return fmt.Sprintf("Alignment(%d)", uint8(a))
}

// Rank orders alignments for Maximum. ONE and BOOL share rank 0.
func (a Alignment) Rank() int {
	switch a {
	case Alignment_ONE, Alignment_BOOL:
		return 0
	case Alignment_ONE_OR_BOOL:
		return 1
	case Alignment_TWO:
		return 2
	case Alignment_TWO_OR_BOOL:
		return 3
	case Alignment_FOUR:
		return 4
	case Alignment_POINTER:
		return 6
	case Alignment_EIGHT:
		return 8
	}
	panic(fmt.Sprintf("meta.Alignment.Rank: unknown alignment %d", uint8(a)))
}

// IsDeferred reports whether the value depends on the C compiler.
func (a Alignment) IsDeferred() bool {
	switch a {
	case Alignment_BOOL, Alignment_ONE_OR_BOOL, Alignment_TWO_OR_BOOL, Alignment_POINTER:
		return true
	}
	return false
}

// Value renders the alignment as a C expression.
func (a Alignment) Value() string {
	switch a {
	case Alignment_ONE:
		return "1"
	case Alignment_TWO:
		return "2"
	case Alignment_FOUR:
		return "4"
	case Alignment_EIGHT:
		return "8"
	case Alignment_BOOL:
		return "sizeof (bool)"
	case Alignment_ONE_OR_BOOL:
		return "(sizeof (bool) > 1u) ? sizeof (bool) : 1u"
	case Alignment_TWO_OR_BOOL:
		return "(sizeof (bool) > 2u) ? sizeof (bool) : 2u"
	case Alignment_POINTER:
		return "sizeof (char *)"
	}
	panic(fmt.Sprintf("meta.Alignment.Value: unknown alignment %d", uint8(a)))
}

func (a Alignment) smallParts() (uint8, bool) {
	switch a {
	case Alignment_ONE:
		return alignHasOne, true
	case Alignment_BOOL:
		return alignHasBool, true
	case Alignment_ONE_OR_BOOL:
		return alignHasOne | alignHasBool, true
	case Alignment_TWO:
		return alignHasTwo, true
	case Alignment_TWO_OR_BOOL:
		return alignHasTwo | alignHasBool, true
	}
	return 0, false
}

func fromSmallParts(parts uint8) Alignment {
	hasBool := parts&alignHasBool != 0
	switch {
	case parts&alignHasTwo != 0 && hasBool:
		return Alignment_TWO_OR_BOOL
	case parts&alignHasTwo != 0:
		return Alignment_TWO
	case parts&alignHasOne != 0 && hasBool:
		return Alignment_ONE_OR_BOOL
	case hasBool:
		return Alignment_BOOL
	}
	return Alignment_ONE
}

// Maximum combines two alignments. Combinations of bool with alignments of
// at most two bytes stay symbolic; everything else picks the higher rank.
func Maximum(a, b Alignment) Alignment {
	aParts, aSmall := a.smallParts()
	bParts, bSmall := b.smallParts()
	if aSmall && bSmall {
		return fromSmallParts(aParts | bParts)
	}
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Fold is the Maximum of all alignments, starting from ONE.
func Fold(alignments ...Alignment) Alignment {
	out := Alignment_ONE
	for _, a := range alignments {
		out = Maximum(out, a)
	}
	return out
}

func AlignmentOf(t Type) Alignment {
	switch t := t.(type) {
	case *Basic:
		return basicTable[t.Kind].alignment
	case *BoundedString:
		return Alignment_ONE
	case *Array:
		return AlignmentOf(t.Elem)
	case *Sequence:
		return Alignment_POINTER
	case *Struct:
		out := Alignment_ONE
		for _, member := range t.Members {
			out = Maximum(out, AlignmentOf(member.Type))
		}
		return out
	case *Union:
		out := Maximum(Alignment_ONE, AlignmentOf(t.Discriminant))
		for _, unionCase := range t.Cases {
			out = Maximum(out, AlignmentOf(unionCase.Member.Type))
		}
		return out
	case *Enum:
		return Alignment_FOUR
	case *Alias:
		return AlignmentOf(t.Referent)
	}
	panic(fmt.Sprintf("meta.AlignmentOf: unknown type %T", t))
}
