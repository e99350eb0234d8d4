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

package meta_test

import (
	"testing"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/internal/testutil"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
)

func opStrings(ops []meta.Instruction) []string {
	out := make([]string, len(ops))
	for ii, op := range ops {
		out[ii] = op.String()
	}
	return out
}

// unionU is `union U switch (long) { case 1: long a; case 2: double b; default: long c; };`.
func unionU() *meta.Union {
	u := &meta.Union{Name: name("U"), Discriminant: basic(meta.BasicKind_LONG)}
	u.AddCase("a", basic(meta.BasicKind_LONG), []int64{1}, false)
	u.AddCase("b", basic(meta.BasicKind_DOUBLE), []int64{2}, false)
	u.AddCase("c", basic(meta.BasicKind_LONG), nil, true)
	return u
}

// unionV has cases that need their own subroutines.
func unionV() *meta.Union {
	v := &meta.Union{Name: name("V"), Discriminant: basic(meta.BasicKind_SHORT)}
	v.AddCase("i", innerStruct(), []int64{1}, false)
	v.AddCase("l", basic(meta.BasicKind_LONG), []int64{2}, false)
	v.AddCase("s", newSequence(basic(meta.BasicKind_LONG)), []int64{3}, false)
	return v
}

func TestTopicProgramPoint(t *testing.T) {
	t.Parallel()

	ops := meta.TopicProgram(pointStruct())
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_4BY, offsetof (Point, x)",
		"DDS_OP_ADR | DDS_OP_TYPE_4BY, offsetof (Point, y)",
		"DDS_OP_RTS",
	}, opStrings(ops))
}

func TestTopicProgramKeyed(t *testing.T) {
	t.Parallel()

	s := newStruct("M::K",
		field{"id", basic(meta.BasicKind_LONG)},
		field{"name", basic(meta.BasicKind_STRING)},
	)
	s.Members[0].Key = true
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_4BY | DDS_OP_FLAG_KEY, offsetof (M_K, id)",
		"DDS_OP_ADR | DDS_OP_TYPE_STR, offsetof (M_K, name)",
		"DDS_OP_RTS",
	}, opStrings(meta.TopicProgram(s)))
}

func TestEmitBasicUnion(t *testing.T) {
	t.Parallel()

	ops := meta.Emit(unionU(), meta.Site{Container: "U"})
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_UNI | DDS_OP_SUBTYPE_4BY | DDS_OP_FLAG_DEF, offsetof (U, _d), 3u, 4u",
		"DDS_OP_JEQ | DDS_OP_TYPE_4BY | 0, 1, offsetof (U, _u.a)",
		"DDS_OP_JEQ | DDS_OP_TYPE_8BY | 0, 2, offsetof (U, _u.b)",
		"DDS_OP_JEQ | DDS_OP_TYPE_4BY | 0, 0, offsetof (U, _u.c)",
	}, opStrings(ops))
}

func TestEmitCompositeUnion(t *testing.T) {
	t.Parallel()

	v := unionV()
	ops := meta.Emit(v, meta.Site{Container: "V"})
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_UNI | DDS_OP_SUBTYPE_2BY, offsetof (V, _d), 3u, 9u",
		"DDS_OP_JEQ | DDS_OP_TYPE_STU | 3, 1, offsetof (V, _u.i)",
		"DDS_OP_JEQ | DDS_OP_TYPE_4BY | 0, 2, offsetof (V, _u.l)",
		"DDS_OP_JEQ | DDS_OP_TYPE_SEQ | 4, 3, offsetof (V, _u.s)",
		"DDS_OP_ADR | DDS_OP_TYPE_4BY, offsetof (Inner, a)",
		"DDS_OP_ADR | DDS_OP_TYPE_8BY, offsetof (Inner, b)",
		"DDS_OP_RTS",
		"DDS_OP_ADR | DDS_OP_TYPE_SEQ | DDS_OP_SUBTYPE_4BY, 0u",
		"DDS_OP_RTS",
	}, opStrings(ops))
	testutil.ExpectEq(t, 9, meta.WordCount(v))
}

func TestEmitStructArray(t *testing.T) {
	t.Parallel()

	arr := meta.NewArray([]uint64{4}, innerStruct())
	ops := meta.Emit(arr, meta.Site{Container: "S", Path: "arr"})
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_ARR | DDS_OP_SUBTYPE_STU, offsetof (S, arr), 4u",
		"sizeof (Inner), (2u << 16u) + 4u",
		"DDS_OP_ADR | DDS_OP_TYPE_4BY, offsetof (Inner, a)",
		"DDS_OP_ADR | DDS_OP_TYPE_8BY, offsetof (Inner, b)",
		"DDS_OP_RTS",
	}, opStrings(ops))
	testutil.ExpectEq(t, 5, meta.WordCount(arr))
}

func TestEmitBoundedStrings(t *testing.T) {
	t.Parallel()

	s := newStruct("B",
		field{"name", &meta.BoundedString{Bound: 8}},
		field{"names", newSequence(&meta.BoundedString{Bound: 4})},
	)
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_BST, offsetof (B, name)",
		"9u",
		"DDS_OP_ADR | DDS_OP_TYPE_SEQ | DDS_OP_SUBTYPE_BST, offsetof (B, names)",
		"5u",
	}, opStrings(meta.Emit(s, meta.Site{Container: "B"})))
}

func TestEmitNestedStructPaths(t *testing.T) {
	t.Parallel()

	s := newStruct("Outer",
		field{"in", innerStruct()},
		field{"e", &meta.Enum{Name: name("E"), Enumerators: []string{"A"}}},
	)
	testutil.ExpectSliceEq(t, []string{
		"DDS_OP_ADR | DDS_OP_TYPE_4BY, offsetof (Outer, in.a)",
		"DDS_OP_ADR | DDS_OP_TYPE_8BY, offsetof (Outer, in.b)",
		"DDS_OP_ADR | DDS_OP_TYPE_4BY, offsetof (Outer, e)",
	}, opStrings(meta.Emit(s, meta.Site{Container: "Outer"})))
}

func TestWordCountMatchesEmit(t *testing.T) {
	t.Parallel()

	enum := &meta.Enum{Name: name("E"), Enumerators: []string{"A", "B"}}
	alias := &meta.Alias{Name: name("Row"), Referent: meta.NewArray([]uint64{3}, basic(meta.BasicKind_SHORT))}
	nestedSeq := newSequence(newSequence(innerStruct()))
	types := map[string]meta.Type{
		"long":             basic(meta.BasicKind_LONG),
		"string":           basic(meta.BasicKind_STRING),
		"enum":             enum,
		"bounded string":   &meta.BoundedString{Bound: 3},
		"array of long":    meta.NewArray([]uint64{2, 2}, basic(meta.BasicKind_LONG)),
		"array of string":  meta.NewArray([]uint64{2}, basic(meta.BasicKind_STRING)),
		"array of alias":   meta.NewArray([]uint64{5}, alias),
		"array of bst":     meta.NewArray([]uint64{2}, &meta.BoundedString{Bound: 7}),
		"sequence of long": newSequence(basic(meta.BasicKind_LONG)),
		"sequence of seq":  nestedSeq,
		"alias":            alias,
		"point":            pointStruct(),
		"union U":          unionU(),
		"union V":          unionV(),
		"struct of everything": newStruct("All",
			field{"p", pointStruct()},
			field{"u", unionV()},
			field{"q", nestedSeq},
			field{"a", meta.NewArray([]uint64{2}, unionU())},
			field{"b", &meta.BoundedString{Bound: 1}},
		),
	}
	for desc, typ := range types {
		t.Run(desc, func(t *testing.T) {
			t.Parallel()
			ops := meta.Emit(typ, meta.Site{Container: "C", Path: "m"})
			testutil.ExpectEq(t, meta.WordCount(typ), len(ops))
		})
	}
}

func TestUnionJumpsLandOnSubroutines(t *testing.T) {
	t.Parallel()

	v := unionV()
	ops := meta.Emit(v, meta.Site{Container: "V"})
	for ii, op := range ops {
		if op.Op != meta.Op_JEQ || op.Jump == 0 {
			continue
		}
		target := ii + op.Jump
		testutil.AssertTrue(t, target < len(ops))
		testutil.ExpectEq(t, meta.Op_ADR, ops[target].Op)
		prev := ops[target-1]
		testutil.ExpectTrue(t, prev.Op == meta.Op_RTS || prev.Op == meta.Op_JEQ)
	}
}

func TestInstructionEncode(t *testing.T) {
	t.Parallel()

	keyed := meta.Instruction{
		Op:     meta.Op_ADR,
		Type:   meta.OpType_4BY,
		Key:    true,
		Offset: "offsetof (K, id)",
	}
	testutil.ExpectSliceEq(t, []uint32{0x01030001, 0}, keyed.Encode())

	arr := meta.Instruction{
		Op:      meta.Op_ADR,
		Type:    meta.OpType_ARR,
		Subtype: meta.OpType_2BY,
		Offset:  "0u",
		Count:   6,
	}
	testutil.ExpectSliceEq(t, []uint32{0x01080200, 0, 6}, arr.Encode())

	words := meta.Instruction{Op: meta.Op_WORDS, Words: 3, Size: "12u"}
	testutil.ExpectSliceEq(t, []uint32{12, 3<<16 + 4}, words.Encode())

	jeq := meta.Instruction{Op: meta.Op_JEQ, Type: meta.OpType_STU, Jump: 3, Label: 1}
	testutil.ExpectSliceEq(t, []uint32{0x030a0003, 1, 0}, jeq.Encode())

	testutil.ExpectSliceEq(t, []uint32{0}, meta.Instruction{Op: meta.Op_RTS}.Encode())
}

func TestOpcode(t *testing.T) {
	t.Parallel()

	testutil.ExpectEq(t, meta.OpType_1BY, meta.Opcode(basic(meta.BasicKind_BOOLEAN)))
	testutil.ExpectEq(t, meta.OpType_8BY, meta.Opcode(basic(meta.BasicKind_ULONGLONG)))
	testutil.ExpectEq(t, meta.OpType_4BY, meta.Opcode(&meta.Enum{Name: name("E")}))
	testutil.ExpectEq(t, meta.OpType_UNI, meta.Opcode(unionU()))
	testutil.ExpectEq(t, meta.OpType_STU, meta.Opcode(&meta.Alias{Name: name("P"), Referent: pointStruct()}))
}
