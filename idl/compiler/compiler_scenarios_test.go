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

package compiler_test

import (
	"testing"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/internal/testutil"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
)

func mustCompile(t *testing.T, src string, opts ...compiler.CompileOption) *compiler.Result {
	t.Helper()
	result := compiler.Compile(testutil.MustParse(t, src), opts...)
	for _, err := range result.Errors {
		testutil.ExpectNoError(t, err)
	}
	if len(result.Errors) > 0 {
		t.FailNow()
	}
	return result
}

func errorCodes(result *compiler.Result) []uint32 {
	var codes []uint32
	for _, err := range result.Errors {
		codes = append(codes, err.Code())
	}
	return codes
}

func warningCodes(result *compiler.Result) []uint32 {
	var codes []uint32
	for _, warning := range result.Warnings {
		codes = append(codes, warning.Code())
	}
	return codes
}

func TestPointTopic(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, "struct Point { long x; long y; };", compiler.WithAllStructs(true))
	testutil.AssertEq(t, 1, len(result.Topics))
	topic := result.Topics[0]
	testutil.ExpectEq(t, "Point", topic.Name.String())
	testutil.ExpectEq(t, meta.Alignment_FOUR, topic.Alignment)
	testutil.ExpectEq(t, meta.KeySize{Unbounded: true}, topic.KeySize)
	testutil.ExpectEq(t, meta.TopicFlags(0), topic.Flags)
	testutil.ExpectEq(t, 0, len(topic.Keys))
	testutil.ExpectEq(t, 3, len(topic.Ops))
	testutil.ExpectEq(t, `<MetaData version="1.0.0"><Struct name="Point">`+
		`<Member name="x"><Long/></Member><Member name="y"><Long/></Member>`+
		`</Struct></MetaData>`, topic.XML)
}

func TestKeyedTopic(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
struct K { long id; string name; };
#pragma keylist K id
struct Unkeyed { long v; };
`)
	testutil.AssertEq(t, 1, len(result.Topics))
	topic := result.Topics[0]
	testutil.ExpectEq(t, meta.KeySize{N: 4}, topic.KeySize)
	testutil.ExpectEq(t, meta.TopicFlag_NO_OPTIMIZE|meta.TopicFlag_FIXED_KEY, topic.Flags)
	testutil.ExpectDeepEq(t, []compiler.KeyField{{Name: "id", Offset: 0}}, topic.Keys)

	// The stored type is untouched by key marking.
	stored, ok := result.Types.Lookup(symtab.NewScopedName("K"))
	testutil.AssertTrue(t, ok)
	testutil.ExpectFalse(t, stored.(*meta.Struct).Members[0].Key)
	testutil.ExpectTrue(t, topic.Type.Members[0].Key)
}

func TestNestedKeyOffsets(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
module M {
  struct Inner { long a; double b; };
  struct S { string s; Inner inner; sequence<long> l; octet o; };
};
#pragma keylist M::S inner.b o
`, compiler.WithXML(false))
	testutil.AssertEq(t, 1, len(result.Topics))
	topic := result.Topics[0]
	testutil.ExpectDeepEq(t, []compiler.KeyField{
		{Name: "inner.b", Offset: 2},
		{Name: "o", Offset: 4},
	}, topic.Keys)
	testutil.ExpectEq(t, meta.KeySize{N: 9}, topic.KeySize)
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_8BY | DDS_OP_FLAG_KEY, offsetof (M_S, inner.b)", topic.Ops[2].String())
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_1BY | DDS_OP_FLAG_KEY, offsetof (M_S, o)", topic.Ops[4].String())
}

func TestWholeStructKey(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
struct Id { long hi; long lo; };
struct S { Id id; string payload; };
#pragma keylist S id
`, compiler.WithXML(false))
	topic := result.Topics[0]
	testutil.ExpectEq(t, meta.KeySize{N: 8}, topic.KeySize)
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_4BY | DDS_OP_FLAG_KEY, offsetof (S, id.lo)", topic.Ops[1].String())
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_STR, offsetof (S, payload)", topic.Ops[2].String())
}

func TestLargeKeyIsNotFixed(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
struct S { long long a; long long b; long long c; };
#pragma keylist S a b c
`, compiler.WithXML(false))
	topic := result.Topics[0]
	testutil.ExpectEq(t, meta.KeySize{N: 24}, topic.KeySize)
	testutil.ExpectEq(t, meta.TopicFlags(0), topic.Flags)
}

func TestUnionTopicProgram(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
struct Inner { long a; double b; };
union V switch (short) {
  case 1: Inner i;
  case 2: long l;
  case 3: sequence<long> s;
};
struct S { V v; };
`, compiler.WithAllStructs(true), compiler.WithXML(false))

	var s *compiler.Topic
	for _, topic := range result.Topics {
		if topic.Name.String() == "S" {
			s = topic
		}
	}
	testutil.AssertTrue(t, s != nil)
	v, ok := result.Types.Lookup(symtab.NewScopedName("V"))
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, meta.WordCount(v)+1, len(s.Ops))
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_UNI | DDS_OP_SUBTYPE_2BY, offsetof (S, v._d), 3u, 9u", s.Ops[0].String())
	testutil.ExpectEq(t, "DDS_OP_JEQ | DDS_OP_TYPE_STU | 3, 1, offsetof (S, v._u.i)", s.Ops[1].String())
	testutil.ExpectEq(t, "DDS_OP_JEQ | DDS_OP_TYPE_SEQ | 4, 3, offsetof (S, v._u.s)", s.Ops[3].String())
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	src := `
struct W { wchar c; };
typedef long double LD;
struct OK { long v; };
`
	strict := compiler.Compile(testutil.MustParse(t, src))
	testutil.ExpectSliceEq(t, []uint32{3007, 3007}, errorCodes(strict))
	testutil.ExpectTrue(t, strict.Err() != nil)
	testutil.ExpectEq(t, 0, len(strict.Topics))

	lenient := compiler.Compile(
		testutil.MustParse(t, src),
		compiler.WithPolicy(compiler.Policy_LENIENT),
		compiler.WithAllStructs(true),
	)
	testutil.AssertNoError(t, lenient.Err())
	testutil.ExpectSliceEq(t, []uint32{4000, 4000, 4001, 4001}, warningCodes(lenient))
	testutil.AssertEq(t, 1, len(lenient.Topics))
	testutil.ExpectEq(t, "OK", lenient.Topics[0].Name.String())

	mapped := mustCompile(t, src,
		compiler.WithMapWide(true),
		compiler.WithMapLongDouble(true),
		compiler.WithAllStructs(true),
	)
	testutil.ExpectEq(t, 0, len(mapped.Warnings))
	testutil.ExpectEq(t, 2, len(mapped.Topics))
	ld, ok := mapped.Types.Lookup(symtab.NewScopedName("LD"))
	testutil.AssertTrue(t, ok)
	testutil.ExpectDeepEq[meta.Type](t, &meta.Basic{Kind: meta.BasicKind_DOUBLE}, ld.(*meta.Alias).Referent)
}

func TestErrAggregates(t *testing.T) {
	t.Parallel()

	result := compiler.Compile(testutil.MustParse(t, `
struct A { Missing m; };
struct B { Other o; };
`))
	testutil.ExpectSliceEq(t, []uint32{3001, 3001}, errorCodes(result))
	testutil.ExpectEq(t, "E3001: Missing is not defined; E3001: Other is not defined", result.Err().Error())
	testutil.ExpectTrue(t, result.Types == nil)
}

func TestCheckStopsAfterValidation(t *testing.T) {
	t.Parallel()

	// Division by zero is only found while building types.
	src := "const long Z = 0; struct S { long a[4 / Z]; };"
	checked := compiler.NewCompileOptions().Check(testutil.MustParse(t, src))
	testutil.AssertNoError(t, checked.Err())
	_, ok := checked.Symbols.Lookup(symtab.NewScopedName("S"))
	testutil.ExpectTrue(t, ok)

	compiled := compiler.Compile(testutil.MustParse(t, src))
	testutil.ExpectSliceEq(t, []uint32{3013}, errorCodes(compiled))
}

func TestNestedTypesHaveParents(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
module M {
  struct Outer {
    struct Inner { long v; } inner;
    enum Kind { A, B } kind;
  };
};
`)
	inner, ok := result.Types.Lookup(symtab.NewScopedName("M", "Outer", "Inner"))
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "M::Outer", inner.ParentName().String())
	kind, ok := result.Types.Lookup(symtab.NewScopedName("M", "Outer", "Kind"))
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "M::Outer", kind.ParentName().String())

	outer, ok := result.Types.Lookup(symtab.NewScopedName("M", "Outer"))
	testutil.AssertTrue(t, ok)
	testutil.ExpectTrue(t, outer.ParentName().IsEmpty())
	testutil.ExpectEq(t, 0, len(result.Types.Deps(outer)))
}

func TestEmissionOrderAcrossModules(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
module M1 { struct A { long v; }; };
module M2 { struct B { M1::A a; }; };
module M1 { struct C { M2::B b; }; struct D { short v; }; };
`)
	order, err := meta.EmissionOrder(result.Types)
	testutil.AssertNoError(t, err)
	var names []string
	for _, typ := range order {
		names = append(names, typ.TypeName().String())
	}
	testutil.ExpectSliceEq(t, []string{"M1::A", "M1::D", "M2::B", "M1::C"}, names)
}

func TestConstants(t *testing.T) {
	t.Parallel()

	result := mustCompile(t, `
const long A = 6;
const long B = A * 2 + (A >> 1) - 1;
const unsigned short C = ~0 & 0xF;
const char E = 'x';
const boolean F = TRUE;
const string G = "g";
struct S { octet a[B]; octet b[C]; };
`, compiler.WithAllStructs(true), compiler.WithXML(false))
	topic := result.Topics[0]
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_ARR | DDS_OP_SUBTYPE_1BY, offsetof (S, a), 14u", topic.Ops[0].String())
	testutil.ExpectEq(t, "DDS_OP_ADR | DDS_OP_TYPE_ARR | DDS_OP_SUBTYPE_1BY, offsetof (S, b), 15u", topic.Ops[1].String())
}

func TestSymbolClassification(t *testing.T) {
	t.Parallel()

	result := compiler.NewCompileOptions().Check(testutil.MustParse(t, `
typedef long L;
typedef float F;
enum E { X };
const L N = 3;
const F R = 1.5;
`))
	testutil.AssertNoError(t, result.Err())
	tests := []struct {
		name string
		kind symtab.SymbolKind
	}{
		{"L", symtab.SymbolKind_TYPEDEF},
		{"F", symtab.SymbolKind_TYPEDEF},
		{"E", symtab.SymbolKind_ENUM},
		{"X", symtab.SymbolKind_INT_CONST},
		{"N", symtab.SymbolKind_INT_CONST},
		{"R", symtab.SymbolKind_OTHER_CONST},
	}
	for _, test := range tests {
		sym, ok := result.Symbols.Lookup(symtab.NewScopedName(test.name))
		testutil.AssertTrue(t, ok)
		testutil.ExpectEq(t, test.kind, sym.Kind())
	}
}
