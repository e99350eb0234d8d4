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

package syntax_test

import (
	"fmt"
	"testing"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/internal/testutil"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

const roundTripSrc = `// Shapes demo
# 1 "shapes.idl"
module Shapes {
	const long MAX = (1 << 4) | 0x3;
	enum Color { RED, GREEN, BLUE };
	typedef long Matrix[2][MAX];
	struct Point; /* forward */
	struct Point {
		long x, y;
		string<MAX - 1> label;
		sequence<sequence<octet> > blobs;
		unsigned long long stamp;
	};
	union Shape switch (Color) {
		case RED:
		case GREEN: Point p;
		default: double radius;
	};
	interface Registry {
		typedef string Name;
	};
};
#pragma keylist Shapes::Point x y
`

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	spec, err := syntax.Parse([]byte(roundTripSrc))
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, roundTripSrc, syntax.Unparse(spec))
}

func TestParseWithoutTrivia(t *testing.T) {
	t.Parallel()

	spec, err := syntax.Parse([]byte(roundTripSrc), syntax.WithTrivia(false))
	testutil.AssertNoError(t, err)

	syntax.Walk(spec, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.Space, *syntax.Newline, *syntax.Comment, *syntax.LineMarker:
			t.Errorf("unexpected trivia node %T", node)
		}
		return true
	})

	defs := spec.Definitions()
	testutil.AssertEq(t, 2, len(defs))
	module := defs[0].(*syntax.Module)
	testutil.ExpectEq(t, "Shapes", module.Name().Get())
	testutil.ExpectEq(t, 7, len(module.Definitions()))

	pragma := defs[1].(*syntax.Pragma)
	testutil.ExpectEq(t, "keylist", pragma.Name())
	testutil.ExpectSliceEq(t, []string{"Shapes::Point", "x", "y"}, pragma.Args())
}

func TestParseStruct(t *testing.T) {
	t.Parallel()

	src := "struct S { long a, b[3][N]; ::M::T c; };"
	spec := testutil.MustParse(t, src)
	node := spec.Definitions()[0].(*syntax.Struct)
	testutil.ExpectFalse(t, node.IsForward())
	testutil.ExpectEq(t, "S", node.Name().Get())

	members := node.Members()
	testutil.AssertEq(t, 2, len(members))

	base := members[0].TypeSpec().(*syntax.BaseType)
	testutil.ExpectEq(t, syntax.BaseKind_LONG, base.Kind())
	decls := members[0].Declarators()
	testutil.AssertEq(t, 2, len(decls))
	testutil.ExpectEq(t, "a", decls[0].Name().Get())
	testutil.ExpectEq(t, 0, len(decls[0].Dims()))
	dims := decls[1].Dims()
	testutil.AssertEq(t, 2, len(dims))
	testutil.ExpectEq(t, uint64(3), dims[0].(*syntax.IntLit).Get())
	testutil.ExpectEq(t, "N", dims[1].(*syntax.ScopedNameRef).String())

	ref := members[1].TypeSpec().(*syntax.ScopedNameRef)
	testutil.ExpectTrue(t, ref.IsAbsolute())
	testutil.ExpectSliceEq(t, []string{"M", "T"}, ref.Components())

	span := decls[1].Span()
	testutil.ExpectEq(t, "b[3][N]", src[span.Start():span.End()])
}

func TestParseForward(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, "struct A; union B; interface C;")
	defs := spec.Definitions()
	testutil.AssertEq(t, 3, len(defs))
	testutil.ExpectTrue(t, defs[0].(*syntax.Struct).IsForward())
	testutil.ExpectTrue(t, defs[1].(*syntax.Union).IsForward())
	testutil.ExpectTrue(t, defs[2].(*syntax.Interface).IsForward())
}

func TestParseBaseTypes(t *testing.T) {
	t.Parallel()

	tests := map[string]syntax.BaseKind{
		"short":              syntax.BaseKind_SHORT,
		"unsigned short":     syntax.BaseKind_USHORT,
		"long":               syntax.BaseKind_LONG,
		"unsigned long":      syntax.BaseKind_ULONG,
		"long long":          syntax.BaseKind_LONGLONG,
		"unsigned long long": syntax.BaseKind_ULONGLONG,
		"float":              syntax.BaseKind_FLOAT,
		"double":             syntax.BaseKind_DOUBLE,
		"long double":        syntax.BaseKind_LONGDOUBLE,
		"char":               syntax.BaseKind_CHAR,
		"wchar":              syntax.BaseKind_WCHAR,
		"boolean":            syntax.BaseKind_BOOLEAN,
		"octet":              syntax.BaseKind_OCTET,
		"any":                syntax.BaseKind_ANY,
	}
	for typeName, want := range tests {
		t.Run(typeName, func(t *testing.T) {
			t.Parallel()
			spec := testutil.MustParse(t, fmt.Sprintf("typedef %s T;", typeName))
			typedef := spec.Definitions()[0].(*syntax.Typedef)
			got := typedef.TypeSpec().(*syntax.BaseType).Kind()
			testutil.ExpectEq(t, want, got)
			testutil.ExpectEq(t, typeName, want.String())
		})
	}
}

func TestParseExprPrecedence(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, "const long C = 1 << 2 | 3 + 4 * -5;")
	value := spec.Definitions()[0].(*syntax.Const).Value()

	or := value.(*syntax.BinaryExpr)
	testutil.ExpectEq(t, syntax.BinaryOp_OR, or.Op())
	shl := or.Lhs().(*syntax.BinaryExpr)
	testutil.ExpectEq(t, syntax.BinaryOp_SHL, shl.Op())
	add := or.Rhs().(*syntax.BinaryExpr)
	testutil.ExpectEq(t, syntax.BinaryOp_ADD, add.Op())
	mul := add.Rhs().(*syntax.BinaryExpr)
	testutil.ExpectEq(t, syntax.BinaryOp_MUL, mul.Op())
	neg := mul.Rhs().(*syntax.UnaryExpr)
	testutil.ExpectEq(t, syntax.T_MINUS, neg.Op())
	testutil.ExpectEq(t, uint64(5), neg.Operand().(*syntax.IntLit).Get())
}

func TestParseExprLeftAssociative(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, "const long C = 10 - 4 - 3;")
	outer := spec.Definitions()[0].(*syntax.Const).Value().(*syntax.BinaryExpr)
	inner := outer.Lhs().(*syntax.BinaryExpr)
	testutil.ExpectEq(t, uint64(10), inner.Lhs().(*syntax.IntLit).Get())
	testutil.ExpectEq(t, uint64(3), outer.Rhs().(*syntax.IntLit).Get())
}

func TestParseLiterals(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, `
		const double D = 2.5;
		const char C = '\n';
		const string S = "a\tb";
		const boolean B = TRUE;
		const long H = 0x10;
		const long O = 010;
	`)
	defs := spec.Definitions()
	testutil.AssertEq(t, 6, len(defs))
	value := func(ii int) syntax.Expr {
		return defs[ii].(*syntax.Const).Value()
	}
	testutil.ExpectEq(t, 2.5, value(0).(*syntax.FloatLit).Get())
	testutil.ExpectEq(t, byte('\n'), value(1).(*syntax.CharLit).Get())
	testutil.ExpectEq(t, "a\tb", value(2).(*syntax.StringLit).Get())
	testutil.ExpectTrue(t, value(3).(*syntax.BoolLit).Get())
	testutil.ExpectEq(t, uint64(16), value(4).(*syntax.IntLit).Get())
	testutil.ExpectEq(t, uint64(8), value(5).(*syntax.IntLit).Get())
}

func TestParseUnion(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, `
		union U switch (long) {
			case 1: case 2: long a;
			case 3: string b;
			default: octet c[4];
		};
	`)
	union := spec.Definitions()[0].(*syntax.Union)
	testutil.ExpectFalse(t, union.IsForward())
	testutil.ExpectEq(t, syntax.BaseKind_LONG, union.SwitchType().(*syntax.BaseType).Kind())

	cases := union.Cases()
	testutil.AssertEq(t, 3, len(cases))
	testutil.ExpectEq(t, 2, len(cases[0].Labels()))
	testutil.ExpectEq(t, "a", cases[0].Declarator().Name().Get())
	testutil.ExpectTrue(t, cases[2].Labels()[0].IsDefault())
	testutil.ExpectEq(t, 1, len(cases[2].Declarator().Dims()))
}

func TestParseNestedSequence(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, "typedef sequence<sequence<long>> T;")
	outer := spec.Definitions()[0].(*syntax.Typedef).TypeSpec().(*syntax.SequenceType)
	inner := outer.Elem().(*syntax.SequenceType)
	testutil.ExpectEq(t, syntax.BaseKind_LONG, inner.Elem().(*syntax.BaseType).Kind())
	testutil.ExpectTrue(t, outer.Bound() == nil)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src      string
		code     uint32
		spanText string
	}{
		{"struct S { long x }", 1011, "}"},
		{"struct S {};", 1022, "S"},
		{"enum E {};", 1021, "E"},
		{"union U switch (long) {};", 1023, "U"},
		{"foo;", 1013, "foo"},
		{"const long C = ;", 1015, ";"},
		{"union U switch (long) { long x; };", 1016, "long"},
		{"interface I { attribute long a; };", 1017, "attribute"},
		{"interface I { module M {}; };", 1017, "module"},
		{"struct S { long struct; };", 1012, "struct"},
		{"typedef 5 T;", 1014, "5"},
		{"const long C = 99999999999999999999;", 1018, "99999999999999999999"},
		{"struct S { long x; }", 1011, ""},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			t.Parallel()
			_, err := syntax.Parse([]byte(test.src))
			testutil.AssertError(t, err)
			parseErr := err.(*syntax.Error)
			testutil.ExpectEq(t, test.code, parseErr.Code())
			span := parseErr.Span()
			testutil.ExpectEq(t, test.spanText, test.src[span.Start():span.End()])
		})
	}
}
