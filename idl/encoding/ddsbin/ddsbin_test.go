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

package ddsbin_test

import (
	"errors"
	"testing"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/internal/testutil"
)

func TestEncodeKey(t *testing.T) {
	t.Parallel()

	desc := &ddsbin.Descriptor{
		Name:    "K",
		KeySize: 4,
		Keys:    []ddsbin.Key{{Name: "id", Offset: 0}},
	}
	buf, err := ddsbin.EncodeDescriptor(desc)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, []byte{
		88, 0, 0, 0,
		0, 0, 3, 0,

		1, 0, 2, 0, 1, 0, 0, 0,
		'K', 0, 0, 0, 0, 0, 0, 0,

		5, 0, 1, 0, 4, 0, 0, 0,
		4, 0, 0, 0, 0, 0, 0, 0,

		6, 0, 4, 0, 40, 0, 0, 0,
		40, 0, 0, 0, 0, 0, 2, 0,
		1, 0, 2, 0, 2, 0, 0, 0,
		'i', 'd', 0, 0, 0, 0, 0, 0,
		2, 0, 1, 0, 4, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}, buf)
}

func TestDescriptorFromTopic(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, `
module M { struct K { long id; string name; }; };
#pragma keylist M::K id
`)
	result := compiler.Compile(spec, compiler.WithXML(false))
	testutil.AssertNoError(t, result.Err())
	testutil.AssertEq(t, 1, len(result.Topics))

	req, err := ddsbin.NewRequest("k.idl", result)
	testutil.AssertNoError(t, err)
	req.Options = []string{"header-only"}
	testutil.ExpectDeepEq(t, &ddsbin.Request{
		Source:  "k.idl",
		Options: []string{"header-only"},
		Types: []*ddsbin.TypeDecl{{
			Kind: ddsbin.DeclStruct,
			Name: "M_K",
			Fields: []ddsbin.Field{
				{Name: "id", Type: "int32_t"},
				{Name: "name", Type: "char *"},
			},
		}},
		Topics: []*ddsbin.Descriptor{{
			Name:      "M::K",
			TypeName:  "M_K",
			Alignment: "sizeof (char *)",
			Flags:     "DDS_TOPIC_NO_OPTIMIZE | DDS_TOPIC_FIXED_KEY",
			KeySize:   4,
			Keys:      []ddsbin.Key{{Name: "id", Offset: 0}},
			Ops: []string{
				"DDS_OP_ADR | DDS_OP_TYPE_4BY | DDS_OP_FLAG_KEY, offsetof (M_K, id)",
				"DDS_OP_ADR | DDS_OP_TYPE_STR, offsetof (M_K, name)",
				"DDS_OP_RTS",
			},
		}},
	}, req)

	buf, err := ddsbin.EncodeRequest(req)
	testutil.AssertNoError(t, err)
	decoded, err := ddsbin.DecodeRequest(buf)
	testutil.AssertNoError(t, err)
	testutil.ExpectDeepEq(t, req, decoded)
}

func TestTypeDecls(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, `
module A {
	enum Color { RED, GREEN };
	typedef sequence<long> Longs;
	typedef string<8> Label;
	typedef long Grid[2][3];
	union U switch (long) {
	case 1: long x;
	case 2: sequence<string<4>> names;
	};
};
module B {
	struct S {
		struct Inner { double d; } inner;
		A::Color color;
		A::U u;
		sequence<sequence<short>> nested;
		string<3> tags[2];
	};
};
`)
	result := compiler.Compile(spec, compiler.WithXML(false))
	testutil.AssertNoError(t, result.Err())

	decls, err := ddsbin.NewTypeDecls(result.Types)
	testutil.AssertNoError(t, err)
	testutil.ExpectDeepEq(t, []*ddsbin.TypeDecl{
		{Kind: ddsbin.DeclEnum, Name: "A_Color", Enumerators: []string{"A_RED", "A_GREEN"}},
		{Kind: ddsbin.DeclSequence, Name: "A_Longs", Fields: []ddsbin.Field{
			{Name: "*_buffer", Type: "int32_t"},
		}},
		{Kind: ddsbin.DeclTypedef, Name: "A_Label", Fields: []ddsbin.Field{
			{Name: "A_Label", Type: "char", Dims: "[9]"},
		}},
		{Kind: ddsbin.DeclTypedef, Name: "A_Grid", Fields: []ddsbin.Field{
			{Name: "A_Grid", Type: "int32_t", Dims: "[2][3]"},
		}},
		{Kind: ddsbin.DeclSequence, Name: "A_U_names_seq", Fields: []ddsbin.Field{
			{Name: "(*_buffer)", Type: "char", Dims: "[5]"},
		}},
		{Kind: ddsbin.DeclUnion, Name: "A_U", Discriminant: "int32_t", Fields: []ddsbin.Field{
			{Name: "x", Type: "int32_t"},
			{Name: "names", Type: "A_U_names_seq"},
		}},
		{Kind: ddsbin.DeclStruct, Name: "B_S_Inner", Fields: []ddsbin.Field{
			{Name: "d", Type: "double"},
		}},
		{Kind: ddsbin.DeclSequence, Name: "B_S_nested_seq_seq", Fields: []ddsbin.Field{
			{Name: "*_buffer", Type: "int16_t"},
		}},
		{Kind: ddsbin.DeclSequence, Name: "B_S_nested_seq", Fields: []ddsbin.Field{
			{Name: "*_buffer", Type: "B_S_nested_seq_seq"},
		}},
		{Kind: ddsbin.DeclStruct, Name: "B_S", Fields: []ddsbin.Field{
			{Name: "inner", Type: "B_S_Inner"},
			{Name: "color", Type: "A_Color"},
			{Name: "u", Type: "A_U"},
			{Name: "nested", Type: "B_S_nested_seq"},
			{Name: "tags", Type: "char", Dims: "[2][4]"},
		}},
	}, decls)

	buf, err := ddsbin.EncodeRequest(&ddsbin.Request{Source: "a.idl", Types: decls})
	testutil.AssertNoError(t, err)
	decoded, err := ddsbin.DecodeRequest(buf)
	testutil.AssertNoError(t, err)
	testutil.ExpectDeepEq(t, decls, decoded.Types)
}

func TestResponse(t *testing.T) {
	t.Parallel()

	resp := &ddsbin.Response{
		Files: []*ddsbin.OutputFile{
			{Path: []string{"gen", "k.h"}, Content: []byte("#pragma once\n")},
			{Path: []string{"k.c"}},
		},
	}
	buf, err := ddsbin.EncodeResponse(resp)
	testutil.AssertNoError(t, err)
	decoded, err := ddsbin.DecodeResponse(buf)
	testutil.AssertNoError(t, err)
	testutil.ExpectDeepEq(t, resp, decoded)

	buf, err = ddsbin.EncodeResponse(&ddsbin.Response{Error: "boom"})
	testutil.AssertNoError(t, err)
	decoded, err = ddsbin.DecodeResponse(buf)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "boom", decoded.Error)
	testutil.ExpectEq(t, 0, len(decoded.Files))
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	valid, err := ddsbin.EncodeDescriptor(&ddsbin.Descriptor{Name: "K"})
	testutil.AssertNoError(t, err)

	corrupt := func(edit func(buf []byte) []byte) []byte {
		buf := append([]byte(nil), valid...)
		return edit(buf)
	}
	tests := map[string][]byte{
		"short":         {1, 0, 0},
		"size mismatch": corrupt(func(buf []byte) []byte { return buf[:len(buf)-8] }),
		"flags":         corrupt(func(buf []byte) []byte { buf[4] = 1; return buf }),
		"padding":       corrupt(func(buf []byte) []byte { buf[17] = 'x'; return buf }),
		"unknown tag":   corrupt(func(buf []byte) []byte { buf[8] = 99; return buf }),
		"wrong kind":    corrupt(func(buf []byte) []byte { buf[10] = 3; return buf }),
		"overflow":      corrupt(func(buf []byte) []byte { buf[12] = 0xFF; return buf }),
	}
	for desc, buf := range tests {
		_, err := ddsbin.DecodeDescriptor(buf)
		var decodeErr *ddsbin.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("%s: expected DecodeError, got %v", desc, err)
		}
	}
}
