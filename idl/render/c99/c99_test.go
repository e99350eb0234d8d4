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

package c99_test

import (
	"fmt"
	"testing"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/compiler"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/encoding/ddsbin"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/internal/testutil"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/render/c99"
)

const banner = `/****************************************************************

  Generated by ddsidl
  File name: %s
  Source: src/k.idl

*****************************************************************/
`

func keyedRequest() *ddsbin.Request {
	return &ddsbin.Request{
		Source: "src/k.idl",
		Types: []*ddsbin.TypeDecl{
			{Kind: ddsbin.DeclStruct, Name: "K", Fields: []ddsbin.Field{
				{Name: "id", Type: "int32_t"},
				{Name: "name", Type: "char *"},
			}},
			{Kind: ddsbin.DeclEnum, Name: "M_Color", Enumerators: []string{"M_RED", "M_GREEN"}},
			{Kind: ddsbin.DeclSequence, Name: "M_Labels", Fields: []ddsbin.Field{
				{Name: "(*_buffer)", Type: "char", Dims: "[9]"},
			}},
			{Kind: ddsbin.DeclTypedef, Name: "M_Grid", Fields: []ddsbin.Field{
				{Name: "M_Grid", Type: "int16_t", Dims: "[2][3]"},
			}},
			{Kind: ddsbin.DeclUnion, Name: "M_U", Discriminant: "M_Color", Fields: []ddsbin.Field{
				{Name: "labels", Type: "M_Labels"},
				{Name: "grid", Type: "M_Grid"},
			}},
			{Kind: ddsbin.DeclStruct, Name: "M_P", Fields: []ddsbin.Field{
				{Name: "b", Type: "uint8_t"},
			}},
		},
		Topics: []*ddsbin.Descriptor{
			{
				Name:      "K",
				TypeName:  "K",
				Alignment: "sizeof (char *)",
				Flags:     "DDS_TOPIC_NO_OPTIMIZE | DDS_TOPIC_FIXED_KEY",
				KeySize:   4,
				Keys:      []ddsbin.Key{{Name: "id", Offset: 0}},
				Ops: []string{
					"DDS_OP_ADR | DDS_OP_TYPE_4BY | DDS_OP_FLAG_KEY, offsetof (K, id)",
					"DDS_OP_ADR | DDS_OP_TYPE_STR, offsetof (K, name)",
					"DDS_OP_RTS",
				},
			},
			{
				Name:      "M::P",
				TypeName:  "M_P",
				Alignment: "1",
				Flags:     "0u",
				Ops: []string{
					"DDS_OP_ADR | DDS_OP_TYPE_1BY, offsetof (M_P, b)",
					"DDS_OP_RTS",
				},
				XML: `<MetaData version="1.0.0"/>`,
			},
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	files, err := c99.Render(keyedRequest())
	testutil.AssertNoError(t, err)
	testutil.AssertEq(t, 2, len(files))

	testutil.ExpectSliceEq(t, []string{"k.h"}, files[0].Path)
	testutil.ExpectNoDiff(t, fmtBanner("k.h")+`#include "dds/ddsc/dds_public_impl.h"

#ifndef _DDSL_K_H_
#define _DDSL_K_H_

#ifdef __cplusplus
extern "C" {
#endif

typedef struct K
{
  int32_t id;
  char * name;
} K;

typedef enum M_Color
{
  M_RED,
  M_GREEN
} M_Color;

typedef struct M_Labels
{
  uint32_t _maximum;
  uint32_t _length;
  char (*_buffer)[9];
  bool _release;
} M_Labels;

typedef int16_t M_Grid[2][3];

typedef struct M_U
{
  M_Color _d;
  union
  {
    M_Labels labels;
    M_Grid grid;
  } _u;
} M_U;

typedef struct M_P
{
  uint8_t b;
} M_P;

extern const dds_topic_descriptor_t K_desc;

#define K__alloc() \
((K*) dds_alloc (sizeof (K)));

#define K_free(d,o) \
dds_sample_free ((d), &K_desc, (o))

extern const dds_topic_descriptor_t M_P_desc;

#define M_P__alloc() \
((M_P*) dds_alloc (sizeof (M_P)));

#define M_P_free(d,o) \
dds_sample_free ((d), &M_P_desc, (o))

#ifdef __cplusplus
}
#endif
#endif /* _DDSL_K_H_ */
`, string(files[0].Content))

	testutil.ExpectSliceEq(t, []string{"k.c"}, files[1].Path)
	testutil.ExpectNoDiff(t, fmtBanner("k.c")+`#include "k.h"

static const dds_key_descriptor_t K_keys[1] =
{
  { "id", 0 }
};

static const uint32_t K_ops [] =
{
  DDS_OP_ADR | DDS_OP_TYPE_4BY | DDS_OP_FLAG_KEY, offsetof (K, id),
  DDS_OP_ADR | DDS_OP_TYPE_STR, offsetof (K, name),
  DDS_OP_RTS
};

const dds_topic_descriptor_t K_desc =
{
  sizeof (K),
  sizeof (char *),
  DDS_TOPIC_NO_OPTIMIZE | DDS_TOPIC_FIXED_KEY,
  1u,
  "K",
  K_keys,
  3,
  K_ops,
  NULL
};

static const uint32_t M_P_ops [] =
{
  DDS_OP_ADR | DDS_OP_TYPE_1BY, offsetof (M_P, b),
  DDS_OP_RTS
};

const dds_topic_descriptor_t M_P_desc =
{
  sizeof (M_P),
  1,
  0u,
  0u,
  "M::P",
  NULL,
  2,
  M_P_ops,
  "<MetaData version=\"1.0.0\"/>"
};
`, string(files[1].Content))
}

func TestRenderCompiledTypes(t *testing.T) {
	t.Parallel()

	spec := testutil.MustParse(t, `
module M { struct P { long id; string name; }; };
#pragma keylist M::P id
`)
	result := compiler.Compile(spec, compiler.WithXML(false))
	testutil.AssertNoError(t, result.Err())
	req, err := ddsbin.NewRequest("p.idl", result)
	testutil.AssertNoError(t, err)

	files, err := c99.Render(req)
	testutil.AssertNoError(t, err)
	header := string(files[0].Content)
	testutil.ExpectMatch(t, `(?s)typedef struct M_P
\{
  int32_t id;
  char \* name;
\} M_P;
.*extern const dds_topic_descriptor_t M_P_desc;`, header)
	testutil.ExpectMatch(t, `offsetof \(M_P, id\)`, string(files[1].Content))
}

func TestRenderGuard(t *testing.T) {
	t.Parallel()

	files, err := c99.Render(&ddsbin.Request{Source: "my-types.v2.idl"})
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"my-types.v2.h"}, files[0].Path)
	testutil.ExpectMatch(t, `#ifndef _DDSL_MY_TYPES_V2_H_\n`, string(files[0].Content))
}

func TestRenderBadSource(t *testing.T) {
	t.Parallel()

	_, err := c99.Render(&ddsbin.Request{Source: ""})
	testutil.ExpectTrue(t, err != nil)
}

func fmtBanner(name string) string {
	return fmt.Sprintf(banner, name)
}
