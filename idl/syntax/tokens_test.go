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

type strToken struct {
	kind    string
	content string
}

func tokenize(t *testing.T, src string) []strToken {
	t.Helper()
	tokens, err := syntax.NewTokens([]byte(src))
	testutil.AssertNoError(t, err)

	var got []strToken
	for {
		var token syntax.Token
		testutil.AssertNoError(t, tokens.Next(&token))
		if token.Kind == syntax.T_EOF {
			break
		}
		got = append(got, strToken{
			kind:    token.Kind.String(),
			content: src[:token.Len],
		})
		src = src[token.Len:]
	}
	return got
}

func TestTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want []strToken
	}{
		{"struct Point { long x; };", []strToken{
			{"IDENT", "struct"}, {"SPACE", " "}, {"IDENT", "Point"},
			{"SPACE", " "}, {"OPEN_CURL", "{"}, {"SPACE", " "},
			{"IDENT", "long"}, {"SPACE", " "}, {"IDENT", "x"},
			{"SEMICOLON", ";"}, {"SPACE", " "}, {"CLOSE_CURL", "}"},
			{"SEMICOLON", ";"},
		}},
		{"::M::_S", []strToken{
			{"DOUBLE_COLON", "::"}, {"IDENT", "M"},
			{"DOUBLE_COLON", "::"}, {"IDENT", "_S"},
		}},
		{`0x1F 017 42 1.5e3 'c' "s\"t"`, []strToken{
			{"HEX_INT_LIT", "0x1F"}, {"SPACE", " "},
			{"OCT_INT_LIT", "017"}, {"SPACE", " "},
			{"INT_LIT", "42"}, {"SPACE", " "},
			{"FLOAT_LIT", "1.5e3"}, {"SPACE", " "},
			{"CHAR_LIT", "'c'"}, {"SPACE", " "},
			{"STRING_LIT", `"s\"t"`},
		}},
		{"// line\n/* block */", []strToken{
			{"COMMENT", "// line"}, {"NEWLINE", "\n"},
			{"COMMENT", "/* block */"},
		}},
		{"#pragma keylist A x\n# 1 \"a.idl\"\r\n", []strToken{
			{"PRAGMA", "#pragma keylist A x"}, {"NEWLINE", "\n"},
			{"LINE_MARKER", `# 1 "a.idl"`}, {"NEWLINE", "\r\n"},
		}},
		{"1 << 2>>3", []strToken{
			{"INT_LIT", "1"}, {"SPACE", " "}, {"LT", "<"}, {"LT", "<"},
			{"SPACE", " "}, {"INT_LIT", "2"}, {"GT", ">"}, {"GT", ">"},
			{"INT_LIT", "3"},
		}},
		{"a+-*/%~|^&=", []strToken{
			{"IDENT", "a"}, {"PLUS", "+"}, {"MINUS", "-"}, {"STAR", "*"},
			{"SLASH", "/"}, {"PERCENT", "%"}, {"TILDE", "~"}, {"PIPE", "|"},
			{"CARET", "^"}, {"AMP", "&"}, {"EQ", "="},
		}},
	}
	for ii, test := range tests {
		t.Run(fmt.Sprintf("expect_ok/%d", ii), func(t *testing.T) {
			t.Logf("source: %q", test.src)
			testutil.ExpectSliceEq(t, test.want, tokenize(t, test.src))
		})
	}
}

func TestTokenErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		code uint32
	}{
		{"a # b", 1002},
		{"\x01", 1003},
		{"0x", 1005},
		{"08", 1005},
		{"12ab", 1005},
		{"1e", 1006},
		{`"abc`, 1007},
		{"'a\n'", 1008},
		{"/* open", 1009},
		{"_", 1010},
		{"\xff", 1001},
	}
	for ii, test := range tests {
		t.Run(fmt.Sprintf("expect_err/%d", ii), func(t *testing.T) {
			t.Logf("source: %q", test.src)
			tokens, err := syntax.NewTokens([]byte(test.src))
			for err == nil {
				var token syntax.Token
				if err = tokens.Next(&token); err == nil && token.Kind == syntax.T_EOF {
					break
				}
			}
			testutil.AssertError(t, err)
			testutil.ExpectEq(t, test.code, err.(*syntax.Error).Code())
		})
	}
}
