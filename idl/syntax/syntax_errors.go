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

package syntax

import (
	"fmt"
	"math"
	"unicode/utf8"
)

type Error struct {
	code    uint32
	message string
	span    Span
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() Span {
	return err.span
}

func clampLen(n int) uint32 {
	if uint64(n) < math.MaxUint32 {
		return uint32(n)
	}
	return math.MaxUint32
}

func errSourceTooLong(srcLen int) error {
	return &Error{
		code: 1000,
		message: fmt.Sprintf(
			"Source file size (%d bytes) exceeds maximum (%d bytes)",
			srcLen, maxSrcLen,
		),
		span: Span{0, clampLen(srcLen)},
	}
}

func errInvalidUtf8(src []byte) error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return &Error{
		code:    1001,
		message: "Source file contains invalid UTF-8",
		span:    Span{off, 1},
	}
}

func errUnexpectedCharacter(start uint32, r rune) error {
	return &Error{
		code:    1002,
		message: fmt.Sprintf("Unexpected character '%s' (U+%04X)", string(r), r),
		span:    Span{start, uint32(utf8.RuneLen(r))},
	}
}

func errForbiddenControlCharacter(start uint32, c byte) error {
	return &Error{
		code:    1003,
		message: fmt.Sprintf("Forbidden control character U+%04X", c),
		span:    Span{start, 1},
	}
}

func errTokenTooLong(start uint32, tokenLen int) error {
	return &Error{
		code: 1004,
		message: fmt.Sprintf(
			"Token size (%d bytes) exceeds maximum (%d bytes)",
			tokenLen, maxTokenLen,
		),
		span: Span{start, clampLen(tokenLen)},
	}
}

func errIntLitInvalid(start uint32, token []byte) error {
	return &Error{
		code:    1005,
		message: fmt.Sprintf("Invalid integer literal %q", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errFloatLitInvalid(start uint32, token []byte) error {
	return &Error{
		code:    1006,
		message: fmt.Sprintf("Invalid floating-point literal %q", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errLitUnterminated(start, tokenLen uint32, kind TokenKind) error {
	what := "string"
	if kind == T_CHAR_LIT {
		what = "character"
	}
	return &Error{
		code:    1007,
		message: fmt.Sprintf("Unterminated %s literal", what),
		span:    Span{start, tokenLen},
	}
}

func errLitContainsNewline(start uint32, kind TokenKind) error {
	what := "String"
	if kind == T_CHAR_LIT {
		what = "Character"
	}
	return &Error{
		code:    1008,
		message: fmt.Sprintf("%s literal contains unescaped newline", what),
		span:    Span{start, 1},
	}
}

func errCommentUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1009,
		message: "Unterminated block comment",
		span:    Span{start, tokenLen},
	}
}

func errIdentInvalid(start uint32, token []byte) error {
	return &Error{
		code:    1010,
		message: fmt.Sprintf("Invalid identifier %q", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errExpectedSigil(
	expectKind TokenKind,
	gotKind TokenKind,
	gotToken string,
	span Span,
) error {
	expect := sigilText(expectKind)
	var message string
	if gotKind == T_EOF {
		message = fmt.Sprintf("Expected '%s', got end of file", expect)
	} else {
		message = fmt.Sprintf("Expected '%s', got %q", expect, gotToken)
	}
	return &Error{
		code:    1011,
		message: message,
		span:    span,
	}
}

func sigilText(kind TokenKind) string {
	switch kind {
	case T_SEMICOLON:
		return ";"
	case T_COMMA:
		return ","
	case T_COLON:
		return ":"
	case T_DOUBLE_COLON:
		return "::"
	case T_EQ:
		return "="
	case T_OPEN_CURL:
		return "{"
	case T_CLOSE_CURL:
		return "}"
	case T_OPEN_PAREN:
		return "("
	case T_CLOSE_PAREN:
		return ")"
	case T_OPEN_SQUARE:
		return "["
	case T_CLOSE_SQUARE:
		return "]"
	case T_LT:
		return "<"
	case T_GT:
		return ">"
	}
	return kind.String()
}

func gotText(gotKind TokenKind, gotToken string) string {
	if gotKind == T_EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", gotToken)
}

func errExpectedIdent(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1012,
		message: fmt.Sprintf("Expected identifier, got %s", gotText(gotKind, gotToken)),
		span:    span,
	}
}

func errExpectedDefinition(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1013,
		message: fmt.Sprintf("Expected definition, got %s", gotText(gotKind, gotToken)),
		span:    span,
	}
}

func errExpectedTypeSpec(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1014,
		message: fmt.Sprintf("Expected type, got %s", gotText(gotKind, gotToken)),
		span:    span,
	}
}

func errExpectedExpression(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1015,
		message: fmt.Sprintf("Expected constant expression, got %s", gotText(gotKind, gotToken)),
		span:    span,
	}
}

func errExpectedCaseLabel(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1016,
		message: fmt.Sprintf("Expected 'case' or 'default', got %s", gotText(gotKind, gotToken)),
		span:    span,
	}
}

func errUnsupportedInterfaceExport(token string, span Span) error {
	return &Error{
		code:    1017,
		message: fmt.Sprintf("Interface member %q is not a type or constant declaration", token),
		span:    span,
	}
}

func errIntLitTooLarge(token string, start uint32) error {
	return &Error{
		code:    1018,
		message: fmt.Sprintf("Integer literal %s exceeds 64 bits", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errCharLitInvalid(token string, start uint32) error {
	return &Error{
		code:    1019,
		message: fmt.Sprintf("Invalid character literal %s", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errStringLitInvalid(token string, start uint32) error {
	return &Error{
		code:    1020,
		message: fmt.Sprintf("Invalid string literal %s", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errEmptyEnum(name string, span Span) error {
	return &Error{
		code:    1021,
		message: fmt.Sprintf("Enum '%s' has no enumerators", name),
		span:    span,
	}
}

func errEmptyStruct(name string, span Span) error {
	return &Error{
		code:    1022,
		message: fmt.Sprintf("Struct '%s' has no members", name),
		span:    span,
	}
}

func errEmptyUnion(name string, span Span) error {
	return &Error{
		code:    1023,
		message: fmt.Sprintf("Union '%s' has no cases", name),
		span:    span,
	}
}
