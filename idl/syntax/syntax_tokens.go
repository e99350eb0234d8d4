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

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)
)

type Token struct {
	Len  uint16
	Kind TokenKind
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT
	T_LINE_MARKER
	T_PRAGMA

	T_SEMICOLON
	T_COMMA
	T_COLON
	T_DOUBLE_COLON
	T_EQ

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_PAREN
	T_CLOSE_PAREN
	T_OPEN_SQUARE
	T_CLOSE_SQUARE
	T_LT
	T_GT

	T_PLUS
	T_MINUS
	T_STAR
	T_SLASH
	T_PERCENT
	T_TILDE
	T_PIPE
	T_CARET
	T_AMP

	T_INT_LIT
	T_OCT_INT_LIT
	T_HEX_INT_LIT
	T_FLOAT_LIT
	T_CHAR_LIT
	T_STRING_LIT

	T_IDENT
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_LINE_MARKER:
		return "LINE_MARKER"
	case T_PRAGMA:
		return "PRAGMA"
	case T_SEMICOLON:
		return "SEMICOLON"
	case T_COMMA:
		return "COMMA"
	case T_COLON:
		return "COLON"
	case T_DOUBLE_COLON:
		return "DOUBLE_COLON"
	case T_EQ:
		return "EQ"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_PAREN:
		return "OPEN_PAREN"
	case T_CLOSE_PAREN:
		return "CLOSE_PAREN"
	case T_OPEN_SQUARE:
		return "OPEN_SQUARE"
	case T_CLOSE_SQUARE:
		return "CLOSE_SQUARE"
	case T_LT:
		return "LT"
	case T_GT:
		return "GT"
	case T_PLUS:
		return "PLUS"
	case T_MINUS:
		return "MINUS"
	case T_STAR:
		return "STAR"
	case T_SLASH:
		return "SLASH"
	case T_PERCENT:
		return "PERCENT"
	case T_TILDE:
		return "TILDE"
	case T_PIPE:
		return "PIPE"
	case T_CARET:
		return "CARET"
	case T_AMP:
		return "AMP"
	case T_INT_LIT:
		return "INT_LIT"
	case T_OCT_INT_LIT:
		return "OCT_INT_LIT"
	case T_HEX_INT_LIT:
		return "HEX_INT_LIT"
	case T_FLOAT_LIT:
		return "FLOAT_LIT"
	case T_CHAR_LIT:
		return "CHAR_LIT"
	case T_STRING_LIT:
		return "STRING_LIT"
	case T_IDENT:
		return "IDENT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// isTrivia reports whether the token carries no grammatical meaning.
func (k TokenKind) isTrivia() bool {
	switch k {
	case T_SPACE, T_NEWLINE, T_COMMENT, T_LINE_MARKER:
		return true
	}
	return false
}

type Tokens struct {
	src    []byte
	offset uint32

	// Start of the current line, used to recognise `#` directives.
	lineStart bool
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src:       src,
		lineStart: true,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
		}
		return nil
	}

	lineStart := t.lineStart
	t.lineStart = false

	c := t.src[0]
	var kind TokenKind
	switch c {
	case '\t', ' ', '\f', '\v':
		t.lineStart = lineStart
		return t.nextSpace(token)
	case '\n':
		t.lineStart = true
		kind = T_NEWLINE
		goto len1
	case '\r':
		if len(t.src) < 2 || t.src[1] != '\n' {
			return errForbiddenControlCharacter(t.offset, c)
		}
		t.lineStart = true
		return t.emit(token, T_NEWLINE, 2)
	case ';':
		kind = T_SEMICOLON
		goto len1
	case ',':
		kind = T_COMMA
		goto len1
	case ':':
		if len(t.src) > 1 && t.src[1] == ':' {
			return t.emit(token, T_DOUBLE_COLON, 2)
		}
		kind = T_COLON
		goto len1
	case '=':
		kind = T_EQ
		goto len1
	case '{':
		kind = T_OPEN_CURL
		goto len1
	case '}':
		kind = T_CLOSE_CURL
		goto len1
	case '(':
		kind = T_OPEN_PAREN
		goto len1
	case ')':
		kind = T_CLOSE_PAREN
		goto len1
	case '[':
		kind = T_OPEN_SQUARE
		goto len1
	case ']':
		kind = T_CLOSE_SQUARE
		goto len1
	case '<':
		kind = T_LT
		goto len1
	case '>':
		kind = T_GT
		goto len1
	case '+':
		kind = T_PLUS
		goto len1
	case '-':
		kind = T_MINUS
		goto len1
	case '*':
		kind = T_STAR
		goto len1
	case '%':
		kind = T_PERCENT
		goto len1
	case '~':
		kind = T_TILDE
		goto len1
	case '|':
		kind = T_PIPE
		goto len1
	case '^':
		kind = T_CARET
		goto len1
	case '&':
		kind = T_AMP
		goto len1
	case '/':
		if len(t.src) > 1 && (t.src[1] == '/' || t.src[1] == '*') {
			t.lineStart = lineStart
			return t.nextComment(token)
		}
		kind = T_SLASH
		goto len1
	case '#':
		if !lineStart {
			return errUnexpectedCharacter(t.offset, '#')
		}
		return t.nextDirective(token)
	case '"':
		return t.nextQuoted(token, '"', T_STRING_LIT)
	case '\'':
		return t.nextQuoted(token, '\'', T_CHAR_LIT)
	default:
		goto big
	}

len1:
	return t.emit(token, kind, 1)

big:
	if c >= '0' && c <= '9' {
		return t.nextNumLit(token)
	}
	if c == '.' && len(t.src) > 1 && t.src[1] >= '0' && t.src[1] <= '9' {
		return t.nextNumLit(token)
	}

	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_' {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func (t *Tokens) emit(token *Token, kind TokenKind, tokenLen int) error {
	checked, err := t.checkTokenLen(tokenLen)
	if err != nil {
		return err
	}
	*token = Token{
		Kind: kind,
		Len:  checked,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextSpace(token *Token) error {
	tokenLen := 0
	for tokenLen < len(t.src) {
		switch t.src[tokenLen] {
		case ' ', '\t', '\f', '\v':
			tokenLen += 1
			continue
		}
		break
	}
	return t.emit(token, T_SPACE, tokenLen)
}

func (t *Tokens) nextComment(token *Token) error {
	src := t.src
	if src[1] == '/' {
		tokenLen := len(src)
		for ii, c := range src {
			if c == '\n' || c == '\r' {
				tokenLen = ii
				break
			}
		}
		return t.emit(token, T_COMMENT, tokenLen)
	}

	for ii := 2; ii+1 < len(src); ii++ {
		if src[ii] == '*' && src[ii+1] == '/' {
			return t.emit(token, T_COMMENT, ii+2)
		}
	}
	return errCommentUnterminated(t.offset, uint32(len(src)))
}

// nextDirective lexes a `#` line. `#pragma` lines are kept for the
// parser; anything else is a preprocessor line marker.
func (t *Tokens) nextDirective(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if c == '\n' || c == '\r' {
			tokenLen = ii
			break
		}
	}
	line := t.src[:tokenLen]
	kind := T_LINE_MARKER
	if isPragmaLine(line) {
		kind = T_PRAGMA
	}
	return t.emit(token, kind, tokenLen)
}

func isPragmaLine(line []byte) bool {
	line = line[1:]
	for len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		line = line[1:]
	}
	const pragma = "pragma"
	if len(line) < len(pragma) || string(line[:len(pragma)]) != pragma {
		return false
	}
	return len(line) == len(pragma) || line[len(pragma)] == ' ' || line[len(pragma)] == '\t'
}

func (t *Tokens) nextNumLit(token *Token) error {
	src := t.src
	if len(src) > 1 && src[0] == '0' && (src[1] == 'x' || src[1] == 'X') {
		tokenLen := 2
		for tokenLen < len(src) && isHexDigit(src[tokenLen]) {
			tokenLen += 1
		}
		if tokenLen == 2 || (tokenLen < len(src) && isIdentByte(src[tokenLen])) {
			return errIntLitInvalid(t.offset, src[:identEnd(src, tokenLen)])
		}
		return t.emit(token, T_HEX_INT_LIT, tokenLen)
	}

	tokenLen := 0
	for tokenLen < len(src) && src[tokenLen] >= '0' && src[tokenLen] <= '9' {
		tokenLen += 1
	}
	isFloat := false
	if tokenLen < len(src) && src[tokenLen] == '.' {
		isFloat = true
		tokenLen += 1
		for tokenLen < len(src) && src[tokenLen] >= '0' && src[tokenLen] <= '9' {
			tokenLen += 1
		}
	}
	if tokenLen < len(src) && (src[tokenLen] == 'e' || src[tokenLen] == 'E') {
		expLen := tokenLen + 1
		if expLen < len(src) && (src[expLen] == '+' || src[expLen] == '-') {
			expLen += 1
		}
		digits := expLen
		for digits < len(src) && src[digits] >= '0' && src[digits] <= '9' {
			digits += 1
		}
		if digits == expLen {
			return errFloatLitInvalid(t.offset, src[:identEnd(src, digits)])
		}
		isFloat = true
		tokenLen = digits
	}
	if isFloat {
		if tokenLen < len(src) && (src[tokenLen] == 'd' || src[tokenLen] == 'D') {
			// fixed-point literal suffix
			tokenLen += 1
		}
		if tokenLen < len(src) && isIdentByte(src[tokenLen]) {
			return errFloatLitInvalid(t.offset, src[:identEnd(src, tokenLen)])
		}
		return t.emit(token, T_FLOAT_LIT, tokenLen)
	}

	if tokenLen < len(src) && isIdentByte(src[tokenLen]) {
		return errIntLitInvalid(t.offset, src[:identEnd(src, tokenLen)])
	}
	kind := T_INT_LIT
	if tokenLen > 1 && src[0] == '0' {
		for _, c := range src[1:tokenLen] {
			if c > '7' {
				return errIntLitInvalid(t.offset, src[:tokenLen])
			}
		}
		kind = T_OCT_INT_LIT
	}
	return t.emit(token, kind, tokenLen)
}

func (t *Tokens) nextQuoted(token *Token, quote byte, kind TokenKind) error {
	escaped := false
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if c == quote {
			return t.emit(token, kind, ii+1)
		}
		if c == '\n' || c == '\r' {
			return errLitContainsNewline(t.offset+uint32(ii), kind)
		}
		escaped = c == '\\'
	}
	return errLitUnterminated(t.offset, uint32(len(t.src)), kind)
}

func (t *Tokens) nextIdent(token *Token) error {
	tokenLen := identEnd(t.src, 0)
	if tokenLen == 1 && t.src[0] == '_' {
		return errIdentInvalid(t.offset, t.src[:1])
	}
	return t.emit(token, T_IDENT, tokenLen)
}

func (t *Tokens) checkTokenLen(len int) (uint16, error) {
	if len > maxTokenLen {
		return 0, errTokenTooLong(t.offset, len)
	}
	return uint16(len), nil
}

func identEnd(src []byte, start int) int {
	end := start
	for end < len(src) && isIdentByte(src[end]) {
		end += 1
	}
	return end
}

func isIdentByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
