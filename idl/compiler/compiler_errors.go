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

package compiler

import (
	"fmt"
	"strings"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

type Error struct {
	code    uint32
	message string
	span    syntax.Span
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

func (err *Error) Span() syntax.Span {
	return err.span
}

func errNameNotDefined(name string, span syntax.Span) error {
	return &Error{
		code:    3001,
		message: fmt.Sprintf("%s is not defined", name),
		span:    span,
	}
}

func errUnresolvedRelativeName(name string, scope symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3002,
		message: fmt.Sprintf("unable to resolve name %s in scope %s", name, scope),
		span:    span,
	}
}

func errUnresolvedAbsoluteName(name string, span syntax.Span) error {
	return &Error{
		code:    3003,
		message: fmt.Sprintf("unable to resolve name %s", name),
		span:    span,
	}
}

func errNameNotValidHere(name symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3004,
		message: fmt.Sprintf("scoped name %s does not refer to a valid type", name),
		span:    span,
	}
}

func errNonIntegerLiteral(literal string, span syntax.Span) error {
	return &Error{
		code:    3005,
		message: fmt.Sprintf("non-integer literal %s in integer constant definition", literal),
		span:    span,
	}
}

func errUnsupportedConstruct(construct string, span syntax.Span) error {
	return &Error{
		code:    3006,
		message: fmt.Sprintf("%s not supported", construct),
		span:    span,
	}
}

func errUnmappedConstruct(construct, option string, span syntax.Span) error {
	return &Error{
		code: 3007,
		message: fmt.Sprintf(
			"%s data not supported (enable %s, or use the lenient policy to skip it)",
			construct, option,
		),
		span: span,
	}
}

func errInvalidConstType(name symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3008,
		message: fmt.Sprintf("typedef %s is not valid for const declaration", name),
		span:    span,
	}
}

func errKeylistTopicNotFound(topic string, scope symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3009,
		message: fmt.Sprintf("unable to resolve topic %s for key, in scope %s", topic, scope),
		span:    span,
	}
}

func errKeylistFieldNotFound(field string, span syntax.Span) error {
	return &Error{
		code:    3010,
		message: fmt.Sprintf("keyfield %s is either missing or unsupported", field),
		span:    span,
	}
}

func errPredeclaredStructUnsupported(name symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3011,
		message: fmt.Sprintf("definition of predeclared struct %s contains unsupported data types", name),
		span:    span,
	}
}

func errUndefinedDeclarations(names []symtab.ScopedName) error {
	parts := make([]string, len(names))
	for ii, name := range names {
		parts[ii] = name.String()
	}
	return &Error{
		code:    3012,
		message: fmt.Sprintf("the following declarations were not defined: %s", strings.Join(parts, " ")),
	}
}

func errDivisionByZero(span syntax.Span) error {
	return &Error{
		code:    3013,
		message: "division by zero in constant expression",
		span:    span,
	}
}

func errNonPositiveBound(value int64, span syntax.Span) error {
	return &Error{
		code:    3014,
		message: fmt.Sprintf("expected a positive integer constant, got %d", value),
		span:    span,
	}
}

func errInvalidConstExpr(reason string, span syntax.Span) error {
	return &Error{
		code:    3015,
		message: fmt.Sprintf("invalid constant expression: %s", reason),
		span:    span,
	}
}

func errDuplicateName(name symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3016,
		message: fmt.Sprintf("%s is already defined", name),
		span:    span,
	}
}

func errIncompleteType(name symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3017,
		message: fmt.Sprintf("type %s is used before its definition is complete", name),
		span:    span,
	}
}

func errNotAType(name symtab.ScopedName, span syntax.Span) error {
	return &Error{
		code:    3018,
		message: fmt.Sprintf("%s does not name a type", name),
		span:    span,
	}
}

func errKeyPath(topic symtab.ScopedName, err error, span syntax.Span) error {
	return &Error{
		code:    3019,
		message: fmt.Sprintf("topic %s: %v", topic, err),
		span:    span,
	}
}

func errTypeOrder(err error) error {
	return &Error{
		code:    3020,
		message: err.Error(),
	}
}

func errInvalidDiscriminant(name string, span syntax.Span) error {
	return &Error{
		code:    3021,
		message: fmt.Sprintf("%s is not a valid union discriminant type", name),
		span:    span,
	}
}
