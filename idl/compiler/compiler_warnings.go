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

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

type Warning struct {
	code    uint32
	message string
	span    syntax.Span
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Span() syntax.Span {
	return w.span
}

func warnUnsupportedSkipped(construct string, owner symtab.ScopedName, span syntax.Span) *Warning {
	return &Warning{
		code:    4000,
		message: fmt.Sprintf("%s data not supported, %s will be skipped", construct, owner),
		span:    span,
	}
}

func warnDeclarationSkipped(name symtab.ScopedName, span syntax.Span) *Warning {
	return &Warning{
		code:    4001,
		message: fmt.Sprintf("%s contains unsupported data types and was not generated", name),
		span:    span,
	}
}

func warnDuplicateKeylist(topic symtab.ScopedName, span syntax.Span) *Warning {
	return &Warning{
		code:    4002,
		message: fmt.Sprintf("keylist for %s replaces an earlier keylist", topic),
		span:    span,
	}
}
