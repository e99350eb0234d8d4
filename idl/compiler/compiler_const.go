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
	"strconv"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

type constKind uint8

const (
	constKind_INT constKind = iota
	constKind_FLOAT
	constKind_BOOL
	constKind_CHAR
	constKind_STRING
)

func (k constKind) String() string {
	switch k {
	case constKind_INT:
		return "integer"
	case constKind_FLOAT:
		return "floating point"
	case constKind_BOOL:
		return "boolean"
	case constKind_CHAR:
		return "character"
	case constKind_STRING:
		return "string"
	}
	return fmt.Sprintf("constKind(%d)", uint8(k))
}

type constValue struct {
	kind constKind
	i    int64
	f    float64
	s    string
}

func (v constValue) String() string {
	switch v.kind {
	case constKind_FLOAT:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case constKind_BOOL:
		if v.i != 0 {
			return "TRUE"
		}
		return "FALSE"
	case constKind_CHAR:
		return strconv.QuoteRune(rune(v.i))
	case constKind_STRING:
		return strconv.Quote(v.s)
	}
	return strconv.FormatInt(v.i, 10)
}

func (v constValue) float() float64 {
	if v.kind == constKind_FLOAT {
		return v.f
	}
	return float64(v.i)
}

func intConst(i int64) constValue {
	return constValue{kind: constKind_INT, i: i}
}

// evalConst evaluates expr with names resolved from scope. Failures are
// reported and leave ok false.
func (c *compiler) evalConst(scope symtab.ScopedName, expr syntax.Expr) (constValue, bool) {
	switch expr := expr.(type) {
	case *syntax.IntLit:
		i, ok := expr.GetInt64()
		if !ok {
			c.err(errInvalidConstExpr(fmt.Sprintf("integer literal %d out of range", expr.Get()), expr.Span()))
			return constValue{}, false
		}
		return intConst(i), true
	case *syntax.FloatLit:
		return constValue{kind: constKind_FLOAT, f: expr.Get()}, true
	case *syntax.CharLit:
		return constValue{kind: constKind_CHAR, i: int64(expr.Get())}, true
	case *syntax.StringLit:
		return constValue{kind: constKind_STRING, s: expr.Get()}, true
	case *syntax.BoolLit:
		value := constValue{kind: constKind_BOOL}
		if expr.Get() {
			value.i = 1
		}
		return value, true
	case *syntax.ScopedNameRef:
		sym, ok := c.resolve(scope, expr)
		if !ok {
			c.err(errNameNotDefined(expr.String(), expr.Span()))
			return constValue{}, false
		}
		value, ok := c.consts[sym.Name().String()]
		if !ok {
			c.err(errInvalidConstExpr(fmt.Sprintf("%s has no constant value", sym.Name()), expr.Span()))
			return constValue{}, false
		}
		return value, true
	case *syntax.ParenExpr:
		return c.evalConst(scope, expr.Inner())
	case *syntax.UnaryExpr:
		return c.evalUnary(scope, expr)
	case *syntax.BinaryExpr:
		return c.evalBinary(scope, expr)
	}
	return constValue{}, false
}

func (c *compiler) evalUnary(scope symtab.ScopedName, expr *syntax.UnaryExpr) (constValue, bool) {
	operand, ok := c.evalConst(scope, expr.Operand())
	if !ok {
		return operand, false
	}
	switch {
	case operand.kind == constKind_INT:
		switch expr.Op() {
		case syntax.T_MINUS:
			return intConst(-operand.i), true
		case syntax.T_PLUS:
			return operand, true
		case syntax.T_TILDE:
			return intConst(^operand.i), true
		}
	case operand.kind == constKind_FLOAT:
		switch expr.Op() {
		case syntax.T_MINUS:
			return constValue{kind: constKind_FLOAT, f: -operand.f}, true
		case syntax.T_PLUS:
			return operand, true
		}
	}
	c.err(errInvalidConstExpr(
		fmt.Sprintf("operator %s does not apply to a %s value", expr.Op(), operand.kind),
		expr.Span(),
	))
	return constValue{}, false
}

func (c *compiler) evalBinary(scope symtab.ScopedName, expr *syntax.BinaryExpr) (constValue, bool) {
	lhs, ok := c.evalConst(scope, expr.Lhs())
	if !ok {
		return lhs, false
	}
	rhs, ok := c.evalConst(scope, expr.Rhs())
	if !ok {
		return rhs, false
	}
	op := expr.Op()

	if lhs.kind == constKind_INT && rhs.kind == constKind_INT {
		a, b := lhs.i, rhs.i
		switch op {
		case syntax.BinaryOp_OR:
			return intConst(a | b), true
		case syntax.BinaryOp_XOR:
			return intConst(a ^ b), true
		case syntax.BinaryOp_AND:
			return intConst(a & b), true
		case syntax.BinaryOp_SHL, syntax.BinaryOp_SHR:
			if b < 0 || b >= 64 {
				c.err(errInvalidConstExpr(fmt.Sprintf("shift count %d out of range", b), expr.Span()))
				return constValue{}, false
			}
			if op == syntax.BinaryOp_SHL {
				return intConst(a << uint(b)), true
			}
			return intConst(a >> uint(b)), true
		case syntax.BinaryOp_ADD:
			return intConst(a + b), true
		case syntax.BinaryOp_SUB:
			return intConst(a - b), true
		case syntax.BinaryOp_MUL:
			return intConst(a * b), true
		case syntax.BinaryOp_DIV, syntax.BinaryOp_MOD:
			if b == 0 {
				c.err(errDivisionByZero(expr.Span()))
				return constValue{}, false
			}
			if op == syntax.BinaryOp_DIV {
				return intConst(a / b), true
			}
			return intConst(a % b), true
		}
	}

	numeric := func(v constValue) bool {
		return v.kind == constKind_INT || v.kind == constKind_FLOAT
	}
	if numeric(lhs) && numeric(rhs) {
		a, b := lhs.float(), rhs.float()
		switch op {
		case syntax.BinaryOp_ADD:
			return constValue{kind: constKind_FLOAT, f: a + b}, true
		case syntax.BinaryOp_SUB:
			return constValue{kind: constKind_FLOAT, f: a - b}, true
		case syntax.BinaryOp_MUL:
			return constValue{kind: constKind_FLOAT, f: a * b}, true
		case syntax.BinaryOp_DIV:
			if b == 0 {
				c.err(errDivisionByZero(expr.Span()))
				return constValue{}, false
			}
			return constValue{kind: constKind_FLOAT, f: a / b}, true
		}
	}

	c.err(errInvalidConstExpr(
		fmt.Sprintf("operator %s does not apply to %s and %s values", op, lhs.kind, rhs.kind),
		expr.Span(),
	))
	return constValue{}, false
}

// evalPositive evaluates an array dimension or a bound.
func (c *compiler) evalPositive(scope symtab.ScopedName, expr syntax.Expr) (uint64, bool) {
	value, ok := c.evalConst(scope, expr)
	if !ok {
		return 0, false
	}
	if value.kind != constKind_INT {
		c.err(errInvalidConstExpr(fmt.Sprintf("expected an integer, got a %s value", value.kind), expr.Span()))
		return 0, false
	}
	if value.i <= 0 {
		c.err(errNonPositiveBound(value.i, expr.Span()))
		return 0, false
	}
	return uint64(value.i), true
}

// evalLabel evaluates a union case label. Integer, character, boolean
// and enumerator labels are allowed.
func (c *compiler) evalLabel(scope symtab.ScopedName, expr syntax.Expr) (int64, bool) {
	value, ok := c.evalConst(scope, expr)
	if !ok {
		return 0, false
	}
	switch value.kind {
	case constKind_INT, constKind_CHAR, constKind_BOOL:
		return value.i, true
	}
	c.err(errInvalidConstExpr(fmt.Sprintf("a %s value is not a valid case label", value.kind), expr.Span()))
	return 0, false
}
