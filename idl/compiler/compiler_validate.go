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
	"strings"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

// keylist is a `#pragma keylist` whose topic resolved to a struct.
type keylist struct {
	topic  symtab.ScopedName
	fields []string
	span   syntax.Span
}

// typedefState classifies the typedef under construction.
type typedefState struct {
	name          symtab.ScopedName
	isInteger     bool
	isNonintConst bool
	valid         bool
}

// validateCtx is copied on every descent, so changes made while visiting
// a declaration are never seen by its siblings.
type validateCtx struct {
	scope symtab.ScopedName

	// owner is the innermost struct under construction. Unsupported data
	// invalidates it.
	owner *symtab.StructSymbol
	// members receives member declarators. It is nil inside unions.
	members *symtab.StructSymbol
	td      *typedefState

	inIntConst    bool
	inNonintConst bool
	inSwitch      bool
}

func (ctx validateCtx) push(name string) validateCtx {
	ctx.scope = ctx.scope.Child(name)
	return ctx
}

func (c *compiler) validate(spec *syntax.Specification) {
	c.validateDefinitions(validateCtx{}, spec.Definitions())
	if c.pending.Len() > 0 {
		c.err(errUndefinedDeclarations(c.pending.Names()))
	}
}

func (c *compiler) insert(symbol symtab.Symbol, span syntax.Span) bool {
	if _, dup := c.table.Lookup(symbol.Name()); dup {
		c.err(errDuplicateName(symbol.Name(), span))
		return false
	}
	c.table.Insert(symbol)
	return true
}

func (c *compiler) resolve(scope symtab.ScopedName, ref *syntax.ScopedNameRef) (symtab.Symbol, bool) {
	requested := symtab.NewScopedName(ref.Components()...)
	if ref.IsAbsolute() {
		return c.table.Resolve(symtab.ScopedName{}, requested)
	}
	return c.table.Resolve(scope, requested)
}

func (c *compiler) validateDefinitions(ctx validateCtx, defs []syntax.Definition) {
	for _, def := range defs {
		c.validateDefinition(ctx, def)
	}
}

func (c *compiler) validateDefinition(ctx validateCtx, def syntax.Definition) {
	switch def := def.(type) {
	case *syntax.Module:
		c.validateDefinitions(ctx.push(def.Name().Get()), def.Definitions())
	case *syntax.Interface:
		if !def.IsForward() {
			c.validateDefinitions(ctx.push(def.Name().Get()), def.Definitions())
		}
	case *syntax.Struct:
		c.validateStruct(ctx, def)
	case *syntax.Union:
		c.validateUnion(ctx, def)
	case *syntax.Enum:
		c.validateEnum(ctx, def)
	case *syntax.Typedef:
		c.validateTypedef(ctx, def)
	case *syntax.Const:
		c.validateConst(ctx, def)
	case *syntax.Pragma:
		c.validatePragma(ctx, def)
	}
}

func (c *compiler) forwardDecl(name symtab.ScopedName) {
	if _, defined := c.table.Lookup(name); !defined {
		c.pending.Add(name)
	}
}

func (c *compiler) validateStruct(ctx validateCtx, node *syntax.Struct) {
	ident := node.Name()
	name := ctx.scope.Child(ident.Get())
	if node.IsForward() {
		c.forwardDecl(name)
		return
	}

	sym := symtab.NewStructSymbol(name)
	inner := ctx.push(ident.Get())
	inner.owner = sym
	inner.members = sym
	for _, member := range node.Members() {
		c.validateMember(inner, member)
	}

	declared := c.pending.Remove(name)
	if sym.IsValid() {
		c.insert(sym, ident.Span())
		return
	}
	if declared && c.opts.policy == Policy_LENIENT {
		c.err(errPredeclaredStructUnsupported(name, ident.Span()))
	}
	// A dropped nested struct takes its enclosing declaration with it.
	if ctx.owner != nil {
		ctx.owner.Invalidate()
	}
	if ctx.td != nil {
		ctx.td.valid = false
	}
}

func (c *compiler) validateMember(ctx validateCtx, member *syntax.Member) {
	typeSpec := member.TypeSpec()
	c.validateTypeSpec(ctx, typeSpec, true)

	var nested *symtab.StructSymbol
	switch typeSpec := typeSpec.(type) {
	case *syntax.ScopedNameRef:
		if sym, ok := c.resolve(ctx.scope, typeSpec); ok {
			nested, _ = sym.(*symtab.StructSymbol)
		}
	case *syntax.Struct:
		if sym, ok := c.table.Lookup(ctx.scope.Child(typeSpec.Name().Get())); ok {
			nested, _ = sym.(*symtab.StructSymbol)
		}
	}

	for _, decl := range member.Declarators() {
		name := decl.Name().Get()
		if ctx.members != nil && ctx.members.HasMember(name) {
			c.err(errDuplicateName(ctx.scope.Child(name), decl.Name().Span()))
		} else if ctx.members != nil {
			if nested != nil && len(decl.Dims()) == 0 {
				ctx.members.AddStructMember(name, nested)
			} else {
				ctx.members.AddMember(name)
			}
		}
		c.validateDeclarator(ctx, decl)
	}
}

func (c *compiler) validateDeclarator(ctx validateCtx, decl *syntax.Declarator) {
	if decl == nil {
		return
	}
	for _, dim := range decl.Dims() {
		c.validatePositiveIntConst(ctx, dim)
	}
}

func (c *compiler) validatePositiveIntConst(ctx validateCtx, expr syntax.Expr) {
	ctx.inIntConst = true
	c.validateExpr(ctx, expr)
}

func (c *compiler) validateUnion(ctx validateCtx, node *syntax.Union) {
	ident := node.Name()
	name := ctx.scope.Child(ident.Get())
	if node.IsForward() {
		c.forwardDecl(name)
		return
	}

	c.insert(symtab.NewUnionSymbol(name), ident.Span())
	c.pending.Remove(name)

	inner := ctx.push(ident.Get())
	inner.members = nil
	c.validateTypeSpec(inner, node.SwitchType(), false)
	caseNames := make(map[string]struct{})
	for _, unionCase := range node.Cases() {
		labelCtx := inner
		labelCtx.inSwitch = true
		for _, label := range unionCase.Labels() {
			if !label.IsDefault() {
				c.validateExpr(labelCtx, label.Value())
			}
		}
		c.validateTypeSpec(inner, unionCase.TypeSpec(), false)
		if decl := unionCase.Declarator(); decl != nil {
			caseName := decl.Name().Get()
			if _, dup := caseNames[caseName]; dup {
				c.err(errDuplicateName(inner.scope.Child(caseName), decl.Name().Span()))
			}
			caseNames[caseName] = struct{}{}
		}
		c.validateDeclarator(inner, unionCase.Declarator())
	}
}

func (c *compiler) validateEnum(ctx validateCtx, node *syntax.Enum) {
	ident := node.Name()
	c.insert(symtab.NewEnumSymbol(ctx.scope.Child(ident.Get())), ident.Span())
	for _, enumerator := range node.Enumerators() {
		c.insert(
			symtab.NewIntConstSymbol(ctx.scope.Child(enumerator.Get())),
			enumerator.Span(),
		)
	}
}

func (c *compiler) validateTypedef(ctx validateCtx, node *syntax.Typedef) {
	decls := node.Declarators()
	td := &typedefState{valid: true}
	if len(decls) > 0 {
		td.name = ctx.scope.Child(decls[0].Name().Get())
	}
	inner := ctx
	inner.td = td
	c.validateTypeSpec(inner, node.TypeSpec(), false)
	for _, decl := range decls {
		c.validateDeclarator(inner, decl)
	}
	if !td.valid {
		return
	}
	for _, decl := range decls {
		ident := decl.Name()
		c.insert(symtab.NewTypeDeclSymbol(
			ctx.scope.Child(ident.Get()),
			td.isInteger,
			td.isNonintConst,
		), ident.Span())
	}
}

func (c *compiler) validateConst(ctx validateCtx, node *syntax.Const) {
	ident := node.Name()
	inner := ctx.push(ident.Get())

	integral := false
	valid := true
	switch typeSpec := node.TypeSpec().(type) {
	case *syntax.BaseType:
		kind := typeSpec.Kind()
		integral = kind.IsInteger() || kind == syntax.BaseKind_OCTET
	case *syntax.ScopedNameRef:
		// Unresolved names are reported when the type is visited below.
		if sym, ok := c.resolve(inner.scope, typeSpec); ok {
			if td, isTypedef := sym.(*symtab.TypeDeclSymbol); isTypedef {
				switch {
				case td.IsInteger():
					integral = true
				case td.IsNonintConst():
				default:
					valid = false
					c.err(errInvalidConstType(td.Name(), typeSpec.Span()))
				}
			}
		}
	}

	if valid {
		if integral {
			c.insert(symtab.NewIntConstSymbol(inner.scope), ident.Span())
			inner.inIntConst = true
		} else {
			c.insert(symtab.NewOtherConstSymbol(inner.scope), ident.Span())
			inner.inNonintConst = true
		}
	}
	c.validateTypeSpec(inner, node.TypeSpec(), false)
	c.validateExpr(inner, node.Value())
}

func (c *compiler) validatePragma(ctx validateCtx, node *syntax.Pragma) {
	fields, err := node.Fields()
	if err != nil || len(fields) == 0 || fields[0] != "keylist" {
		return
	}
	var args []string
	for _, field := range fields[1:] {
		for _, arg := range strings.Split(field, ",") {
			if arg != "" {
				args = append(args, arg)
			}
		}
	}

	span := node.Span()
	if len(args) == 0 {
		c.err(errKeylistTopicNotFound("", ctx.scope, span))
		return
	}
	topicName, absolute := symtab.ParseScopedName(args[0])
	scope := ctx.scope
	if absolute {
		scope = symtab.ScopedName{}
	}
	sym, ok := c.table.Resolve(scope, topicName)
	topic, isStruct := sym.(*symtab.StructSymbol)
	if !ok || !isStruct {
		c.err(errKeylistTopicNotFound(args[0], ctx.scope, span))
		return
	}

	valid := true
	for _, field := range args[1:] {
		if !topic.HasMember(field) {
			c.err(errKeylistFieldNotFound(field, span))
			valid = false
		}
	}
	if valid {
		c.keylists = append(c.keylists, &keylist{
			topic:  topic.Name(),
			fields: args[1:],
			span:   span,
		})
	}
}

func (c *compiler) validateTypeSpec(ctx validateCtx, typeSpec syntax.TypeSpec, member bool) {
	switch typeSpec := typeSpec.(type) {
	case *syntax.BaseType:
		c.validateBaseType(ctx, typeSpec)
	case *syntax.ScopedNameRef:
		c.validateNameRef(ctx, typeSpec, member)
	case *syntax.StringType:
		if typeSpec.IsWide() && !c.opts.mapWide {
			c.unsupported(ctx, "wide string", "map-wide", typeSpec.Span())
		}
		if bound := typeSpec.Bound(); bound != nil {
			c.validatePositiveIntConst(ctx, bound)
		}
	case *syntax.SequenceType:
		if bound := typeSpec.Bound(); bound != nil {
			c.err(errUnsupportedConstruct("bounded sequence", typeSpec.Span()))
			c.validatePositiveIntConst(ctx, bound)
		}
		c.validateTypeSpec(ctx, typeSpec.Elem(), false)
	case *syntax.FixedType:
		c.err(errUnsupportedConstruct("fixed point data", typeSpec.Span()))
		if digits := typeSpec.Digits(); digits != nil {
			c.validatePositiveIntConst(ctx, digits)
		}
		if scale := typeSpec.Scale(); scale != nil {
			c.validatePositiveIntConst(ctx, scale)
		}
	case *syntax.Struct:
		c.validateStruct(ctx, typeSpec)
	case *syntax.Union:
		c.validateUnion(ctx, typeSpec)
	case *syntax.Enum:
		c.validateEnum(ctx, typeSpec)
	}
}

func (c *compiler) validateBaseType(ctx validateCtx, node *syntax.BaseType) {
	kind := node.Kind()
	switch {
	case kind.IsInteger():
		if ctx.td != nil {
			ctx.td.isInteger = true
		}
	case kind == syntax.BaseKind_FLOAT, kind == syntax.BaseKind_DOUBLE, kind == syntax.BaseKind_LONGDOUBLE:
		if kind == syntax.BaseKind_LONGDOUBLE && !c.opts.mapLongDouble {
			c.unsupported(ctx, "long double", "map-long-double", node.Span())
		}
		if ctx.td != nil {
			ctx.td.isNonintConst = true
		}
	case kind == syntax.BaseKind_BOOLEAN:
		if ctx.td != nil {
			ctx.td.isNonintConst = true
		}
	case kind == syntax.BaseKind_WCHAR:
		if !c.opts.mapWide {
			c.unsupported(ctx, "wide char", "map-wide", node.Span())
		}
	case kind == syntax.BaseKind_ANY:
		c.err(errUnsupportedConstruct("any data", node.Span()))
	case kind == syntax.BaseKind_OBJECT:
		c.err(errUnsupportedConstruct("Object data", node.Span()))
	case kind == syntax.BaseKind_VALUEBASE:
		c.err(errUnsupportedConstruct("ValueBase data", node.Span()))
	}
}

// unsupported handles data types that can be remapped by an option.
func (c *compiler) unsupported(ctx validateCtx, construct, option string, span syntax.Span) {
	if c.opts.policy == Policy_STRICT {
		c.err(errUnmappedConstruct(construct, option, span))
		return
	}
	invalidated := false
	if ctx.owner != nil {
		ctx.owner.Invalidate()
		c.warn(warnUnsupportedSkipped(construct, ctx.owner.Name(), span))
		invalidated = true
	}
	if ctx.td != nil {
		ctx.td.valid = false
		if !invalidated {
			c.warn(warnUnsupportedSkipped(construct, ctx.td.name, span))
		}
		invalidated = true
	}
	if !invalidated {
		c.err(errUnmappedConstruct(construct, option, span))
	}
}

func (c *compiler) validateNameRef(ctx validateCtx, ref *syntax.ScopedNameRef, member bool) {
	target, ok := c.resolve(ctx.scope, ref)
	if !ok {
		requested := symtab.NewScopedName(ref.Components()...)
		switch {
		case member || ctx.inIntConst:
			c.err(errNameNotDefined(ref.String(), ref.Span()))
		case !ref.IsAbsolute():
			if !c.pending.ResolveRelative(ctx.scope, requested) {
				c.err(errUnresolvedRelativeName(ref.String(), ctx.scope, ref.Span()))
			}
		default:
			if !c.pending.Contains(requested) {
				c.err(errUnresolvedAbsoluteName(ref.String(), ref.Span()))
			}
		}
		return
	}

	targetInt := target.IsInteger()
	targetNonint := target.IsNonintConst()
	if ctx.td != nil {
		if targetInt {
			ctx.td.isInteger = true
		}
		if targetNonint {
			ctx.td.isNonintConst = true
		}
	}

	valid := true
	if ctx.inIntConst || ctx.inSwitch {
		valid = targetInt
	} else if ctx.inNonintConst {
		valid = targetNonint
	}
	if !valid {
		c.err(errNameNotValidHere(target.Name(), ref.Span()))
	}
}

func (c *compiler) validateExpr(ctx validateCtx, expr syntax.Expr) {
	switch expr := expr.(type) {
	case *syntax.IntLit:
	case *syntax.FloatLit, *syntax.CharLit, *syntax.StringLit, *syntax.BoolLit:
		if ctx.inIntConst {
			c.err(errNonIntegerLiteral(syntax.Unparse(expr), expr.Span()))
		}
	case *syntax.ScopedNameRef:
		c.validateNameRef(ctx, expr, false)
	case *syntax.UnaryExpr:
		c.validateExpr(ctx, expr.Operand())
	case *syntax.BinaryExpr:
		c.validateExpr(ctx, expr.Lhs())
		c.validateExpr(ctx, expr.Rhs())
	case *syntax.ParenExpr:
		c.validateExpr(ctx, expr.Inner())
	}
}
