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
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

type buildCtx struct {
	scope symtab.ScopedName
	// parent is the innermost enclosing struct or union, empty at module
	// level.
	parent symtab.ScopedName
}

func (ctx buildCtx) enterModule(name string) buildCtx {
	ctx.scope = ctx.scope.Child(name)
	return ctx
}

func (ctx buildCtx) enterType(name symtab.ScopedName) buildCtx {
	ctx.scope = name
	ctx.parent = name
	return ctx
}

func (c *compiler) build(spec *syntax.Specification) {
	c.buildDefinitions(buildCtx{}, spec.Definitions())
}

func (c *compiler) buildDefinitions(ctx buildCtx, defs []syntax.Definition) {
	for _, def := range defs {
		switch def := def.(type) {
		case *syntax.Module:
			c.buildDefinitions(ctx.enterModule(def.Name().Get()), def.Definitions())
		case *syntax.Interface:
			if !def.IsForward() {
				c.buildDefinitions(ctx.enterModule(def.Name().Get()), def.Definitions())
			}
		case *syntax.Struct:
			if !def.IsForward() {
				c.buildStruct(ctx, def)
			}
		case *syntax.Union:
			if !def.IsForward() {
				c.buildUnion(ctx, def)
			}
		case *syntax.Enum:
			c.buildEnum(ctx, def)
		case *syntax.Typedef:
			c.buildTypedef(ctx, def)
		case *syntax.Const:
			c.buildConst(ctx, def)
		}
	}
}

// buildStruct returns nil when the struct was dropped by the lenient
// policy or could not be built.
func (c *compiler) buildStruct(ctx buildCtx, node *syntax.Struct) *meta.Struct {
	ident := node.Name()
	name := ctx.scope.Child(ident.Get())
	if _, ok := c.table.Lookup(name); !ok {
		c.warn(warnDeclarationSkipped(name, ident.Span()))
		return nil
	}

	out := &meta.Struct{Name: name, Parent: ctx.parent}
	inner := ctx.enterType(name)
	complete := true
	for _, member := range node.Members() {
		typ := c.buildTypeSpec(inner, member.TypeSpec())
		if typ == nil {
			complete = false
			continue
		}
		for _, decl := range member.Declarators() {
			declType, ok := c.applyDims(inner, typ, decl)
			if !ok {
				complete = false
				continue
			}
			out.AddMember(decl.Name().Get(), declType)
		}
	}
	if !complete {
		return nil
	}
	c.types.Add(out)
	return out
}

func (c *compiler) buildUnion(ctx buildCtx, node *syntax.Union) *meta.Union {
	ident := node.Name()
	name := ctx.scope.Child(ident.Get())
	out := &meta.Union{Name: name, Parent: ctx.parent}
	inner := ctx.enterType(name)

	switchSpec := node.SwitchType()
	disc := c.buildTypeSpec(inner, switchSpec)
	if disc == nil {
		return nil
	}
	if !isDiscriminant(disc) {
		c.err(errInvalidDiscriminant(syntax.Unparse(switchSpec), switchSpec.Span()))
		return nil
	}
	out.Discriminant = disc

	complete := true
	for _, unionCase := range node.Cases() {
		var labels []int64
		isDefault := false
		for _, label := range unionCase.Labels() {
			if label.IsDefault() {
				isDefault = true
				continue
			}
			value, ok := c.evalLabel(inner.scope, label.Value())
			if !ok {
				complete = false
				continue
			}
			labels = append(labels, value)
		}
		typ := c.buildTypeSpec(inner, unionCase.TypeSpec())
		if typ == nil {
			complete = false
			continue
		}
		decl := unionCase.Declarator()
		caseType, ok := c.applyDims(inner, typ, decl)
		if !ok {
			complete = false
			continue
		}
		out.AddCase(decl.Name().Get(), caseType, labels, isDefault)
	}
	if !complete {
		return nil
	}
	c.types.Add(out)
	return out
}

func isDiscriminant(t meta.Type) bool {
	switch t := meta.Deref(t).(type) {
	case *meta.Enum:
		return true
	case *meta.Basic:
		switch t.Kind {
		case meta.BasicKind_BOOLEAN, meta.BasicKind_CHAR,
			meta.BasicKind_SHORT, meta.BasicKind_USHORT,
			meta.BasicKind_LONG, meta.BasicKind_ULONG,
			meta.BasicKind_LONGLONG, meta.BasicKind_ULONGLONG:
			return true
		}
	}
	return false
}

func (c *compiler) buildEnum(ctx buildCtx, node *syntax.Enum) *meta.Enum {
	name := ctx.scope.Child(node.Name().Get())
	out := &meta.Enum{Name: name, Parent: ctx.parent}
	for ii, enumerator := range node.Enumerators() {
		out.Enumerators = append(out.Enumerators, enumerator.Get())
		c.consts[ctx.scope.Child(enumerator.Get()).String()] = intConst(int64(ii))
	}
	c.types.Add(out)
	return out
}

func (c *compiler) buildTypedef(ctx buildCtx, node *syntax.Typedef) {
	decls := node.Declarators()
	if len(decls) == 0 {
		return
	}
	first := ctx.scope.Child(decls[0].Name().Get())
	if _, ok := c.table.Lookup(first); !ok {
		c.warn(warnDeclarationSkipped(first, decls[0].Name().Span()))
		return
	}

	typ := c.buildTypeSpec(ctx, node.TypeSpec())
	if typ == nil {
		return
	}
	for _, decl := range decls {
		referent, ok := c.applyDims(ctx, typ, decl)
		if !ok {
			continue
		}
		c.types.Add(&meta.Alias{
			Name:     ctx.scope.Child(decl.Name().Get()),
			Referent: referent,
			Parent:   ctx.parent,
		})
	}
}

func (c *compiler) buildConst(ctx buildCtx, node *syntax.Const) {
	name := ctx.scope.Child(node.Name().Get())
	value, ok := c.evalConst(name, node.Value())
	if !ok {
		return
	}
	declared := c.buildTypeSpec(ctx, node.TypeSpec())
	if declared == nil {
		return
	}
	value, ok = coerceConst(declared, value)
	if !ok {
		c.err(errInvalidConstExpr(
			"a "+value.kind.String()+" value cannot initialize "+meta.CName(declared),
			node.Value().Span(),
		))
		return
	}
	c.consts[name.String()] = value
}

// coerceConst converts value to the representation of the declared
// type, widening integers assigned to floating point constants.
func coerceConst(declared meta.Type, value constValue) (constValue, bool) {
	switch t := meta.Deref(declared).(type) {
	case *meta.Enum:
		return value, value.kind == constKind_INT
	case *meta.BoundedString:
		return value, value.kind == constKind_STRING
	case *meta.Basic:
		switch t.Kind {
		case meta.BasicKind_FLOAT, meta.BasicKind_DOUBLE:
			if value.kind == constKind_INT {
				return constValue{kind: constKind_FLOAT, f: float64(value.i)}, true
			}
			return value, value.kind == constKind_FLOAT
		case meta.BasicKind_BOOLEAN:
			return value, value.kind == constKind_BOOL
		case meta.BasicKind_CHAR:
			return value, value.kind == constKind_CHAR
		case meta.BasicKind_STRING:
			return value, value.kind == constKind_STRING
		default:
			return value, value.kind == constKind_INT
		}
	}
	return value, false
}

// buildTypeSpec returns nil after reporting an error.
func (c *compiler) buildTypeSpec(ctx buildCtx, typeSpec syntax.TypeSpec) meta.Type {
	switch typeSpec := typeSpec.(type) {
	case *syntax.BaseType:
		return buildBaseType(typeSpec.Kind())
	case *syntax.StringType:
		bound := typeSpec.Bound()
		if bound == nil {
			return &meta.Basic{Kind: meta.BasicKind_STRING}
		}
		value, ok := c.evalPositive(ctx.scope, bound)
		if !ok {
			return nil
		}
		return &meta.BoundedString{Bound: value}
	case *syntax.SequenceType:
		elem := c.buildTypeSpec(ctx, typeSpec.Elem())
		if elem == nil {
			return nil
		}
		return &meta.Sequence{Elem: elem, ElemName: meta.CName(elem)}
	case *syntax.ScopedNameRef:
		return c.buildNameRef(ctx, typeSpec)
	case *syntax.Struct:
		if out := c.buildStruct(ctx, typeSpec); out != nil {
			return out
		}
	case *syntax.Union:
		if out := c.buildUnion(ctx, typeSpec); out != nil {
			return out
		}
	case *syntax.Enum:
		return c.buildEnum(ctx, typeSpec)
	case *syntax.FixedType:
		c.err(errUnsupportedConstruct("fixed point data", typeSpec.Span()))
	}
	return nil
}

func buildBaseType(kind syntax.BaseKind) meta.Type {
	var out meta.BasicKind
	switch kind {
	case syntax.BaseKind_SHORT:
		out = meta.BasicKind_SHORT
	case syntax.BaseKind_USHORT:
		out = meta.BasicKind_USHORT
	case syntax.BaseKind_LONG:
		out = meta.BasicKind_LONG
	case syntax.BaseKind_ULONG:
		out = meta.BasicKind_ULONG
	case syntax.BaseKind_LONGLONG:
		out = meta.BasicKind_LONGLONG
	case syntax.BaseKind_ULONGLONG:
		out = meta.BasicKind_ULONGLONG
	case syntax.BaseKind_FLOAT:
		out = meta.BasicKind_FLOAT
	case syntax.BaseKind_DOUBLE, syntax.BaseKind_LONGDOUBLE:
		out = meta.BasicKind_DOUBLE
	case syntax.BaseKind_CHAR, syntax.BaseKind_WCHAR:
		out = meta.BasicKind_CHAR
	case syntax.BaseKind_BOOLEAN:
		out = meta.BasicKind_BOOLEAN
	case syntax.BaseKind_OCTET:
		out = meta.BasicKind_OCTET
	default:
		return nil
	}
	return &meta.Basic{Kind: out}
}

func (c *compiler) buildNameRef(ctx buildCtx, ref *syntax.ScopedNameRef) meta.Type {
	sym, ok := c.resolve(ctx.scope, ref)
	if !ok {
		c.err(errNameNotDefined(ref.String(), ref.Span()))
		return nil
	}
	switch sym.(type) {
	case *symtab.IntConstSymbol, *symtab.OtherConstSymbol:
		c.err(errNotAType(sym.Name(), ref.Span()))
		return nil
	}
	typ, ok := c.types.Lookup(sym.Name())
	if !ok {
		c.err(errIncompleteType(sym.Name(), ref.Span()))
		return nil
	}
	return typ
}

func (c *compiler) applyDims(ctx buildCtx, typ meta.Type, decl *syntax.Declarator) (meta.Type, bool) {
	exprs := decl.Dims()
	if len(exprs) == 0 {
		return typ, true
	}
	dims := make([]uint64, 0, len(exprs))
	for _, expr := range exprs {
		dim, ok := c.evalPositive(ctx.scope, expr)
		if !ok {
			return nil, false
		}
		dims = append(dims, dim)
	}
	return meta.NewArray(dims, typ), true
}
