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
	"slices"
)

type ParseOption interface {
	apply(*ParseOptions)
}

type parseOption func(*ParseOptions)

func (f parseOption) apply(opts *ParseOptions) { f(opts) }

// WithTrivia controls whether spaces, newlines, comments and line markers
// are kept in the tree. They are kept by default so that Unparse returns
// the original source.
func WithTrivia(keep bool) ParseOption {
	return parseOption(func(opts *ParseOptions) {
		opts.saveTrivia = keep
	})
}

func Parse(src []uint8, opts ...ParseOption) (*Specification, error) {
	return NewParseOptions(opts...).ParseSpecification(src)
}

type ParseOptions struct {
	saveTrivia bool
}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOptions := &ParseOptions{
		saveTrivia: true,
	}
	for _, opt := range opts {
		opt.apply(parseOptions)
	}
	return parseOptions
}

func (opts *ParseOptions) ParseSpecification(src []uint8) (*Specification, error) {
	ctx, err := newParseCtx[Specification](opts, src)
	if err != nil {
		return nil, err
	}
	return parseSpecification(ctx)
}

func (opts *ParseOptions) ParseStruct(src []uint8) (*Struct, error) {
	ctx, err := newParseCtx[Struct](opts, src)
	if err != nil {
		return nil, err
	}
	return parseStruct(ctx)
}

func (opts *ParseOptions) ParseUnion(src []uint8) (*Union, error) {
	ctx, err := newParseCtx[Union](opts, src)
	if err != nil {
		return nil, err
	}
	return parseUnion(ctx)
}

func (opts *ParseOptions) ParseEnum(src []uint8) (*Enum, error) {
	ctx, err := newParseCtx[Enum](opts, src)
	if err != nil {
		return nil, err
	}
	return parseEnum(ctx)
}

func (opts *ParseOptions) ParseTypedef(src []uint8) (*Typedef, error) {
	ctx, err := newParseCtx[Typedef](opts, src)
	if err != nil {
		return nil, err
	}
	return parseTypedef(ctx)
}

func (opts *ParseOptions) ParseConst(src []uint8) (*Const, error) {
	ctx, err := newParseCtx[Const](opts, src)
	if err != nil {
		return nil, err
	}
	return parseConst(ctx)
}

// reservedWords may not be used as identifiers without an escaping
// underscore.
var reservedWords = map[string]struct{}{
	"abstract": {}, "any": {}, "attribute": {}, "boolean": {}, "case": {},
	"char": {}, "const": {}, "context": {}, "custom": {}, "default": {},
	"double": {}, "enum": {}, "exception": {}, "factory": {}, "FALSE": {},
	"fixed": {}, "float": {}, "in": {}, "inout": {}, "interface": {},
	"local": {}, "long": {}, "module": {}, "native": {}, "Object": {},
	"octet": {}, "oneway": {}, "out": {}, "private": {}, "public": {},
	"raises": {}, "readonly": {}, "sequence": {}, "short": {}, "string": {},
	"struct": {}, "supports": {}, "switch": {}, "TRUE": {}, "truncatable": {},
	"typedef": {}, "unsigned": {}, "union": {}, "ValueBase": {},
	"valuetype": {}, "void": {}, "wchar": {}, "wstring": {},
}

var baseTypeWords = map[string]BaseKind{
	"short":     BaseKind_SHORT,
	"float":     BaseKind_FLOAT,
	"double":    BaseKind_DOUBLE,
	"char":      BaseKind_CHAR,
	"wchar":     BaseKind_WCHAR,
	"boolean":   BaseKind_BOOLEAN,
	"octet":     BaseKind_OCTET,
	"any":       BaseKind_ANY,
	"Object":    BaseKind_OBJECT,
	"ValueBase": BaseKind_VALUEBASE,
}

type parseCtx[T any] struct {
	src        []uint8
	opts       *ParseOptions
	tokens     *Tokens
	childNodes []Node
	haveToken  bool
	token      Token
	err        error
	consumed   uint32
	offset     uint32

	// Bounds of the significant tokens consumed so far. Leading and
	// trailing trivia are outside a node's span.
	started bool
	start   uint32
	end     uint32
}

func newParseCtx[T any](opts *ParseOptions, src []uint8) (*parseCtx[T], error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	return &parseCtx[T]{
		src:    src,
		opts:   opts,
		tokens: tokens,
	}, nil
}

func (ctx *parseCtx[T]) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.haveToken {
		return nil
	}
	if err := ctx.tokens.Next(&ctx.token); err != nil {
		ctx.err = err
		return ctx.err
	}
	ctx.haveToken = true
	return nil
}

func (ctx *parseCtx[T]) readToken() []uint8 {
	return ctx.src[:ctx.token.Len]
}

func (ctx *parseCtx[T]) extend(start, end uint32) {
	if !ctx.started {
		ctx.started = true
		ctx.start = start
	}
	ctx.end = end
}

func (ctx *parseCtx[T]) consumeToken(child Node) {
	if !ctx.token.Kind.isTrivia() {
		ctx.extend(ctx.offset, ctx.offset+uint32(ctx.token.Len))
	}
	ctx.src = ctx.src[ctx.token.Len:]
	ctx.consumed += uint32(ctx.token.Len)
	ctx.offset += uint32(ctx.token.Len)
	ctx.haveToken = false
	if child != nil {
		ctx.childNodes = append(ctx.childNodes, child)
	}
}

func (ctx *parseCtx[T]) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx[T]) rawToken() tokenNode {
	return tokenNode{
		raw:   string(ctx.readToken()),
		start: ctx.offset,
	}
}

func (ctx *parseCtx[T]) loop(yield func(struct{}) bool) {
	if ctx.err != nil {
		return
	}
	for {
		consumed := ctx.consumed
		if !yield(struct{}{}) {
			return
		}
		if ctx.err != nil {
			return
		}
		if consumed == ctx.consumed {
			return
		}
	}
}

// trivia consumes spaces, newlines, comments and line markers.
func (ctx *parseCtx[T]) trivia() {
	for {
		if err := ctx.ensureToken(); err != nil {
			return
		}
		if !ctx.token.Kind.isTrivia() {
			return
		}
		if !ctx.opts.saveTrivia {
			ctx.consumeToken(nil)
			continue
		}
		raw := ctx.rawToken()
		switch ctx.token.Kind {
		case T_SPACE:
			ctx.consumeToken(&Space{raw})
		case T_NEWLINE:
			ctx.consumeToken(&Newline{raw})
		case T_COMMENT:
			ctx.consumeToken(&Comment{raw})
		case T_LINE_MARKER:
			ctx.consumeToken(&LineMarker{raw})
		}
	}
}

// peek skips trivia and returns the kind of the next significant token.
func (ctx *parseCtx[T]) peek() TokenKind {
	ctx.trivia()
	if err := ctx.ensureToken(); err != nil {
		return T_EOF
	}
	return ctx.token.Kind
}

func (ctx *parseCtx[T]) peekKeyword(keyword string) bool {
	return ctx.peek() == T_IDENT && string(ctx.readToken()) == keyword
}

func (ctx *parseCtx[T]) peekWord() string {
	if ctx.peek() != T_IDENT {
		return ""
	}
	return string(ctx.readToken())
}

func (ctx *parseCtx[T]) sigil(kind TokenKind) {
	if ctx.peek() != kind {
		if ctx.err != nil {
			return
		}
		ctx.err = errExpectedSigil(
			kind,
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
		return
	}
	ctx.consumeToken(&Sigil{ctx.rawToken()})
}

func (ctx *parseCtx[T]) trySigil(kind TokenKind) bool {
	if ctx.peek() != kind {
		return false
	}
	ctx.consumeToken(&Sigil{ctx.rawToken()})
	return true
}

// tryDoubleSigil consumes two adjacent `kind` tokens (`<<`, `>>`) as one
// sigil. The lexer never joins them so that nested template brackets in
// `sequence<sequence<long>>` close correctly.
func (ctx *parseCtx[T]) tryDoubleSigil(kind TokenKind) bool {
	if ctx.peek() != kind || len(ctx.src) < 2 || ctx.src[1] != ctx.src[0] {
		return false
	}
	start := ctx.offset
	raw := string(ctx.src[:2])
	ctx.consumeToken(nil)
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	ctx.consumeToken(&Sigil{tokenNode{raw: raw, start: start}})
	return true
}

func (ctx *parseCtx[T]) keyword(keyword string) {
	if !ctx.tryKeyword(keyword) && ctx.err == nil {
		ctx.err = errExpectedSigil(
			T_IDENT,
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
	}
}

func (ctx *parseCtx[T]) tryKeyword(keyword string) bool {
	if !ctx.peekKeyword(keyword) {
		return false
	}
	ctx.consumeToken(&Keyword{ctx.rawToken()})
	return true
}

func (ctx *parseCtx[T]) ident() *Ident {
	kind := ctx.peek()
	if ctx.err != nil {
		return nil
	}
	token := string(ctx.readToken())
	if kind != T_IDENT {
		ctx.err = errExpectedIdent(kind, token, ctx.tokenSpan())
		return nil
	}
	if _, reserved := reservedWords[token]; reserved {
		ctx.err = errExpectedIdent(kind, token, ctx.tokenSpan())
		return nil
	}
	ident := &Ident{ctx.rawToken()}
	ctx.consumeToken(ident)
	return ident
}

// reduce replaces the child nodes added since mark with a single node.
func (ctx *parseCtx[T]) reduce(mark int, build func(span Span, childNodes []Node) Expr) Expr {
	if ctx.err != nil || mark >= len(ctx.childNodes) {
		return nil
	}
	childNodes := slices.Clone(ctx.childNodes[mark:])
	ctx.childNodes = ctx.childNodes[:mark]
	firstSpan := childNodes[0].Span()
	start := firstSpan.Start()
	node := build(Span{start: start, len: ctx.end - start}, childNodes)
	ctx.childNodes = append(ctx.childNodes, node)
	return node
}

func (ctx *parseCtx[T]) finish(
	build func(span Span, childNodes []Node) *T,
) (*T, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}
	span := Span{start: ctx.offset}
	if ctx.started {
		span = Span{start: ctx.start, len: ctx.end - ctx.start}
	}
	return build(span, ctx.childNodes), nil
}

func parseChild[P any, C any, PtrC interface {
	*C
	Node
}](
	ctx *parseCtx[P],
	parseChildFn func(*parseCtx[C]) (PtrC, error),
) (*C, bool) {
	if ctx.err != nil {
		return nil, false
	}
	childCtx := &parseCtx[C]{
		src:       ctx.src,
		opts:      ctx.opts,
		tokens:    ctx.tokens,
		haveToken: ctx.haveToken,
		token:     ctx.token,
		offset:    ctx.offset,
	}
	child, err := parseChildFn(childCtx)
	if err != nil {
		ctx.err = err
		return nil, false
	}

	ctx.haveToken = childCtx.haveToken
	ctx.token = childCtx.token
	ctx.src = ctx.src[childCtx.consumed:]
	ctx.consumed += childCtx.consumed
	ctx.offset = childCtx.offset

	if childCtx.consumed == 0 || child == nil {
		// Only trivia was consumed.
		ctx.childNodes = append(ctx.childNodes, childCtx.childNodes...)
		return nil, false
	}
	childSpan := child.Span()
	ctx.extend(childSpan.Start(), childSpan.End())
	ctx.childNodes = append(ctx.childNodes, child)
	return child, true
}

func parseSpecification(ctx *parseCtx[Specification]) (*Specification, error) {
	var definitions []Definition
	for _ = range ctx.loop {
		if ctx.peek() == T_EOF {
			break
		}
		if def := parseDefinition(ctx, false); def != nil {
			definitions = append(definitions, def)
		}
	}
	ctx.trivia()

	return ctx.finish(func(span Span, childNodes []Node) *Specification {
		return &Specification{
			nodeBase:    nodeBase{span, childNodes},
			definitions: definitions,
		}
	})
}

func parseDefinition[T any](ctx *parseCtx[T], inInterface bool) Definition {
	kind := ctx.peek()
	if ctx.err != nil {
		return nil
	}
	if kind == T_PRAGMA {
		pragma := &Pragma{ctx.rawToken()}
		ctx.consumeToken(pragma)
		return pragma
	}

	var def Definition
	var ok bool
	switch word := ctx.peekWord(); word {
	case "module":
		if inInterface {
			ctx.err = errUnsupportedInterfaceExport(word, ctx.tokenSpan())
			return nil
		}
		def, ok = parseChild(ctx, parseModule)
	case "interface", "abstract", "local":
		if inInterface {
			ctx.err = errUnsupportedInterfaceExport(word, ctx.tokenSpan())
			return nil
		}
		def, ok = parseChild(ctx, parseInterface)
	case "struct":
		def, ok = parseChild(ctx, parseStruct)
	case "union":
		def, ok = parseChild(ctx, parseUnion)
	case "enum":
		def, ok = parseChild(ctx, parseEnum)
	case "typedef":
		def, ok = parseChild(ctx, parseTypedef)
	case "const":
		def, ok = parseChild(ctx, parseConst)
	default:
		if ctx.err != nil {
			return nil
		}
		token := string(ctx.readToken())
		if inInterface && kind == T_IDENT {
			ctx.err = errUnsupportedInterfaceExport(token, ctx.tokenSpan())
			return nil
		}
		ctx.err = errExpectedDefinition(kind, token, ctx.tokenSpan())
		return nil
	}
	if !ok {
		return nil
	}
	ctx.sigil(T_SEMICOLON)
	return def
}

func parseModule(ctx *parseCtx[Module]) (*Module, error) {
	ctx.keyword("module")
	name := ctx.ident()
	ctx.sigil(T_OPEN_CURL)

	var definitions []Definition
	for _ = range ctx.loop {
		if ctx.trySigil(T_CLOSE_CURL) {
			break
		}
		if def := parseDefinition(ctx, false); def != nil {
			definitions = append(definitions, def)
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *Module {
		return &Module{
			nodeBase:    nodeBase{span, childNodes},
			name:        name,
			definitions: definitions,
		}
	})
}

func parseInterface(ctx *parseCtx[Interface]) (*Interface, error) {
	if !ctx.tryKeyword("abstract") {
		ctx.tryKeyword("local")
	}
	ctx.keyword("interface")
	name := ctx.ident()

	forward := ctx.peek() == T_SEMICOLON
	var bases []*ScopedNameRef
	var definitions []Definition
	if !forward {
		if ctx.trySigil(T_COLON) {
			for _ = range ctx.loop {
				base, _ := parseChild(ctx, parseScopedName)
				bases = append(bases, base)
				if !ctx.trySigil(T_COMMA) {
					break
				}
			}
		}
		ctx.sigil(T_OPEN_CURL)
		for _ = range ctx.loop {
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			if def := parseDefinition(ctx, true); def != nil {
				definitions = append(definitions, def)
			}
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *Interface {
		return &Interface{
			nodeBase:    nodeBase{span, childNodes},
			name:        name,
			bases:       bases,
			definitions: definitions,
			forward:     forward,
		}
	})
}

func parseStruct(ctx *parseCtx[Struct]) (*Struct, error) {
	ctx.keyword("struct")
	name := ctx.ident()

	forward := ctx.peek() != T_OPEN_CURL
	var members []*Member
	if !forward {
		ctx.sigil(T_OPEN_CURL)
		for _ = range ctx.loop {
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			if member, ok := parseChild(ctx, parseMember); ok {
				members = append(members, member)
			}
		}
		if ctx.err == nil && len(members) == 0 {
			ctx.err = errEmptyStruct(name.Get(), name.Span())
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *Struct {
		return &Struct{
			nodeBase: nodeBase{span, childNodes},
			name:     name,
			members:  members,
			forward:  forward,
		}
	})
}

func parseMember(ctx *parseCtx[Member]) (*Member, error) {
	typeSpec := parseTypeSpec(ctx)
	declarators := parseDeclarators(ctx)
	ctx.sigil(T_SEMICOLON)

	return ctx.finish(func(span Span, childNodes []Node) *Member {
		return &Member{
			nodeBase:    nodeBase{span, childNodes},
			typeSpec:    typeSpec,
			declarators: declarators,
		}
	})
}

func parseDeclarators[T any](ctx *parseCtx[T]) []*Declarator {
	var declarators []*Declarator
	for _ = range ctx.loop {
		declarator, ok := parseChild(ctx, parseDeclarator)
		if !ok {
			break
		}
		declarators = append(declarators, declarator)
		if !ctx.trySigil(T_COMMA) {
			break
		}
	}
	return declarators
}

func parseDeclarator(ctx *parseCtx[Declarator]) (*Declarator, error) {
	name := ctx.ident()
	var dims []Expr
	for _ = range ctx.loop {
		if !ctx.trySigil(T_OPEN_SQUARE) {
			break
		}
		dims = append(dims, parseExpr(ctx))
		ctx.sigil(T_CLOSE_SQUARE)
	}

	return ctx.finish(func(span Span, childNodes []Node) *Declarator {
		return &Declarator{
			nodeBase: nodeBase{span, childNodes},
			name:     name,
			dims:     dims,
		}
	})
}

func parseUnion(ctx *parseCtx[Union]) (*Union, error) {
	ctx.keyword("union")
	name := ctx.ident()

	forward := !ctx.peekKeyword("switch")
	var switchType TypeSpec
	var cases []*Case
	if !forward {
		ctx.keyword("switch")
		ctx.sigil(T_OPEN_PAREN)
		switchType = parseTypeSpec(ctx)
		ctx.sigil(T_CLOSE_PAREN)
		ctx.sigil(T_OPEN_CURL)
		for _ = range ctx.loop {
			if ctx.trySigil(T_CLOSE_CURL) {
				break
			}
			if unionCase, ok := parseChild(ctx, parseCase); ok {
				cases = append(cases, unionCase)
			}
		}
		if ctx.err == nil && len(cases) == 0 {
			ctx.err = errEmptyUnion(name.Get(), name.Span())
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *Union {
		return &Union{
			nodeBase:   nodeBase{span, childNodes},
			name:       name,
			switchType: switchType,
			cases:      cases,
			forward:    forward,
		}
	})
}

func parseCase(ctx *parseCtx[Case]) (*Case, error) {
	var labels []*CaseLabel
	for _ = range ctx.loop {
		label, ok := parseChild(ctx, parseCaseLabel)
		if !ok {
			break
		}
		labels = append(labels, label)
	}
	if ctx.err == nil && len(labels) == 0 {
		ctx.peek()
		return nil, errExpectedCaseLabel(
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
	}
	typeSpec := parseTypeSpec(ctx)
	declarator, _ := parseChild(ctx, parseDeclarator)
	ctx.sigil(T_SEMICOLON)

	return ctx.finish(func(span Span, childNodes []Node) *Case {
		return &Case{
			nodeBase:   nodeBase{span, childNodes},
			labels:     labels,
			typeSpec:   typeSpec,
			declarator: declarator,
		}
	})
}

func parseCaseLabel(ctx *parseCtx[CaseLabel]) (*CaseLabel, error) {
	var value Expr
	if ctx.tryKeyword("case") {
		value = parseExpr(ctx)
	} else if !ctx.tryKeyword("default") {
		return nil, nil
	}
	ctx.sigil(T_COLON)

	return ctx.finish(func(span Span, childNodes []Node) *CaseLabel {
		return &CaseLabel{
			nodeBase: nodeBase{span, childNodes},
			value:    value,
		}
	})
}

func parseEnum(ctx *parseCtx[Enum]) (*Enum, error) {
	ctx.keyword("enum")
	name := ctx.ident()
	ctx.sigil(T_OPEN_CURL)

	var enumerators []*Ident
	for _ = range ctx.loop {
		if ctx.peek() == T_CLOSE_CURL {
			break
		}
		if enumerator := ctx.ident(); enumerator != nil {
			enumerators = append(enumerators, enumerator)
		}
		if !ctx.trySigil(T_COMMA) {
			break
		}
	}
	ctx.sigil(T_CLOSE_CURL)
	if ctx.err == nil && len(enumerators) == 0 {
		ctx.err = errEmptyEnum(name.Get(), name.Span())
	}

	return ctx.finish(func(span Span, childNodes []Node) *Enum {
		return &Enum{
			nodeBase:    nodeBase{span, childNodes},
			name:        name,
			enumerators: enumerators,
		}
	})
}

func parseTypedef(ctx *parseCtx[Typedef]) (*Typedef, error) {
	ctx.keyword("typedef")
	typeSpec := parseTypeSpec(ctx)
	declarators := parseDeclarators(ctx)

	return ctx.finish(func(span Span, childNodes []Node) *Typedef {
		return &Typedef{
			nodeBase:    nodeBase{span, childNodes},
			typeSpec:    typeSpec,
			declarators: declarators,
		}
	})
}

func parseConst(ctx *parseCtx[Const]) (*Const, error) {
	ctx.keyword("const")
	typeSpec := parseTypeSpec(ctx)
	name := ctx.ident()
	ctx.sigil(T_EQ)
	value := parseExpr(ctx)

	return ctx.finish(func(span Span, childNodes []Node) *Const {
		return &Const{
			nodeBase: nodeBase{span, childNodes},
			typeSpec: typeSpec,
			name:     name,
			value:    value,
		}
	})
}

func parseTypeSpec[T any](ctx *parseCtx[T]) TypeSpec {
	kind := ctx.peek()
	if ctx.err != nil {
		return nil
	}
	if kind == T_DOUBLE_COLON {
		node, _ := parseChild(ctx, parseScopedName)
		return node
	}
	if kind != T_IDENT {
		ctx.err = errExpectedTypeSpec(kind, string(ctx.readToken()), ctx.tokenSpan())
		return nil
	}

	var node TypeSpec
	var ok bool
	switch word := string(ctx.readToken()); word {
	case "struct":
		node, ok = parseChild(ctx, parseStruct)
	case "union":
		node, ok = parseChild(ctx, parseUnion)
	case "enum":
		node, ok = parseChild(ctx, parseEnum)
	case "string", "wstring":
		node, ok = parseChild(ctx, parseStringType)
	case "sequence":
		node, ok = parseChild(ctx, parseSequenceType)
	case "fixed":
		node, ok = parseChild(ctx, parseFixedType)
	case "unsigned", "long":
		node, ok = parseChild(ctx, parseBaseType)
	default:
		if _, isBase := baseTypeWords[word]; isBase {
			node, ok = parseChild(ctx, parseBaseType)
		} else {
			node, ok = parseChild(ctx, parseScopedName)
		}
	}
	if !ok {
		return nil
	}
	return node
}

func parseBaseType(ctx *parseCtx[BaseType]) (*BaseType, error) {
	var kind BaseKind
	switch {
	case ctx.tryKeyword("unsigned"):
		if ctx.tryKeyword("short") {
			kind = BaseKind_USHORT
		} else {
			ctx.keyword("long")
			kind = BaseKind_ULONG
			if ctx.tryKeyword("long") {
				kind = BaseKind_ULONGLONG
			}
		}
	case ctx.tryKeyword("long"):
		kind = BaseKind_LONG
		if ctx.tryKeyword("long") {
			kind = BaseKind_LONGLONG
		} else if ctx.tryKeyword("double") {
			kind = BaseKind_LONGDOUBLE
		}
	default:
		kind = baseTypeWords[ctx.peekWord()]
		ctx.consumeToken(&Keyword{ctx.rawToken()})
	}

	return ctx.finish(func(span Span, childNodes []Node) *BaseType {
		return &BaseType{
			nodeBase: nodeBase{span, childNodes},
			kind:     kind,
		}
	})
}

func parseStringType(ctx *parseCtx[StringType]) (*StringType, error) {
	wide := ctx.peekWord() == "wstring"
	ctx.consumeToken(&Keyword{ctx.rawToken()})

	var bound Expr
	if ctx.trySigil(T_LT) {
		bound = parseAddExpr(ctx)
		ctx.sigil(T_GT)
	}

	return ctx.finish(func(span Span, childNodes []Node) *StringType {
		return &StringType{
			nodeBase: nodeBase{span, childNodes},
			wide:     wide,
			bound:    bound,
		}
	})
}

func parseSequenceType(ctx *parseCtx[SequenceType]) (*SequenceType, error) {
	ctx.keyword("sequence")
	ctx.sigil(T_LT)
	elem := parseTypeSpec(ctx)
	var bound Expr
	if ctx.trySigil(T_COMMA) {
		bound = parseAddExpr(ctx)
	}
	ctx.sigil(T_GT)

	return ctx.finish(func(span Span, childNodes []Node) *SequenceType {
		return &SequenceType{
			nodeBase: nodeBase{span, childNodes},
			elem:     elem,
			bound:    bound,
		}
	})
}

func parseFixedType(ctx *parseCtx[FixedType]) (*FixedType, error) {
	ctx.keyword("fixed")
	var digits, scale Expr
	if ctx.trySigil(T_LT) {
		digits = parseAddExpr(ctx)
		ctx.sigil(T_COMMA)
		scale = parseAddExpr(ctx)
		ctx.sigil(T_GT)
	}

	return ctx.finish(func(span Span, childNodes []Node) *FixedType {
		return &FixedType{
			nodeBase: nodeBase{span, childNodes},
			digits:   digits,
			scale:    scale,
		}
	})
}

func parseScopedName(ctx *parseCtx[ScopedNameRef]) (*ScopedNameRef, error) {
	absolute := ctx.trySigil(T_DOUBLE_COLON)
	var parts []*Ident
	for _ = range ctx.loop {
		part := ctx.ident()
		if part == nil {
			break
		}
		parts = append(parts, part)
		if !ctx.trySigil(T_DOUBLE_COLON) {
			break
		}
	}

	return ctx.finish(func(span Span, childNodes []Node) *ScopedNameRef {
		return &ScopedNameRef{
			nodeBase: nodeBase{span, childNodes},
			absolute: absolute,
			parts:    parts,
		}
	})
}

func parseExpr[T any](ctx *parseCtx[T]) Expr {
	expr := parseOrExpr(ctx)
	if expr == nil && ctx.err == nil {
		ctx.err = errExpectedExpression(
			ctx.token.Kind,
			string(ctx.readToken()),
			ctx.tokenSpan(),
		)
	}
	return expr
}

func parseBinary[T any](
	ctx *parseCtx[T],
	operand func(*parseCtx[T]) Expr,
	match func(*parseCtx[T]) BinaryOp,
) Expr {
	ctx.peek()
	mark := len(ctx.childNodes)
	lhs := operand(ctx)
	for _ = range ctx.loop {
		if lhs == nil {
			return nil
		}
		op := match(ctx)
		if op == 0 {
			break
		}
		rhs := operand(ctx)
		if rhs == nil {
			if ctx.err == nil {
				ctx.err = errExpectedExpression(
					ctx.token.Kind,
					string(ctx.readToken()),
					ctx.tokenSpan(),
				)
			}
			return nil
		}
		lhs = ctx.reduce(mark, func(span Span, childNodes []Node) Expr {
			return &BinaryExpr{
				nodeBase: nodeBase{span, childNodes},
				op:       op,
				lhs:      lhs,
				rhs:      rhs,
			}
		})
	}
	return lhs
}

func matchSigil[T any](ops map[TokenKind]BinaryOp) func(*parseCtx[T]) BinaryOp {
	return func(ctx *parseCtx[T]) BinaryOp {
		op, ok := ops[ctx.peek()]
		if !ok || !ctx.trySigil(ctx.token.Kind) {
			return 0
		}
		return op
	}
}

var (
	orOps  = map[TokenKind]BinaryOp{T_PIPE: BinaryOp_OR}
	xorOps = map[TokenKind]BinaryOp{T_CARET: BinaryOp_XOR}
	andOps = map[TokenKind]BinaryOp{T_AMP: BinaryOp_AND}
	addOps = map[TokenKind]BinaryOp{
		T_PLUS:  BinaryOp_ADD,
		T_MINUS: BinaryOp_SUB,
	}
	mulOps = map[TokenKind]BinaryOp{
		T_STAR:    BinaryOp_MUL,
		T_SLASH:   BinaryOp_DIV,
		T_PERCENT: BinaryOp_MOD,
	}
)

func parseOrExpr[T any](ctx *parseCtx[T]) Expr {
	return parseBinary(ctx, parseXorExpr[T], matchSigil[T](orOps))
}

func parseXorExpr[T any](ctx *parseCtx[T]) Expr {
	return parseBinary(ctx, parseAndExpr[T], matchSigil[T](xorOps))
}

func parseAndExpr[T any](ctx *parseCtx[T]) Expr {
	return parseBinary(ctx, parseShiftExpr[T], matchSigil[T](andOps))
}

func parseShiftExpr[T any](ctx *parseCtx[T]) Expr {
	return parseBinary(ctx, parseAddExpr[T], func(ctx *parseCtx[T]) BinaryOp {
		if ctx.tryDoubleSigil(T_LT) {
			return BinaryOp_SHL
		}
		if ctx.tryDoubleSigil(T_GT) {
			return BinaryOp_SHR
		}
		return 0
	})
}

func parseAddExpr[T any](ctx *parseCtx[T]) Expr {
	return parseBinary(ctx, parseMulExpr[T], matchSigil[T](addOps))
}

func parseMulExpr[T any](ctx *parseCtx[T]) Expr {
	return parseBinary(ctx, parseUnaryExpr[T], matchSigil[T](mulOps))
}

func parseUnaryExpr[T any](ctx *parseCtx[T]) Expr {
	kind := ctx.peek()
	switch kind {
	case T_MINUS, T_PLUS, T_TILDE:
	default:
		return parsePrimaryExpr(ctx)
	}
	mark := len(ctx.childNodes)
	ctx.trySigil(kind)
	operand := parsePrimaryExpr(ctx)
	if operand == nil {
		return nil
	}
	return ctx.reduce(mark, func(span Span, childNodes []Node) Expr {
		return &UnaryExpr{
			nodeBase: nodeBase{span, childNodes},
			op:       kind,
			operand:  operand,
		}
	})
}

func parsePrimaryExpr[T any](ctx *parseCtx[T]) Expr {
	kind := ctx.peek()
	if ctx.err != nil {
		return nil
	}
	token := string(ctx.readToken())
	start := ctx.offset

	switch kind {
	case T_OPEN_PAREN:
		mark := len(ctx.childNodes)
		ctx.trySigil(T_OPEN_PAREN)
		inner := parseExpr(ctx)
		ctx.sigil(T_CLOSE_PAREN)
		if inner == nil {
			return nil
		}
		return ctx.reduce(mark, func(span Span, childNodes []Node) Expr {
			return &ParenExpr{
				nodeBase: nodeBase{span, childNodes},
				inner:    inner,
			}
		})
	case T_INT_LIT, T_OCT_INT_LIT, T_HEX_INT_LIT:
		lit, err := newIntLit(token, kind, start)
		if err != nil {
			ctx.err = err
			return nil
		}
		ctx.consumeToken(lit)
		return lit
	case T_FLOAT_LIT:
		lit, err := newFloatLit(token, start)
		if err != nil {
			ctx.err = err
			return nil
		}
		ctx.consumeToken(lit)
		return lit
	case T_CHAR_LIT:
		lit, err := newCharLit(token, start)
		if err != nil {
			ctx.err = err
			return nil
		}
		ctx.consumeToken(lit)
		return lit
	case T_STRING_LIT:
		lit, err := newStringLit(token, start)
		if err != nil {
			ctx.err = err
			return nil
		}
		ctx.consumeToken(lit)
		return lit
	case T_IDENT:
		if token == "TRUE" || token == "FALSE" {
			lit := &BoolLit{ctx.rawToken()}
			ctx.consumeToken(lit)
			return lit
		}
		fallthrough
	case T_DOUBLE_COLON:
		if name, ok := parseChild(ctx, parseScopedName); ok {
			return name
		}
	}
	return nil
}
