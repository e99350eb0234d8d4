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
	"bytes"
	"iter"
	"math"
	"strconv"
	"strings"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s *Span) Start() uint32 {
	return s.start
}

func (s *Span) End() uint32 {
	return s.start + s.len
}

func (s *Span) Len() uint32 {
	return s.len
}

type Node interface {
	Span() Span

	ChildNodes() iter.Seq[Node]

	privChildren() []Node

	UnparseTo(buf *bytes.Buffer)
}

func Unparse(node Node) string {
	var buf bytes.Buffer
	node.UnparseTo(&buf)
	return buf.String()
}

// Walk calls walkFn for node and, if it returns true, for each descendant
// in source order. walkFn(nil) is called after a node's children.
func Walk(node Node, walkFn func(Node) bool) {
	if node == nil || !walkFn(node) {
		return
	}
	for _, child := range node.privChildren() {
		Walk(child, walkFn)
	}
	walkFn(nil)
}

func iterChildren(childNodes []Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range childNodes {
			if !yield(child) {
				return
			}
		}
	}
}

type leafNode struct{}

func (*leafNode) ChildNodes() iter.Seq[Node] {
	return func(_yield func(Node) bool) {}
}

func (*leafNode) privChildren() []Node {
	return nil
}

type tokenNode struct {
	leafNode
	raw   string
	start uint32
}

func (n *tokenNode) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

func (n *tokenNode) UnparseTo(buf *bytes.Buffer) {
	buf.WriteString(n.raw)
}

type nodeBase struct {
	span       Span
	childNodes []Node
}

func (n *nodeBase) Span() Span {
	return n.span
}

func (n *nodeBase) ChildNodes() iter.Seq[Node] {
	return iterChildren(n.childNodes)
}

func (n *nodeBase) privChildren() []Node {
	return n.childNodes
}

func (n *nodeBase) UnparseTo(buf *bytes.Buffer) {
	for _, childNode := range n.childNodes {
		childNode.UnparseTo(buf)
	}
}

type Space struct{ tokenNode }

type Newline struct{ tokenNode }

type Comment struct{ tokenNode }

func (n *Comment) Text() string {
	return n.raw
}

// LineMarker is a preprocessor `# LINE "FILE"` directive.
type LineMarker struct{ tokenNode }

func (n *LineMarker) Text() string {
	return n.raw
}

type Sigil struct{ tokenNode }

type Keyword struct{ tokenNode }

func (n *Keyword) Get() string {
	return n.raw
}

type Ident struct{ tokenNode }

// Get returns the identifier with IDL's escaping underscore removed.
func (n *Ident) Get() string {
	return strings.TrimPrefix(n.raw, "_")
}

func (n *Ident) Raw() string {
	return n.raw
}

var (
	_ Node = (*Space)(nil)
	_ Node = (*Newline)(nil)
	_ Node = (*Comment)(nil)
	_ Node = (*LineMarker)(nil)
	_ Node = (*Sigil)(nil)
	_ Node = (*Keyword)(nil)
	_ Node = (*Ident)(nil)
)

// Expr is a constant expression.
type Expr interface {
	Node
	isExpr()
}

// TypeSpec is anything that can appear where a type is expected.
type TypeSpec interface {
	Node
	isTypeSpec()
}

// Definition is a top-level or module-level declaration.
type Definition interface {
	Node
	isDefinition()
}

type IntLit struct {
	tokenNode
	value uint64
}

func (*IntLit) isExpr() {}

func newIntLit(token string, kind TokenKind, start uint32) (*IntLit, error) {
	base := 10
	valueStr := token
	switch kind {
	case T_OCT_INT_LIT:
		base = 8
		valueStr = valueStr[1:]
	case T_HEX_INT_LIT:
		base = 16
		valueStr = valueStr[2:]
	}
	value, err := strconv.ParseUint(valueStr, base, 64)
	if err != nil {
		return nil, errIntLitTooLarge(token, start)
	}
	return &IntLit{
		tokenNode: tokenNode{raw: token, start: start},
		value:     value,
	}, nil
}

func (n *IntLit) Get() uint64 {
	return n.value
}

func (n *IntLit) GetInt64() (int64, bool) {
	if n.value <= math.MaxInt64 {
		return int64(n.value), true
	}
	return 0, false
}

type FloatLit struct {
	tokenNode
	value float64
}

func (*FloatLit) isExpr() {}

func newFloatLit(token string, start uint32) (*FloatLit, error) {
	value, err := strconv.ParseFloat(strings.TrimRight(token, "dD"), 64)
	if err != nil {
		return nil, errFloatLitInvalid(start, []byte(token))
	}
	return &FloatLit{
		tokenNode: tokenNode{raw: token, start: start},
		value:     value,
	}, nil
}

func (n *FloatLit) Get() float64 {
	return n.value
}

type CharLit struct {
	tokenNode
	value byte
}

func (*CharLit) isExpr() {}

func newCharLit(token string, start uint32) (*CharLit, error) {
	value, err := unquote(token[1 : len(token)-1])
	if err != nil || len(value) != 1 {
		return nil, errCharLitInvalid(token, start)
	}
	return &CharLit{
		tokenNode: tokenNode{raw: token, start: start},
		value:     value[0],
	}, nil
}

func (n *CharLit) Get() byte {
	return n.value
}

type StringLit struct {
	tokenNode
	value string
}

func (*StringLit) isExpr() {}

func newStringLit(token string, start uint32) (*StringLit, error) {
	value, err := unquote(token[1 : len(token)-1])
	if err != nil {
		return nil, errStringLitInvalid(token, start)
	}
	return &StringLit{
		tokenNode: tokenNode{raw: token, start: start},
		value:     value,
	}, nil
}

func (n *StringLit) Get() string {
	return n.value
}

// unquote decodes the escape sequences of IDL character and string
// literals.
func unquote(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var buf strings.Builder
	for len(s) > 0 {
		c := s[0]
		if c != '\\' {
			buf.WriteByte(c)
			s = s[1:]
			continue
		}
		if len(s) < 2 {
			return "", strconv.ErrSyntax
		}
		switch e := s[1]; e {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'v':
			buf.WriteByte('\v')
		case 'b':
			buf.WriteByte('\b')
		case 'r':
			buf.WriteByte('\r')
		case 'f':
			buf.WriteByte('\f')
		case 'a':
			buf.WriteByte('\a')
		case '\\', '?', '\'', '"':
			buf.WriteByte(e)
		case 'x':
			end := 2
			for end < len(s) && end < 4 && isHexDigit(s[end]) {
				end += 1
			}
			if end == 2 {
				return "", strconv.ErrSyntax
			}
			b, _ := strconv.ParseUint(s[2:end], 16, 8)
			buf.WriteByte(byte(b))
			s = s[end:]
			continue
		default:
			if e < '0' || e > '7' {
				return "", strconv.ErrSyntax
			}
			end := 1
			for end < len(s) && end < 4 && s[end] >= '0' && s[end] <= '7' {
				end += 1
			}
			b, err := strconv.ParseUint(s[1:end], 8, 8)
			if err != nil {
				return "", err
			}
			buf.WriteByte(byte(b))
			s = s[end:]
			continue
		}
		s = s[2:]
	}
	return buf.String(), nil
}

type BoolLit struct {
	tokenNode
}

func (*BoolLit) isExpr() {}

func (n *BoolLit) Get() bool {
	return n.raw == "TRUE"
}

type ScopedNameRef struct {
	nodeBase
	absolute bool
	parts    []*Ident
}

func (*ScopedNameRef) isExpr()     {}
func (*ScopedNameRef) isTypeSpec() {}

// IsAbsolute reports whether the name was written with a leading `::`.
func (n *ScopedNameRef) IsAbsolute() bool {
	return n.absolute
}

func (n *ScopedNameRef) Parts() []*Ident {
	return n.parts
}

func (n *ScopedNameRef) Components() []string {
	out := make([]string, len(n.parts))
	for ii, part := range n.parts {
		out[ii] = part.Get()
	}
	return out
}

func (n *ScopedNameRef) String() string {
	s := strings.Join(n.Components(), "::")
	if n.absolute {
		return "::" + s
	}
	return s
}

type UnaryExpr struct {
	nodeBase
	op      TokenKind
	operand Expr
}

func (*UnaryExpr) isExpr() {}

func (n *UnaryExpr) Op() TokenKind {
	return n.op
}

func (n *UnaryExpr) Operand() Expr {
	return n.operand
}

type BinaryExpr struct {
	nodeBase
	op  BinaryOp
	lhs Expr
	rhs Expr
}

func (*BinaryExpr) isExpr() {}

func (n *BinaryExpr) Op() BinaryOp {
	return n.op
}

func (n *BinaryExpr) Lhs() Expr {
	return n.lhs
}

func (n *BinaryExpr) Rhs() Expr {
	return n.rhs
}

type BinaryOp uint8

const (
	BinaryOp_OR BinaryOp = iota + 1
	BinaryOp_XOR
	BinaryOp_AND
	BinaryOp_SHL
	BinaryOp_SHR
	BinaryOp_ADD
	BinaryOp_SUB
	BinaryOp_MUL
	BinaryOp_DIV
	BinaryOp_MOD
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryOp_OR:
		return "|"
	case BinaryOp_XOR:
		return "^"
	case BinaryOp_AND:
		return "&"
	case BinaryOp_SHL:
		return "<<"
	case BinaryOp_SHR:
		return ">>"
	case BinaryOp_ADD:
		return "+"
	case BinaryOp_SUB:
		return "-"
	case BinaryOp_MUL:
		return "*"
	case BinaryOp_DIV:
		return "/"
	case BinaryOp_MOD:
		return "%"
	}
	return "?"
}

type ParenExpr struct {
	nodeBase
	inner Expr
}

func (*ParenExpr) isExpr() {}

func (n *ParenExpr) Inner() Expr {
	return n.inner
}

type BaseKind uint8

const (
	BaseKind_UNKNOWN BaseKind = iota
	BaseKind_SHORT
	BaseKind_USHORT
	BaseKind_LONG
	BaseKind_ULONG
	BaseKind_LONGLONG
	BaseKind_ULONGLONG
	BaseKind_FLOAT
	BaseKind_DOUBLE
	BaseKind_LONGDOUBLE
	BaseKind_CHAR
	BaseKind_WCHAR
	BaseKind_BOOLEAN
	BaseKind_OCTET
	BaseKind_ANY
	BaseKind_OBJECT
	BaseKind_VALUEBASE
)

func (k BaseKind) String() string {
	switch k {
	case BaseKind_SHORT:
		return "short"
	case BaseKind_USHORT:
		return "unsigned short"
	case BaseKind_LONG:
		return "long"
	case BaseKind_ULONG:
		return "unsigned long"
	case BaseKind_LONGLONG:
		return "long long"
	case BaseKind_ULONGLONG:
		return "unsigned long long"
	case BaseKind_FLOAT:
		return "float"
	case BaseKind_DOUBLE:
		return "double"
	case BaseKind_LONGDOUBLE:
		return "long double"
	case BaseKind_CHAR:
		return "char"
	case BaseKind_WCHAR:
		return "wchar"
	case BaseKind_BOOLEAN:
		return "boolean"
	case BaseKind_OCTET:
		return "octet"
	case BaseKind_ANY:
		return "any"
	case BaseKind_OBJECT:
		return "Object"
	case BaseKind_VALUEBASE:
		return "ValueBase"
	}
	return "unknown"
}

// IsInteger reports whether values of the type are integers.
func (k BaseKind) IsInteger() bool {
	switch k {
	case BaseKind_SHORT, BaseKind_USHORT, BaseKind_LONG, BaseKind_ULONG,
		BaseKind_LONGLONG, BaseKind_ULONGLONG:
		return true
	}
	return false
}

type BaseType struct {
	nodeBase
	kind BaseKind
}

func (*BaseType) isTypeSpec() {}

func (n *BaseType) Kind() BaseKind {
	return n.kind
}

// StringType is `string`, `string<N>`, `wstring` or `wstring<N>`.
type StringType struct {
	nodeBase
	wide  bool
	bound Expr
}

func (*StringType) isTypeSpec() {}

func (n *StringType) IsWide() bool {
	return n.wide
}

// Bound is nil for unbounded strings.
func (n *StringType) Bound() Expr {
	return n.bound
}

type SequenceType struct {
	nodeBase
	elem  TypeSpec
	bound Expr
}

func (*SequenceType) isTypeSpec() {}

func (n *SequenceType) Elem() TypeSpec {
	return n.elem
}

// Bound is nil for unbounded sequences.
func (n *SequenceType) Bound() Expr {
	return n.bound
}

type FixedType struct {
	nodeBase
	digits Expr
	scale  Expr
}

func (*FixedType) isTypeSpec() {}

func (n *FixedType) Digits() Expr {
	return n.digits
}

func (n *FixedType) Scale() Expr {
	return n.scale
}

type Specification struct {
	nodeBase
	definitions []Definition
}

func (n *Specification) Definitions() []Definition {
	return n.definitions
}

type Module struct {
	nodeBase
	name        *Ident
	definitions []Definition
}

func (*Module) isDefinition() {}

func (n *Module) Name() *Ident {
	return n.name
}

func (n *Module) Definitions() []Definition {
	return n.definitions
}

// Interface bodies may only hold type and constant declarations; they are
// treated as naming scopes.
type Interface struct {
	nodeBase
	name        *Ident
	bases       []*ScopedNameRef
	definitions []Definition
	forward     bool
}

func (*Interface) isDefinition() {}

func (n *Interface) Name() *Ident {
	return n.name
}

func (n *Interface) Bases() []*ScopedNameRef {
	return n.bases
}

func (n *Interface) Definitions() []Definition {
	return n.definitions
}

func (n *Interface) IsForward() bool {
	return n.forward
}

type Struct struct {
	nodeBase
	name    *Ident
	members []*Member
	forward bool
}

func (*Struct) isDefinition() {}
func (*Struct) isTypeSpec()   {}

func (n *Struct) Name() *Ident {
	return n.name
}

func (n *Struct) Members() []*Member {
	return n.members
}

// IsForward reports whether this is a forward declaration (`struct S;`).
func (n *Struct) IsForward() bool {
	return n.forward
}

type Member struct {
	nodeBase
	typeSpec    TypeSpec
	declarators []*Declarator
}

func (n *Member) TypeSpec() TypeSpec {
	return n.typeSpec
}

func (n *Member) Declarators() []*Declarator {
	return n.declarators
}

// Declarator is a name with optional fixed array dimensions.
type Declarator struct {
	nodeBase
	name *Ident
	dims []Expr
}

func (n *Declarator) Name() *Ident {
	return n.name
}

func (n *Declarator) Dims() []Expr {
	return n.dims
}

type Union struct {
	nodeBase
	name       *Ident
	switchType TypeSpec
	cases      []*Case
	forward    bool
}

func (*Union) isDefinition() {}
func (*Union) isTypeSpec()   {}

func (n *Union) Name() *Ident {
	return n.name
}

func (n *Union) SwitchType() TypeSpec {
	return n.switchType
}

func (n *Union) Cases() []*Case {
	return n.cases
}

func (n *Union) IsForward() bool {
	return n.forward
}

type Case struct {
	nodeBase
	labels     []*CaseLabel
	typeSpec   TypeSpec
	declarator *Declarator
}

func (n *Case) Labels() []*CaseLabel {
	return n.labels
}

func (n *Case) TypeSpec() TypeSpec {
	return n.typeSpec
}

func (n *Case) Declarator() *Declarator {
	return n.declarator
}

type CaseLabel struct {
	nodeBase
	value Expr
}

// Value is nil for the `default` label.
func (n *CaseLabel) Value() Expr {
	return n.value
}

func (n *CaseLabel) IsDefault() bool {
	return n.value == nil
}

type Enum struct {
	nodeBase
	name        *Ident
	enumerators []*Ident
}

func (*Enum) isDefinition() {}
func (*Enum) isTypeSpec()   {}

func (n *Enum) Name() *Ident {
	return n.name
}

func (n *Enum) Enumerators() []*Ident {
	return n.enumerators
}

type Typedef struct {
	nodeBase
	typeSpec    TypeSpec
	declarators []*Declarator
}

func (*Typedef) isDefinition() {}

func (n *Typedef) TypeSpec() TypeSpec {
	return n.typeSpec
}

func (n *Typedef) Declarators() []*Declarator {
	return n.declarators
}

type Const struct {
	nodeBase
	typeSpec TypeSpec
	name     *Ident
	value    Expr
}

func (*Const) isDefinition() {}

func (n *Const) TypeSpec() TypeSpec {
	return n.typeSpec
}

func (n *Const) Name() *Ident {
	return n.name
}

func (n *Const) Value() Expr {
	return n.value
}

type Pragma struct {
	tokenNode
}

func (*Pragma) isDefinition() {}

func (n *Pragma) Text() string {
	return n.raw
}

var (
	_ Expr       = (*IntLit)(nil)
	_ Expr       = (*FloatLit)(nil)
	_ Expr       = (*CharLit)(nil)
	_ Expr       = (*StringLit)(nil)
	_ Expr       = (*BoolLit)(nil)
	_ Expr       = (*ScopedNameRef)(nil)
	_ Expr       = (*UnaryExpr)(nil)
	_ Expr       = (*BinaryExpr)(nil)
	_ Expr       = (*ParenExpr)(nil)
	_ TypeSpec   = (*BaseType)(nil)
	_ TypeSpec   = (*ScopedNameRef)(nil)
	_ TypeSpec   = (*StringType)(nil)
	_ TypeSpec   = (*SequenceType)(nil)
	_ TypeSpec   = (*FixedType)(nil)
	_ TypeSpec   = (*Struct)(nil)
	_ TypeSpec   = (*Union)(nil)
	_ TypeSpec   = (*Enum)(nil)
	_ Definition = (*Module)(nil)
	_ Definition = (*Interface)(nil)
	_ Definition = (*Struct)(nil)
	_ Definition = (*Union)(nil)
	_ Definition = (*Enum)(nil)
	_ Definition = (*Typedef)(nil)
	_ Definition = (*Const)(nil)
	_ Definition = (*Pragma)(nil)
	_ Node       = (*Specification)(nil)
	_ Node       = (*Member)(nil)
	_ Node       = (*Declarator)(nil)
	_ Node       = (*Case)(nil)
	_ Node       = (*CaseLabel)(nil)
)
