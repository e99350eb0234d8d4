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

package symtab

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

type SymbolKind uint8

const (
	SymbolKind_UNKNOWN SymbolKind = iota
	SymbolKind_INT_CONST
	SymbolKind_OTHER_CONST
	SymbolKind_TYPEDEF
	SymbolKind_STRUCT
	SymbolKind_UNION
	SymbolKind_ENUM
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKind_INT_CONST:
		return "integer constant"
	case SymbolKind_OTHER_CONST:
		return "constant"
	case SymbolKind_TYPEDEF:
		return "typedef"
	case SymbolKind_STRUCT:
		return "struct"
	case SymbolKind_UNION:
		return "union"
	case SymbolKind_ENUM:
		return "enum"
	default:
		return fmt.Sprintf("SymbolKind(%d)", uint8(k))
	}
}

// Symbol is a declaration bound to one fully qualified name.
type Symbol interface {
	Name() ScopedName
	Kind() SymbolKind

	// IsInteger reports whether the symbol may appear where an integer
	// value is required (integer constant bodies, case labels).
	IsInteger() bool

	// IsNonintConst reports whether the symbol may appear in the body of
	// a non-integer constant.
	IsNonintConst() bool

	isSymbol()
}

type symbolBase struct {
	name ScopedName
}

func (s *symbolBase) Name() ScopedName    { return s.name }
func (s *symbolBase) IsInteger() bool     { return false }
func (s *symbolBase) IsNonintConst() bool { return false }
func (*symbolBase) isSymbol()             {}

type IntConstSymbol struct{ symbolBase }

func NewIntConstSymbol(name ScopedName) *IntConstSymbol {
	return &IntConstSymbol{symbolBase{name.Clone()}}
}

func (*IntConstSymbol) Kind() SymbolKind { return SymbolKind_INT_CONST }
func (*IntConstSymbol) IsInteger() bool  { return true }

type OtherConstSymbol struct{ symbolBase }

func NewOtherConstSymbol(name ScopedName) *OtherConstSymbol {
	return &OtherConstSymbol{symbolBase{name.Clone()}}
}

func (*OtherConstSymbol) Kind() SymbolKind    { return SymbolKind_OTHER_CONST }
func (*OtherConstSymbol) IsNonintConst() bool { return true }

// TypeDeclSymbol is a typedef. Its classification is inherited from the
// underlying type so that later uses in constant contexts can be checked.
type TypeDeclSymbol struct {
	symbolBase
	isInteger     bool
	isNonintConst bool
}

func NewTypeDeclSymbol(name ScopedName, isInteger, isNonintConst bool) *TypeDeclSymbol {
	return &TypeDeclSymbol{
		symbolBase:    symbolBase{name.Clone()},
		isInteger:     isInteger,
		isNonintConst: isNonintConst,
	}
}

func (*TypeDeclSymbol) Kind() SymbolKind      { return SymbolKind_TYPEDEF }
func (s *TypeDeclSymbol) IsInteger() bool     { return s.isInteger }
func (s *TypeDeclSymbol) IsNonintConst() bool { return s.isNonintConst }

// StructSymbol records the member paths of a struct. Members of nested
// struct type contribute dotted paths (`pos.x`) so that key declarations
// can be checked before the type model exists.
type StructSymbol struct {
	symbolBase
	members []string
	valid   bool
}

func NewStructSymbol(name ScopedName) *StructSymbol {
	return &StructSymbol{
		symbolBase: symbolBase{name.Clone()},
		valid:      true,
	}
}

func (*StructSymbol) Kind() SymbolKind { return SymbolKind_STRUCT }

func (s *StructSymbol) AddMember(name string) {
	s.members = append(s.members, name)
}

// AddStructMember adds name and every path of nested prefixed by name.
func (s *StructSymbol) AddStructMember(name string, nested *StructSymbol) {
	s.members = append(s.members, name)
	for _, path := range nested.members {
		s.members = append(s.members, name+"."+path)
	}
}

func (s *StructSymbol) HasMember(path string) bool {
	return slices.Contains(s.members, path)
}

func (s *StructSymbol) Members() []string {
	return slices.Clone(s.members)
}

func (s *StructSymbol) Invalidate() {
	s.valid = false
}

func (s *StructSymbol) IsValid() bool {
	return s.valid
}

type UnionSymbol struct{ symbolBase }

func NewUnionSymbol(name ScopedName) *UnionSymbol {
	return &UnionSymbol{symbolBase{name.Clone()}}
}

func (*UnionSymbol) Kind() SymbolKind { return SymbolKind_UNION }

type EnumSymbol struct{ symbolBase }

func NewEnumSymbol(name ScopedName) *EnumSymbol {
	return &EnumSymbol{symbolBase{name.Clone()}}
}

func (*EnumSymbol) Kind() SymbolKind { return SymbolKind_ENUM }

// Table maps fully qualified names to symbols.
type Table struct {
	symbols map[string]Symbol
	order   []Symbol
}

func NewTable() *Table {
	return &Table{symbols: make(map[string]Symbol)}
}

// Insert binds a symbol under its name. A second symbol under the same
// name means the caller has lost track of its own state, so it panics.
func (t *Table) Insert(symbol Symbol) {
	key := symbol.Name().key()
	if prev, ok := t.symbols[key]; ok {
		panic(fmt.Sprintf(
			"symtab: duplicate symbol %s (%s, previously %s)",
			symbol.Name(), symbol.Kind(), prev.Kind(),
		))
	}
	t.symbols[key] = symbol
	t.order = append(t.order, symbol)
}

func (t *Table) Lookup(name ScopedName) (Symbol, bool) {
	symbol, ok := t.symbols[name.key()]
	return symbol, ok
}

// Resolve searches outward from scope: scope++requested, then with one
// component of scope popped, until scope is empty, and finally requested
// as a fully qualified name.
func (t *Table) Resolve(scope, requested ScopedName) (Symbol, bool) {
	var found Symbol
	searchOutward(scope, requested, func(candidate ScopedName) bool {
		if symbol, ok := t.symbols[candidate.key()]; ok {
			found = symbol
			return true
		}
		return false
	})
	return found, found != nil
}

func (t *Table) Len() int {
	return len(t.order)
}

// All yields symbols in insertion order.
func (t *Table) All() iter.Seq[Symbol] {
	return func(yield func(Symbol) bool) {
		for _, symbol := range t.order {
			if !yield(symbol) {
				return
			}
		}
	}
}

func searchOutward(scope, requested ScopedName, try func(ScopedName) bool) {
	search := scope.Clone()
	for !search.IsEmpty() {
		if try(search.Concat(requested)) {
			return
		}
		search.Pop()
	}
	try(requested)
}

// Pending is the set of names introduced by forward declarations and not
// yet defined.
type Pending struct {
	names map[string]ScopedName
}

func NewPending() *Pending {
	return &Pending{names: make(map[string]ScopedName)}
}

func (p *Pending) Add(name ScopedName) {
	p.names[name.key()] = name.Clone()
}

// Remove deletes name and reports whether it was pending.
func (p *Pending) Remove(name ScopedName) bool {
	key := name.key()
	if _, ok := p.names[key]; !ok {
		return false
	}
	delete(p.names, key)
	return true
}

func (p *Pending) Contains(name ScopedName) bool {
	_, ok := p.names[name.key()]
	return ok
}

// ResolveRelative applies the outward search rule of Table.Resolve to the
// pending set.
func (p *Pending) ResolveRelative(scope, requested ScopedName) bool {
	found := false
	searchOutward(scope, requested, func(candidate ScopedName) bool {
		found = p.Contains(candidate)
		return found
	})
	return found
}

func (p *Pending) Len() int {
	return len(p.names)
}

// Names returns the pending names in sorted order.
func (p *Pending) Names() []ScopedName {
	out := make([]ScopedName, 0, len(p.names))
	for _, name := range p.names {
		out = append(out, name)
	}
	slices.SortFunc(out, ScopedName.Compare)
	return out
}

func (p *Pending) String() string {
	names := p.Names()
	parts := make([]string, len(names))
	for ii, name := range names {
		parts[ii] = name.String()
	}
	return strings.Join(parts, " ")
}
