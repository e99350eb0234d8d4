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

// Package meta is the type model behind compiled topics: alignment,
// marshalling programs, key sizes, dependency order and XML descriptors.
package meta

import (
	"fmt"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
)

// Type is one of *Basic, *BoundedString, *Array, *Sequence, *Struct,
// *Union, *Enum or *Alias.
type Type interface {
	isType()
}

// Named types have a qualified name and an optional enclosing type.
type Named interface {
	Type
	TypeName() symtab.ScopedName
	// ParentName is empty for types declared directly in a module.
	ParentName() symtab.ScopedName
}

type BasicKind uint8

const (
	BasicKind_BOOLEAN BasicKind = iota + 1
	BasicKind_OCTET
	BasicKind_CHAR
	BasicKind_SHORT
	BasicKind_USHORT
	BasicKind_LONG
	BasicKind_ULONG
	BasicKind_LONGLONG
	BasicKind_ULONGLONG
	BasicKind_FLOAT
	BasicKind_DOUBLE
	BasicKind_STRING
)

type basicInfo struct {
	name       string
	xml        string
	alignment  Alignment
	opcode     OpType
	nativeSize string
	keySize    KeySize
}

var basicTable = map[BasicKind]basicInfo{
	BasicKind_BOOLEAN:   {"boolean", "Boolean", Alignment_BOOL, OpType_1BY, "sizeof (bool)", KeySize{N: 1}},
	BasicKind_OCTET:     {"octet", "Octet", Alignment_ONE, OpType_1BY, "1u", KeySize{N: 1}},
	BasicKind_CHAR:      {"char", "Char", Alignment_ONE, OpType_1BY, "1u", KeySize{N: 1}},
	BasicKind_SHORT:     {"short", "Short", Alignment_TWO, OpType_2BY, "2u", KeySize{N: 2}},
	BasicKind_USHORT:    {"unsigned short", "UShort", Alignment_TWO, OpType_2BY, "2u", KeySize{N: 2}},
	BasicKind_LONG:      {"long", "Long", Alignment_FOUR, OpType_4BY, "4u", KeySize{N: 4}},
	BasicKind_ULONG:     {"unsigned long", "ULong", Alignment_FOUR, OpType_4BY, "4u", KeySize{N: 4}},
	BasicKind_LONGLONG:  {"long long", "LongLong", Alignment_EIGHT, OpType_8BY, "8u", KeySize{N: 8}},
	BasicKind_ULONGLONG: {"unsigned long long", "ULongLong", Alignment_EIGHT, OpType_8BY, "8u", KeySize{N: 8}},
	BasicKind_FLOAT:     {"float", "Float", Alignment_FOUR, OpType_4BY, "4u", KeySize{N: 4}},
	BasicKind_DOUBLE:    {"double", "Double", Alignment_EIGHT, OpType_8BY, "8u", KeySize{N: 8}},
	BasicKind_STRING:    {"string", "String", Alignment_POINTER, OpType_STR, "sizeof (char *)", KeySize{Unbounded: true}},
}

func (k BasicKind) String() string {
	if info, ok := basicTable[k]; ok {
		return info.name
	}
	return fmt.Sprintf("BasicKind(%d)", uint8(k))
}

type Basic struct {
	Kind BasicKind
}

type BoundedString struct {
	Bound uint64
}

type Array struct {
	// Dims holds every dimension, outermost first.
	Dims []uint64
	Elem Type
}

// NewArray builds an array of elem. When elem is itself an array reached
// through a typedef, the dimensions are merged into one array and the
// alias is dropped.
func NewArray(dims []uint64, elem Type) *Array {
	merged := append([]uint64(nil), dims...)
	if alias, ok := elem.(*Alias); ok {
		if inner, ok := Deref(alias).(*Array); ok {
			merged = append(merged, inner.Dims...)
			elem = inner.Elem
		}
	}
	return &Array{Dims: merged, Elem: elem}
}

// Count is the total number of elements over all dimensions.
func (t *Array) Count() uint64 {
	count := uint64(1)
	for _, dim := range t.Dims {
		count *= dim
	}
	return count
}

type Sequence struct {
	Elem Type
	// ElemName is the C type of one element.
	ElemName string
}

type Member struct {
	Name string
	Type Type
	Key  bool
}

type Struct struct {
	Name    symtab.ScopedName
	Members []*Member
	Parent  symtab.ScopedName
}

func (t *Struct) TypeName() symtab.ScopedName   { return t.Name }
func (t *Struct) ParentName() symtab.ScopedName { return t.Parent }

// Member returns the member with the given name.
func (t *Struct) Member(name string) (*Member, bool) {
	for _, member := range t.Members {
		if member.Name == name {
			return member, true
		}
	}
	return nil, false
}

// AddMember installs a clone of typ, so that per-use state such as the
// key flag is never shared between two uses of a named type.
func (t *Struct) AddMember(name string, typ Type) *Member {
	member := &Member{Name: name, Type: Clone(typ)}
	t.Members = append(t.Members, member)
	return member
}

type Case struct {
	Member  *Member
	Labels  []int64
	Default bool
}

type Union struct {
	Name         symtab.ScopedName
	Discriminant Type
	Cases        []*Case
	HasDefault   bool
	Parent       symtab.ScopedName
}

func (t *Union) TypeName() symtab.ScopedName   { return t.Name }
func (t *Union) ParentName() symtab.ScopedName { return t.Parent }

func (t *Union) AddCase(name string, typ Type, labels []int64, isDefault bool) *Case {
	unionCase := &Case{
		Member:  &Member{Name: name, Type: Clone(typ)},
		Labels:  labels,
		Default: isDefault,
	}
	if isDefault {
		t.HasDefault = true
	}
	t.Cases = append(t.Cases, unionCase)
	return unionCase
}

// LabelCount is the number of dispatch entries, with the default arm
// counted once more at the end.
func (t *Union) LabelCount() int {
	count := 0
	for _, unionCase := range t.Cases {
		count += len(unionCase.Labels)
	}
	if t.HasDefault {
		count++
	}
	return count
}

type Enum struct {
	Name        symtab.ScopedName
	Enumerators []string
	Parent      symtab.ScopedName
}

func (t *Enum) TypeName() symtab.ScopedName   { return t.Name }
func (t *Enum) ParentName() symtab.ScopedName { return t.Parent }

// Alias is a typedef. It is structurally transparent: every capability
// forwards to the referent.
type Alias struct {
	Name     symtab.ScopedName
	Referent Type
	Parent   symtab.ScopedName
}

func (t *Alias) TypeName() symtab.ScopedName   { return t.Name }
func (t *Alias) ParentName() symtab.ScopedName { return t.Parent }

func (*Basic) isType()         {}
func (*BoundedString) isType() {}
func (*Array) isType()         {}
func (*Sequence) isType()      {}
func (*Struct) isType()        {}
func (*Union) isType()         {}
func (*Enum) isType()          {}
func (*Alias) isType()         {}

// Deref strips any number of aliases.
func Deref(t Type) Type {
	for {
		alias, ok := t.(*Alias)
		if !ok {
			return t
		}
		t = alias.Referent
	}
}

// Clone returns a deep copy of t. Enums and basic types are immutable
// and returned as-is.
func Clone(t Type) Type {
	switch t := t.(type) {
	case *Basic, *Enum, *BoundedString:
		return t
	case *Array:
		return &Array{
			Dims: append([]uint64(nil), t.Dims...),
			Elem: Clone(t.Elem),
		}
	case *Sequence:
		return &Sequence{Elem: Clone(t.Elem), ElemName: t.ElemName}
	case *Struct:
		out := &Struct{Name: t.Name, Parent: t.Parent}
		out.Members = make([]*Member, len(t.Members))
		for ii, member := range t.Members {
			out.Members[ii] = cloneMember(member)
		}
		return out
	case *Union:
		out := &Union{
			Name:         t.Name,
			Discriminant: Clone(t.Discriminant),
			HasDefault:   t.HasDefault,
			Parent:       t.Parent,
		}
		out.Cases = make([]*Case, len(t.Cases))
		for ii, unionCase := range t.Cases {
			out.Cases[ii] = &Case{
				Member:  cloneMember(unionCase.Member),
				Labels:  append([]int64(nil), unionCase.Labels...),
				Default: unionCase.Default,
			}
		}
		return out
	case *Alias:
		return &Alias{Name: t.Name, Referent: Clone(t.Referent), Parent: t.Parent}
	}
	panic(fmt.Sprintf("meta.Clone: unknown type %T", t))
}

func cloneMember(member *Member) *Member {
	return &Member{
		Name: member.Name,
		Type: Clone(member.Type),
		Key:  member.Key,
	}
}

// CName is the C spelling of t as used in sizeof expressions and
// sequence element names.
func CName(t Type) string {
	switch t := t.(type) {
	case *Basic:
		switch t.Kind {
		case BasicKind_BOOLEAN:
			return "bool"
		case BasicKind_OCTET:
			return "uint8_t"
		case BasicKind_CHAR:
			return "char"
		case BasicKind_SHORT:
			return "int16_t"
		case BasicKind_USHORT:
			return "uint16_t"
		case BasicKind_LONG:
			return "int32_t"
		case BasicKind_ULONG:
			return "uint32_t"
		case BasicKind_LONGLONG:
			return "int64_t"
		case BasicKind_ULONGLONG:
			return "uint64_t"
		case BasicKind_FLOAT:
			return "float"
		case BasicKind_DOUBLE:
			return "double"
		case BasicKind_STRING:
			return "char *"
		}
	case *BoundedString:
		return "char"
	case *Sequence:
		return "dds_sequence_t"
	case *Array:
		return CName(t.Elem)
	case Named:
		return t.TypeName().CName()
	}
	panic(fmt.Sprintf("meta.CName: unknown type %T", t))
}

// NativeSize is a C expression for the in-memory size of one value of t.
func NativeSize(t Type) string {
	switch t := t.(type) {
	case *Basic:
		return basicTable[t.Kind].nativeSize
	case *BoundedString:
		return fmt.Sprintf("%du", t.Bound+1)
	case *Array:
		return fmt.Sprintf("%du * %s", t.Count(), NativeSize(t.Elem))
	case *Sequence:
		return "sizeof (dds_sequence_t)"
	case *Enum:
		return "4u"
	case *Alias:
		return NativeSize(t.Referent)
	case Named:
		return fmt.Sprintf("sizeof (%s)", t.TypeName().CName())
	}
	panic(fmt.Sprintf("meta.NativeSize: unknown type %T", t))
}
