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

package ddsbin

import (
	"fmt"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
)

// Kinds of TypeDecl.
const (
	DeclStruct   = "struct"
	DeclUnion    = "union"
	DeclEnum     = "enum"
	DeclTypedef  = "typedef"
	DeclSequence = "sequence"
)

// Field is one C declarator: Type, then Name, then Dims.
type Field struct {
	Name string
	Type string
	// Dims is the array suffix, e.g. "[3][9]".
	Dims string
}

// TypeDecl is the C declaration of one named type, or of the sequence
// struct backing a sequence-typed member.
//
// Structs and unions list their members in Fields. A sequence has a
// single field for its buffer. A typedef has a single field whose Name is
// the declared name.
type TypeDecl struct {
	Kind string
	Name string
	// Discriminant is the C type of a union's discriminator.
	Discriminant string
	Fields       []Field
	Enumerators  []string
}

// NewTypeDecls lists declarations for every type in set so that nothing is
// used before it is declared. Nested types come before their parent and
// sequence structs before the member that holds them.
func NewTypeDecls(set *meta.TypeSet) ([]*TypeDecl, error) {
	order, err := meta.EmissionOrder(set)
	if err != nil {
		return nil, err
	}
	b := &declBuilder{set: set}
	for _, t := range order {
		b.named(t)
	}
	return b.decls, nil
}

type declBuilder struct {
	set   *meta.TypeSet
	decls []*TypeDecl
}

func (b *declBuilder) named(t meta.Named) {
	for _, child := range b.set.Children(t.TypeName()) {
		b.named(child)
	}
	name := t.TypeName().CName()
	switch t := t.(type) {
	case *meta.Struct:
		decl := &TypeDecl{Kind: DeclStruct, Name: name}
		for _, member := range t.Members {
			decl.Fields = append(decl.Fields, b.field(name+"_"+member.Name, member.Name, member.Type))
		}
		b.decls = append(b.decls, decl)
	case *meta.Union:
		decl := &TypeDecl{
			Kind:         DeclUnion,
			Name:         name,
			Discriminant: meta.CName(t.Discriminant),
		}
		for _, unionCase := range t.Cases {
			member := unionCase.Member
			decl.Fields = append(decl.Fields, b.field(name+"_"+member.Name, member.Name, member.Type))
		}
		b.decls = append(b.decls, decl)
	case *meta.Enum:
		scope := t.Name.Path()
		decl := &TypeDecl{Kind: DeclEnum, Name: name}
		for _, enumerator := range t.Enumerators {
			decl.Enumerators = append(decl.Enumerators, scope.Child(enumerator).CName())
		}
		b.decls = append(b.decls, decl)
	case *meta.Alias:
		if seq, ok := t.Referent.(*meta.Sequence); ok {
			b.sequence(name, seq)
			return
		}
		b.decls = append(b.decls, &TypeDecl{
			Kind:   DeclTypedef,
			Name:   name,
			Fields: []Field{b.field(name, name, t.Referent)},
		})
	}
}

// field declares name as a value of t. Anonymous sequences get a struct
// named after owner.
func (b *declBuilder) field(owner, name string, t meta.Type) Field {
	f := Field{Name: name}
	if array, ok := t.(*meta.Array); ok {
		for _, dim := range array.Dims {
			f.Dims += fmt.Sprintf("[%d]", dim)
		}
		t = array.Elem
	}
	switch t := t.(type) {
	case *meta.BoundedString:
		f.Type = "char"
		f.Dims += fmt.Sprintf("[%d]", t.Bound+1)
	case *meta.Sequence:
		seqName := owner + "_seq"
		b.sequence(seqName, t)
		f.Type = seqName
	default:
		f.Type = meta.CName(t)
	}
	return f
}

func (b *declBuilder) sequence(name string, seq *meta.Sequence) {
	buffer := b.field(name, "*_buffer", seq.Elem)
	if buffer.Dims != "" {
		buffer.Name = "(*_buffer)"
	}
	b.decls = append(b.decls, &TypeDecl{
		Kind:   DeclSequence,
		Name:   name,
		Fields: []Field{buffer},
	})
}

const (
	tagFieldName = 1
	tagFieldType = 2
	tagFieldDims = 3

	tagDeclKind         = 1
	tagDeclName         = 2
	tagDeclDiscriminant = 3
	tagDeclField        = 4
	tagDeclEnumerator   = 5
)

func encodeField(f Field) ([]byte, error) {
	w := newWriter()
	w.text(tagFieldName, f.Name)
	w.text(tagFieldType, f.Type)
	w.text(tagFieldDims, f.Dims)
	return w.finish()
}

func decodeField(fields []field) (Field, error) {
	var out Field
	var err error
	for _, f := range fields {
		switch f.tag {
		case tagFieldName:
			out.Name, err = f.text()
		case tagFieldType:
			out.Type, err = f.text()
		case tagFieldDims:
			out.Dims, err = f.text()
		default:
			err = f.unknown()
		}
		if err != nil {
			return Field{}, err
		}
	}
	return out, nil
}

func encodeTypeDecl(decl *TypeDecl) ([]byte, error) {
	w := newWriter()
	w.text(tagDeclKind, decl.Kind)
	w.text(tagDeclName, decl.Name)
	w.text(tagDeclDiscriminant, decl.Discriminant)
	for _, f := range decl.Fields {
		buf, err := encodeField(f)
		if err != nil {
			return nil, err
		}
		w.message(tagDeclField, buf)
	}
	for _, enumerator := range decl.Enumerators {
		w.field(tagDeclEnumerator, kindText, []byte(enumerator))
	}
	return w.finish()
}

func decodeTypeDecl(fields []field) (*TypeDecl, error) {
	decl := &TypeDecl{}
	for _, f := range fields {
		var err error
		switch f.tag {
		case tagDeclKind:
			decl.Kind, err = f.text()
		case tagDeclName:
			decl.Name, err = f.text()
		case tagDeclDiscriminant:
			decl.Discriminant, err = f.text()
		case tagDeclField:
			var subFields []field
			if subFields, err = f.message(); err == nil {
				var out Field
				if out, err = decodeField(subFields); err == nil {
					decl.Fields = append(decl.Fields, out)
				}
			}
		case tagDeclEnumerator:
			var enumerator string
			if enumerator, err = f.text(); err == nil {
				decl.Enumerators = append(decl.Enumerators, enumerator)
			}
		default:
			err = f.unknown()
		}
		if err != nil {
			return nil, err
		}
	}
	return decl, nil
}
