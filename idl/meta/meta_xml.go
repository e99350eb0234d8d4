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

package meta

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
)

const xmlVersion = "1.0.0"

type xmlWriter struct {
	buf strings.Builder
}

func (w *xmlWriter) attr(s string) string {
	var buf strings.Builder
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (w *xmlWriter) tag(element string, selfClose bool, attrs []string) {
	w.buf.WriteString("<" + element)
	for ii := 0; ii+1 < len(attrs); ii += 2 {
		fmt.Fprintf(&w.buf, " %s=\"%s\"", attrs[ii], w.attr(attrs[ii+1]))
	}
	if selfClose {
		w.buf.WriteString("/>")
	} else {
		w.buf.WriteString(">")
	}
}

func (w *xmlWriter) open(element string, attrs ...string) {
	w.tag(element, false, attrs)
}

func (w *xmlWriter) empty(element string, attrs ...string) {
	w.tag(element, true, attrs)
}

func (w *xmlWriter) close(element string) {
	w.buf.WriteString("</" + element + ">")
}

// XML renders a reference to t as used inside a member, case or typedef
// element. Named types are referenced by their absolute name.
func XML(t Type) string {
	var w xmlWriter
	w.typeRef(t)
	return w.buf.String()
}

func (w *xmlWriter) typeRef(t Type) {
	switch t := t.(type) {
	case *Basic:
		w.empty(basicTable[t.Kind].xml)
	case *BoundedString:
		w.empty("String", "length", fmt.Sprintf("%d", t.Bound))
	case *Array:
		for _, dim := range t.Dims {
			w.open("Array", "size", fmt.Sprintf("%d", dim))
		}
		w.typeRef(t.Elem)
		for range t.Dims {
			w.close("Array")
		}
	case *Sequence:
		w.open("Sequence")
		w.typeRef(t.Elem)
		w.close("Sequence")
	case Named:
		w.empty("Type", "name", t.TypeName().XMLName())
	default:
		panic(fmt.Sprintf("meta.XML: unknown type %T", t))
	}
}

func (w *xmlWriter) definition(set *TypeSet, t Named) {
	name := t.TypeName().Leaf()
	nested := func() {
		for _, child := range set.Children(t.TypeName()) {
			w.definition(set, child)
		}
	}
	switch t := t.(type) {
	case *Struct:
		w.open("Struct", "name", name)
		nested()
		for _, member := range t.Members {
			w.open("Member", "name", member.Name)
			w.typeRef(member.Type)
			w.close("Member")
		}
		w.close("Struct")
	case *Union:
		w.open("Union", "name", name)
		nested()
		w.open("SwitchType")
		w.typeRef(t.Discriminant)
		w.close("SwitchType")
		for _, unionCase := range t.Cases {
			w.open("Case", "name", unionCase.Member.Name)
			w.typeRef(unionCase.Member.Type)
			for _, label := range unionCase.Labels {
				w.empty("Label", "value", w.labelValue(t, label))
			}
			if unionCase.Default {
				w.empty("Default")
			}
			w.close("Case")
		}
		w.close("Union")
	case *Enum:
		w.open("Enum", "name", name)
		for ii, enumerator := range t.Enumerators {
			w.empty("Element", "name", enumerator, "value", fmt.Sprintf("%d", ii))
		}
		w.close("Enum")
	case *Alias:
		w.open("TypeDef", "name", name)
		w.typeRef(t.Referent)
		w.close("TypeDef")
	}
}

func (w *xmlWriter) labelValue(t *Union, label int64) string {
	switch disc := Deref(t.Discriminant).(type) {
	case *Enum:
		if label >= 0 && label < int64(len(disc.Enumerators)) {
			return disc.Enumerators[label]
		}
	case *Basic:
		if disc.Kind == BasicKind_BOOLEAN {
			if label != 0 {
				return "True"
			}
			return "False"
		}
	}
	return fmt.Sprintf("%d", label)
}

// moduleContext tracks the Module elements currently open.
type moduleContext struct {
	w       *xmlWriter
	current []string
}

func (ctx *moduleContext) enter(module symtab.ScopedName) {
	target := module.Components()
	common := 0
	for common < len(ctx.current) && common < len(target) && ctx.current[common] == target[common] {
		common++
	}
	for ii := len(ctx.current); ii > common; ii-- {
		ctx.w.close("Module")
	}
	for _, component := range target[common:] {
		ctx.w.open("Module", "name", component)
	}
	ctx.current = append(ctx.current[:common:common], target[common:]...)
}

// XMLDescriptor renders the types in order, with nested types inlined in
// their parents and consecutive types of one module sharing a Module
// element.
func XMLDescriptor(set *TypeSet, order []Named) string {
	var w xmlWriter
	w.open("MetaData", "version", xmlVersion)
	ctx := moduleContext{w: &w}
	for _, t := range order {
		ctx.enter(t.TypeName().Path())
		w.definition(set, t)
	}
	ctx.enter(symtab.ScopedName{})
	w.close("MetaData")
	return w.buf.String()
}

// TopicXML renders the descriptor of root and everything it depends on.
func TopicXML(set *TypeSet, root Named) (string, error) {
	closure := set.Closure(root)
	order, err := EmissionOrder(closure)
	if err != nil {
		return "", err
	}
	return XMLDescriptor(closure, order), nil
}
