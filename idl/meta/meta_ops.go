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
	"fmt"
	"strconv"
	"strings"
)

// Op is the operation of one instruction word.
type Op uint8

const (
	Op_RTS Op = iota
	Op_ADR
	Op_JSR
	Op_JEQ
	// Op_WORDS prefixes an element program with its length and the
	// native size of one element.
	Op_WORDS
	// Op_BOUND carries the buffer size of a bounded string.
	Op_BOUND
)

func (op Op) String() string {
	switch op {
	case Op_RTS:
		return "RTS"
	case Op_ADR:
		return "ADR"
	case Op_JSR:
		return "JSR"
	case Op_JEQ:
		return "JEQ"
	case Op_WORDS:
		return "WORDS"
	case Op_BOUND:
		return "BOUND"
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// OpType is the value type tag of an ADR or JEQ word.
type OpType uint8

const (
	OpType_NONE OpType = iota
	OpType_1BY
	OpType_2BY
	OpType_4BY
	OpType_8BY
	OpType_STR
	OpType_BST
	OpType_SEQ
	OpType_ARR
	OpType_UNI
	OpType_STU
)

func (t OpType) String() string {
	switch t {
	case OpType_NONE:
		return "NONE"
	case OpType_1BY:
		return "1BY"
	case OpType_2BY:
		return "2BY"
	case OpType_4BY:
		return "4BY"
	case OpType_8BY:
		return "8BY"
	case OpType_STR:
		return "STR"
	case OpType_BST:
		return "BST"
	case OpType_SEQ:
		return "SEQ"
	case OpType_ARR:
		return "ARR"
	case OpType_UNI:
		return "UNI"
	case OpType_STU:
		return "STU"
	}
	return fmt.Sprintf("OpType(%d)", uint8(t))
}

// Opcode values of the middleware's serializer.
const (
	OpcodeRTS uint32 = 0x00 << 24
	OpcodeADR uint32 = 0x01 << 24
	OpcodeJSR uint32 = 0x02 << 24
	OpcodeJEQ uint32 = 0x03 << 24

	OpcodeFlagKEY uint32 = 1 << 0
	OpcodeFlagDEF uint32 = 1 << 1
)

// Instruction is one word of a marshalling program. Which fields are
// meaningful depends on Op:
//
//	ADR:   Type, Subtype, Key, Default, Offset, Count (arrays: elements,
//	       unions: labels), Words (unions: own length)
//	JEQ:   Type, Jump, Label, Offset
//	WORDS: Words, Size
//	BOUND: Count
type Instruction struct {
	Op      Op
	Type    OpType
	Subtype OpType
	Key     bool
	Default bool
	Offset  string
	Count   uint64
	Label   int64
	Jump    int
	Words   int
	Size    string
}

func (inst Instruction) flagsString() string {
	var buf strings.Builder
	if inst.Key {
		buf.WriteString(" | DDS_OP_FLAG_KEY")
	}
	if inst.Default {
		buf.WriteString(" | DDS_OP_FLAG_DEF")
	}
	return buf.String()
}

// String renders the word as C source for an ops array.
func (inst Instruction) String() string {
	switch inst.Op {
	case Op_RTS:
		return "DDS_OP_RTS"
	case Op_ADR:
		var buf strings.Builder
		fmt.Fprintf(&buf, "DDS_OP_ADR | DDS_OP_TYPE_%s", inst.Type)
		if inst.Subtype != OpType_NONE {
			fmt.Fprintf(&buf, " | DDS_OP_SUBTYPE_%s", inst.Subtype)
		}
		buf.WriteString(inst.flagsString())
		fmt.Fprintf(&buf, ", %s", inst.Offset)
		switch inst.Type {
		case OpType_ARR:
			fmt.Fprintf(&buf, ", %du", inst.Count)
		case OpType_UNI:
			fmt.Fprintf(&buf, ", %du, %du", inst.Count, inst.Words)
		}
		return buf.String()
	case Op_JSR:
		return fmt.Sprintf("DDS_OP_JSR | %d", inst.Jump)
	case Op_JEQ:
		return fmt.Sprintf(
			"DDS_OP_JEQ | DDS_OP_TYPE_%s | %d, %d, %s",
			inst.Type, inst.Jump, inst.Label, inst.Offset,
		)
	case Op_WORDS:
		return fmt.Sprintf("%s, (%du << 16u) + 4u", inst.Size, inst.Words)
	case Op_BOUND:
		return fmt.Sprintf("%du", inst.Count)
	}
	return fmt.Sprintf("/* %v */", inst.Op)
}

// Encode renders the word as the numeric values of the ops array. Offset
// and size expressions are resolved by the C compiler and encode as 0
// unless they are plain integer literals.
func (inst Instruction) Encode() []uint32 {
	switch inst.Op {
	case Op_RTS:
		return []uint32{OpcodeRTS}
	case Op_ADR:
		word := OpcodeADR | uint32(inst.Type)<<16 | uint32(inst.Subtype)<<8
		if inst.Key {
			word |= OpcodeFlagKEY
		}
		if inst.Default {
			word |= OpcodeFlagDEF
		}
		out := []uint32{word, literalValue(inst.Offset)}
		switch inst.Type {
		case OpType_ARR:
			out = append(out, uint32(inst.Count))
		case OpType_UNI:
			out = append(out, uint32(inst.Count), uint32(inst.Words))
		}
		return out
	case Op_JSR:
		return []uint32{OpcodeJSR | uint32(uint16(inst.Jump))}
	case Op_JEQ:
		word := OpcodeJEQ | uint32(inst.Type)<<16 | uint32(uint16(inst.Jump))
		return []uint32{word, uint32(inst.Label), literalValue(inst.Offset)}
	case Op_WORDS:
		return []uint32{literalValue(inst.Size), uint32(inst.Words)<<16 + 4}
	case Op_BOUND:
		return []uint32{uint32(inst.Count)}
	}
	return nil
}

func literalValue(expr string) uint32 {
	value, err := strconv.ParseUint(strings.TrimSuffix(expr, "u"), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(value)
}

// Opcode is the type tag used when t appears as a subtype or as the type
// of a union case.
func Opcode(t Type) OpType {
	switch t := t.(type) {
	case *Basic:
		return basicTable[t.Kind].opcode
	case *BoundedString:
		return OpType_BST
	case *Array:
		return OpType_ARR
	case *Sequence:
		return OpType_SEQ
	case *Struct:
		return OpType_STU
	case *Union:
		return OpType_UNI
	case *Enum:
		return OpType_4BY
	case *Alias:
		return Opcode(t.Referent)
	}
	panic(fmt.Sprintf("meta.Opcode: unknown type %T", t))
}

// Site is where a value lives: the C type whose offsetof is taken and the
// member path within it. A zero Site is offset 0.
type Site struct {
	Container string
	Path      string
	Key       bool
}

func (s Site) Offset() string {
	if s.Container == "" {
		return "0u"
	}
	if s.Path == "" {
		return "0u"
	}
	return fmt.Sprintf("offsetof (%s, %s)", s.Container, s.Path)
}

func (s Site) Child(name string) Site {
	path := name
	if s.Path != "" {
		path = s.Path + "." + name
	}
	return Site{Container: s.Container, Path: path, Key: s.Key}
}

// rootSite is where a program for a standalone value of t starts.
func rootSite(t Type) Site {
	switch t := Deref(t).(type) {
	case *Struct:
		return Site{Container: t.Name.CName()}
	case *Union:
		return Site{Container: t.Name.CName()}
	}
	return Site{}
}

// hasElementProgram reports whether an array, sequence or union case of
// type t needs its own subroutine.
func hasElementProgram(t Type) bool {
	switch Deref(t).(type) {
	case *Basic, *Enum, *BoundedString:
		return false
	}
	return true
}

func isBasicCase(t Type) bool {
	switch Deref(t).(type) {
	case *Basic, *Enum:
		return true
	}
	return false
}

// WordCount is the number of instructions Emit produces for t.
func WordCount(t Type) int {
	switch t := t.(type) {
	case *Basic, *Enum:
		return 1
	case *BoundedString:
		return 2
	case *Array:
		return 1 + elementWordCount(t.Elem)
	case *Sequence:
		return 1 + elementWordCount(t.Elem)
	case *Struct:
		count := 0
		for _, member := range t.Members {
			count += WordCount(member.Type)
		}
		return count
	case *Union:
		count := 1 + t.LabelCount()
		for _, unionCase := range t.Cases {
			count += caseWordCount(unionCase)
		}
		return count
	case *Alias:
		return WordCount(t.Referent)
	}
	panic(fmt.Sprintf("meta.WordCount: unknown type %T", t))
}

func elementWordCount(elem Type) int {
	if _, ok := Deref(elem).(*BoundedString); ok {
		return 1
	}
	if !hasElementProgram(elem) {
		return 0
	}
	return 1 + WordCount(elem) + 1
}

func caseWordCount(unionCase *Case) int {
	if isBasicCase(unionCase.Member.Type) {
		return 0
	}
	return WordCount(unionCase.Member.Type) + 1
}

// Emit returns the marshalling program for a value of type t at site.
func Emit(t Type, site Site) []Instruction {
	return emit(nil, t, site)
}

// TopicProgram is the program for a topic type: its members followed by
// a final RTS.
func TopicProgram(s *Struct) []Instruction {
	ops := emit(nil, s, rootSite(s))
	return append(ops, Instruction{Op: Op_RTS})
}

func emit(ops []Instruction, t Type, site Site) []Instruction {
	switch t := t.(type) {
	case *Basic:
		return append(ops, Instruction{
			Op:     Op_ADR,
			Type:   basicTable[t.Kind].opcode,
			Key:    site.Key,
			Offset: site.Offset(),
		})
	case *Enum:
		return append(ops, Instruction{
			Op:     Op_ADR,
			Type:   OpType_4BY,
			Key:    site.Key,
			Offset: site.Offset(),
		})
	case *BoundedString:
		return append(ops,
			Instruction{
				Op:     Op_ADR,
				Type:   OpType_BST,
				Key:    site.Key,
				Offset: site.Offset(),
			},
			Instruction{Op: Op_BOUND, Count: t.Bound + 1},
		)
	case *Array:
		ops = append(ops, Instruction{
			Op:      Op_ADR,
			Type:    OpType_ARR,
			Subtype: Opcode(t.Elem),
			Key:     site.Key,
			Offset:  site.Offset(),
			Count:   t.Count(),
		})
		return emitElement(ops, t.Elem)
	case *Sequence:
		ops = append(ops, Instruction{
			Op:      Op_ADR,
			Type:    OpType_SEQ,
			Subtype: Opcode(t.Elem),
			Key:     site.Key,
			Offset:  site.Offset(),
		})
		return emitElement(ops, t.Elem)
	case *Struct:
		for _, member := range t.Members {
			child := site.Child(member.Name)
			child.Key = member.Key
			ops = emit(ops, member.Type, child)
		}
		return ops
	case *Union:
		return emitUnion(ops, t, site)
	case *Alias:
		return emit(ops, t.Referent, site)
	}
	panic(fmt.Sprintf("meta.Emit: unknown type %T", t))
}

func emitElement(ops []Instruction, elem Type) []Instruction {
	if bst, ok := Deref(elem).(*BoundedString); ok {
		return append(ops, Instruction{Op: Op_BOUND, Count: bst.Bound + 1})
	}
	if !hasElementProgram(elem) {
		return ops
	}
	ops = append(ops, Instruction{
		Op:    Op_WORDS,
		Words: WordCount(elem),
		Size:  NativeSize(elem),
	})
	ops = emit(ops, elem, rootSite(elem))
	return append(ops, Instruction{Op: Op_RTS})
}

func emitUnion(ops []Instruction, t *Union, site Site) []Instruction {
	labelCount := t.LabelCount()
	ops = append(ops, Instruction{
		Op:      Op_ADR,
		Type:    OpType_UNI,
		Subtype: Opcode(t.Discriminant),
		Key:     site.Key,
		Default: t.HasDefault,
		Offset:  site.Child("_d").Offset(),
		Count:   uint64(labelCount),
		Words:   WordCount(t),
	})

	// Word offset of each case subroutine, relative to the end of the
	// dispatch table.
	subroutineStart := make([]int, len(t.Cases))
	next := 0
	for ii, unionCase := range t.Cases {
		subroutineStart[ii] = next
		next += caseWordCount(unionCase)
	}

	jeq := func(caseIdx, labelIdx int, label int64) Instruction {
		unionCase := t.Cases[caseIdx]
		inst := Instruction{
			Op:     Op_JEQ,
			Type:   Opcode(unionCase.Member.Type),
			Label:  label,
			Offset: site.Child("_u." + unionCase.Member.Name).Offset(),
		}
		if !isBasicCase(unionCase.Member.Type) {
			inst.Jump = (labelCount - labelIdx) + subroutineStart[caseIdx]
		}
		return inst
	}

	labelIdx := 0
	defaultIdx := -1
	for ii, unionCase := range t.Cases {
		for _, label := range unionCase.Labels {
			ops = append(ops, jeq(ii, labelIdx, label))
			labelIdx++
		}
		if unionCase.Default {
			defaultIdx = ii
		}
	}
	if defaultIdx >= 0 {
		ops = append(ops, jeq(defaultIdx, labelIdx, 0))
	}

	for _, unionCase := range t.Cases {
		if isBasicCase(unionCase.Member.Type) {
			continue
		}
		// Case programs address the case value, which the JEQ word locates.
		ops = emit(ops, unionCase.Member.Type, rootSite(unionCase.Member.Type))
		ops = append(ops, Instruction{Op: Op_RTS})
	}
	return ops
}
