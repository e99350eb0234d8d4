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
	"go.uber.org/multierr"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/meta"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/syntax"
)

// Policy decides what happens to declarations using unsupported but
// mappable data types.
type Policy uint8

const (
	// Policy_STRICT reports them as errors.
	Policy_STRICT Policy = iota
	// Policy_LENIENT drops the enclosing struct or typedef with a warning.
	Policy_LENIENT
)

func (p Policy) String() string {
	if p == Policy_LENIENT {
		return "lenient"
	}
	return "strict"
}

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	policy        Policy
	mapWide       bool
	mapLongDouble bool
	allStructs    bool
	xml           bool
}

func WithPolicy(policy Policy) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.policy = policy
	})
}

// WithMapWide maps wchar and wstring onto char and string.
func WithMapWide(mapWide bool) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.mapWide = mapWide
	})
}

// WithMapLongDouble maps long double onto double.
func WithMapLongDouble(mapLongDouble bool) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.mapLongDouble = mapLongDouble
	})
}

// WithAllStructs makes every struct a topic, not only those named by a
// keylist pragma.
func WithAllStructs(allStructs bool) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.allStructs = allStructs
	})
}

// WithXML controls whether topics carry an XML type descriptor. It is
// enabled by default.
func WithXML(xml bool) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.xml = xml
	})
}

type KeyField struct {
	Name string
	// Offset is the index of the key's first instruction in Ops.
	Offset int
}

type Topic struct {
	Name      symtab.ScopedName
	Type      *meta.Struct
	Keys      []KeyField
	Ops       []meta.Instruction
	Alignment meta.Alignment
	KeySize   meta.KeySize
	Flags     meta.TopicFlags
	XML       string
}

type Result struct {
	Topics  []*Topic
	Types   *meta.TypeSet
	Symbols *symtab.Table

	Errors   []*Error
	Warnings []*Warning
}

// Err combines all errors, or returns nil if there were none.
func (r *Result) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

func Compile(spec *syntax.Specification, opts ...CompileOption) *Result {
	return NewCompileOptions(opts...).Compile(spec)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{
		xml: true,
	}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

// Check runs name resolution and validation only.
func (opts *CompileOptions) Check(spec *syntax.Specification) *Result {
	c := newCompiler(opts)
	c.validate(spec)
	return c.result()
}

func (opts *CompileOptions) Compile(spec *syntax.Specification) *Result {
	c := newCompiler(opts)
	c.validate(spec)
	if len(c.errors) > 0 {
		return c.result()
	}
	c.build(spec)
	if len(c.errors) > 0 {
		return c.result()
	}
	c.assembleTopics()
	return c.result()
}

type compiler struct {
	opts     *CompileOptions
	errors   []*Error
	warnings []*Warning

	// Set by validate()
	table    *symtab.Table
	pending  *symtab.Pending
	keylists []*keylist

	// Set by build()
	types  *meta.TypeSet
	consts map[string]constValue

	// Set by assembleTopics()
	topics []*Topic
}

func newCompiler(opts *CompileOptions) *compiler {
	return &compiler{
		opts:    opts,
		table:   symtab.NewTable(),
		pending: symtab.NewPending(),
		types:   meta.NewTypeSet(),
		consts:  make(map[string]constValue),
	}
}

func (c *compiler) err(err error) {
	c.errors = append(c.errors, err.(*Error))
}

func (c *compiler) warn(warning *Warning) {
	c.warnings = append(c.warnings, warning)
}

func (c *compiler) result() *Result {
	r := &Result{
		Symbols:  c.table,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if len(c.errors) == 0 {
		r.Topics = c.topics
		r.Types = c.types
	}
	return r
}
