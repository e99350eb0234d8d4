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
	"strings"

	"github.com/eclipse-cyclonedds/cyclonedds-sub000/idl/symtab"
)

// TypeSet holds named types in declaration order.
type TypeSet struct {
	types  []Named
	byName map[string]Named
}

func NewTypeSet() *TypeSet {
	return &TypeSet{byName: make(map[string]Named)}
}

// Add inserts t. Adding a second type with the same name panics.
func (s *TypeSet) Add(t Named) {
	key := t.TypeName().String()
	if _, dup := s.byName[key]; dup {
		panic(fmt.Sprintf("meta.TypeSet.Add: duplicate type %s", key))
	}
	s.byName[key] = t
	s.types = append(s.types, t)
}

func (s *TypeSet) Lookup(name symtab.ScopedName) (Named, bool) {
	t, ok := s.byName[name.String()]
	return t, ok
}

func (s *TypeSet) Len() int {
	return len(s.types)
}

func (s *TypeSet) All() []Named {
	return s.types
}

// TopLevel returns the types that are not nested in another type.
func (s *TypeSet) TopLevel() []Named {
	var out []Named
	for _, t := range s.types {
		if t.ParentName().IsEmpty() {
			out = append(out, t)
		}
	}
	return out
}

// Children returns the types declared directly inside parent.
func (s *TypeSet) Children(parent symtab.ScopedName) []Named {
	var out []Named
	for _, t := range s.types {
		if t.ParentName().Equal(parent) {
			out = append(out, t)
		}
	}
	return out
}

// topLevelOf follows the parent chain of name up to a top-level type.
func (s *TypeSet) topLevelOf(name symtab.ScopedName) symtab.ScopedName {
	for {
		t, ok := s.Lookup(name)
		if !ok || t.ParentName().IsEmpty() {
			return name
		}
		name = t.ParentName()
	}
}

// Deps lists the top-level types that t, or any type nested in t, refers
// to. t itself is never included.
func (s *TypeSet) Deps(t Named) []symtab.ScopedName {
	self := t.TypeName()
	seen := make(map[string]struct{})
	var out []symtab.ScopedName
	var visitNamed func(n Named)
	visitNamed = func(n Named) {
		for _, ref := range references(n) {
			top := s.topLevelOf(ref)
			if top.Equal(self) {
				continue
			}
			key := top.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, top)
		}
		for _, child := range s.Children(n.TypeName()) {
			visitNamed(child)
		}
	}
	visitNamed(t)
	return out
}

// references returns the names of the named types directly used by the
// definition of t.
func references(t Named) []symtab.ScopedName {
	var out []symtab.ScopedName
	var visit func(t Type)
	visit = func(t Type) {
		switch t := t.(type) {
		case Named:
			out = append(out, t.TypeName())
		case *Array:
			visit(t.Elem)
		case *Sequence:
			visit(t.Elem)
		}
	}
	switch t := t.(type) {
	case *Struct:
		for _, member := range t.Members {
			visit(member.Type)
		}
	case *Union:
		visit(t.Discriminant)
		for _, unionCase := range t.Cases {
			visit(unionCase.Member.Type)
		}
	case *Alias:
		visit(t.Referent)
	}
	return out
}

// CycleError is returned when the remaining types all depend on each
// other.
type CycleError struct {
	Names []symtab.ScopedName
}

func (err *CycleError) Error() string {
	names := make([]string, len(err.Names))
	for ii, name := range err.Names {
		names[ii] = name.String()
	}
	return fmt.Sprintf("cyclic type dependencies between %s", strings.Join(names, ", "))
}

type orderState struct {
	set     *TypeSet
	deps    map[string][]symtab.ScopedName
	emitted map[string]struct{}
}

func newOrderState(set *TypeSet) *orderState {
	st := &orderState{
		set:     set,
		deps:    make(map[string][]symtab.ScopedName),
		emitted: make(map[string]struct{}),
	}
	for _, t := range set.TopLevel() {
		st.deps[t.TypeName().String()] = set.Deps(t)
	}
	return st
}

func (st *orderState) ready(t Named) bool {
	for _, dep := range st.deps[t.TypeName().String()] {
		if _, known := st.set.Lookup(dep); !known {
			continue
		}
		if _, done := st.emitted[dep.String()]; !done {
			return false
		}
	}
	return true
}

func (st *orderState) emit(t Named) {
	st.emitted[t.TypeName().String()] = struct{}{}
}

func (st *orderState) isEmitted(t Named) bool {
	_, ok := st.emitted[t.TypeName().String()]
	return ok
}

// DepsOrder returns the top-level types so that every type comes after
// the types it depends on, keeping declaration order where possible.
func DepsOrder(set *TypeSet) ([]Named, error) {
	st := newOrderState(set)
	pending := set.TopLevel()
	var out []Named
	for len(pending) > 0 {
		var next []Named
		for _, t := range pending {
			if st.ready(t) {
				st.emit(t)
				out = append(out, t)
			} else {
				next = append(next, t)
			}
		}
		if len(next) == len(pending) {
			return nil, cycleError(next)
		}
		pending = next
	}
	return out, nil
}

func cycleError(stuck []Named) *CycleError {
	names := make([]symtab.ScopedName, len(stuck))
	for ii, t := range stuck {
		names[ii] = t.TypeName()
	}
	return &CycleError{Names: names}
}

// namespace is the module path of a top-level type.
func namespace(t Named) string {
	return t.TypeName().Path().String()
}

// EmissionOrder is DepsOrder regrouped so that types of one module are
// emitted together when their dependencies allow it. At each step the
// module with the most ready types is chosen; ties go to the module seen
// first.
func EmissionOrder(set *TypeSet) ([]Named, error) {
	total, err := DepsOrder(set)
	if err != nil {
		return nil, err
	}

	var namespaces []string
	seenNamespace := make(map[string]struct{})
	for _, t := range total {
		ns := namespace(t)
		if _, ok := seenNamespace[ns]; !ok {
			seenNamespace[ns] = struct{}{}
			namespaces = append(namespaces, ns)
		}
	}

	st := newOrderState(set)
	out := make([]Named, 0, len(total))
	for len(out) < len(total) {
		best := ""
		bestScore := 0
		for _, ns := range namespaces {
			score := 0
			for _, t := range total {
				if namespace(t) == ns && !st.isEmitted(t) && st.ready(t) {
					score++
				}
			}
			if score > bestScore {
				best, bestScore = ns, score
			}
		}
		if bestScore == 0 {
			var stuck []Named
			for _, t := range total {
				if !st.isEmitted(t) {
					stuck = append(stuck, t)
				}
			}
			return nil, cycleError(stuck)
		}

		for progress := true; progress; {
			progress = false
			for _, t := range total {
				if namespace(t) != best || st.isEmitted(t) || !st.ready(t) {
					continue
				}
				st.emit(t)
				out = append(out, t)
				progress = true
			}
		}
	}
	return out, nil
}

// Closure returns a TypeSet holding root's top-level type, every
// top-level type it transitively depends on, and all of their nested
// types.
func (s *TypeSet) Closure(root Named) *TypeSet {
	out := NewTypeSet()
	included := make(map[string]struct{})
	var include func(name symtab.ScopedName)
	include = func(name symtab.ScopedName) {
		key := name.String()
		if _, ok := included[key]; ok {
			return
		}
		t, ok := s.Lookup(name)
		if !ok {
			return
		}
		included[key] = struct{}{}
		for _, dep := range s.Deps(t) {
			include(dep)
		}
	}
	include(s.topLevelOf(root.TypeName()))

	var addTree func(t Named)
	addTree = func(t Named) {
		out.Add(t)
		for _, child := range s.Children(t.TypeName()) {
			addTree(child)
		}
	}
	for _, t := range s.TopLevel() {
		if _, ok := included[t.TypeName().String()]; ok {
			addTree(t)
		}
	}
	return out
}
