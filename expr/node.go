// Copyright 2024 Quantpoll, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package expr defines the filter expression tree and its wire encoding.
//
// A filter expression such as
//
//	disposition == 0 or exit_status == 0
//
// is represented as a tree of Node values and serializes to the wire
// format consumed by the analytics service:
//
//	{"function": "or", "args": [
//	    {"function": "==", "args": [{"variable": "disposition"}, {"value": 0}]},
//	    {"function": "==", "args": [{"variable": "exit_status"}, {"value": 0}]}]}
//
// Trees produced by the parser address variables by alias; the resolve
// package lowers them to identifier (URL) addressed trees.
package expr

import (
	"golang.org/x/exp/slices"
)

// Node is one node of a filter expression tree.
// The set of implementations is closed: Call, Variable,
// Subvar, Axis, Int, Float, String, List and Column.
// Nodes are immutable once constructed.
type Node interface {
	// node restricts implementations to this package.
	node()
}

// Call is a function application. The name is one of the wire
// function names: an infix operator ("==", "and", "+", "in", ...)
// or a special form ("any", "all", "duplicates", "is_valid", ...).
type Call struct {
	Func string
	Args []Node
}

// Variable is a variable reference, either an alias ("age") or,
// after lowering, a wire identifier URL (".../variables/0001/").
type Variable string

// Subvar is the bracket form array[subvar], addressed by alias.
// Lowering replaces it with the subvariable's wire identifier.
type Subvar struct {
	Array string
	Sub   string
}

// Axis is the platonic {var, axes} form of an array axis reference.
// Unlike Subvar it survives lowering unchanged; it is used where
// no identifier resolution is wanted.
type Axis struct {
	Var  string
	Axes []string
}

// Int is an integer literal.
type Int int64

// Float is a floating-point literal.
type Float float64

// String is a string literal.
type String string

// List is a homogeneous list literal; elements are
// all Int/Float or all String.
type List []Node

// Column is a list of subvariable names, as written in
// subvariable-addressed any/all argument lists.
type Column []string

func (*Call) node()    {}
func (Variable) node() {}
func (*Subvar) node()  {}
func (*Axis) node()    {}
func (Int) node()      {}
func (Float) node()    {}
func (String) node()   {}
func (List) node()     {}
func (Column) node()   {}

// Equal reports whether a and b are equivalent trees.
// Int and Float nodes compare numerically, so Int(25)
// equals Float(25.0). Either argument may be nil.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case *Call:
		bc, ok := b.(*Call)
		return ok && a.Func == bc.Func && slices.EqualFunc(a.Args, bc.Args, Equal)
	case Variable:
		bv, ok := b.(Variable)
		return ok && a == bv
	case *Subvar:
		bs, ok := b.(*Subvar)
		return ok && *a == *bs
	case *Axis:
		ba, ok := b.(*Axis)
		return ok && a.Var == ba.Var && slices.Equal(a.Axes, ba.Axes)
	case Int:
		switch b := b.(type) {
		case Int:
			return a == b
		case Float:
			return Float(a) == b
		}
		return false
	case Float:
		switch b := b.(type) {
		case Float:
			return a == b
		case Int:
			return a == Float(b)
		}
		return false
	case String:
		bs, ok := b.(String)
		return ok && a == bs
	case List:
		bl, ok := b.(List)
		return ok && slices.EqualFunc(a, bl, Equal)
	case Column:
		bc, ok := b.(Column)
		return ok && slices.Equal(a, bc)
	}
	return false
}

// kind names a node's shape for error messages.
func kind(n Node) string {
	switch n.(type) {
	case *Call:
		return "function call"
	case Variable:
		return "variable"
	case *Subvar, *Axis:
		return "subvariable"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "str"
	case List:
		return "list"
	case Column:
		return "column"
	}
	return "unknown"
}

// Kind is the exported form of kind, used by the
// parser and resolver in error messages.
func Kind(n Node) string { return kind(n) }
