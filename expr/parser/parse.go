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

// Package parser turns filter expression text into expr trees.
//
// The grammar, lowest precedence first:
//
//	or
//	and
//	not
//	== != < <= > >= in, not in   (non-chaining)
//	|
//	&
//	+ -
//	* / // %
//	~ - (unary)
//	^ (right-associative)
//	literals, lists, names, name[name], name.method(...), func(...)
//
// Chains of three or more and/or operands parse to right-nested
// pairwise trees, never flat n-ary nodes.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quantpoll/filterql/expr"
)

// Parse parses a filter expression into an alias-addressed tree.
// Malformed text produces a *SyntaxError; syntactically valid but
// rejected constructs produce an error wrapping expr.ErrValue.
func Parse(text string) (expr.Node, error) {
	return parse(text, false)
}

// ParsePlatonic is Parse, except bracket subscripts produce the
// platonic Axis form, which later resolution leaves alias-addressed.
func ParsePlatonic(text string) (expr.Node, error) {
	return parse(text, true)
}

func parse(text string, platonic bool) (expr.Node, error) {
	p := &parser{platonic: platonic}
	p.sc.from = []byte(text)
	p.next()
	if p.tok.kind == tokEOF {
		return nil, &SyntaxError{Position: 0, Message: "empty expression"}
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.bad()
	}
	return n, nil
}

type parser struct {
	sc       scanner
	tok      token
	ahead    *token
	platonic bool
}

func (p *parser) next() {
	if p.ahead != nil {
		p.tok = *p.ahead
		p.ahead = nil
		return
	}
	p.tok = p.sc.scan()
}

func (p *parser) peek() token {
	if p.ahead == nil {
		t := p.sc.scan()
		p.ahead = &t
	}
	return *p.ahead
}

func (p *parser) peekOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) is(text string) bool {
	return p.tok.kind == tokOp && p.tok.text == text
}

// expect consumes the operator token text or fails
func (p *parser) expect(text string) error {
	if !p.is(text) {
		return p.bad()
	}
	p.next()
	return nil
}

// bad converts the current token into a syntax error
func (p *parser) bad() error {
	if p.tok.kind == tokErr {
		return p.sc.err
	}
	if p.tok.kind == tokEOF {
		return &SyntaxError{Position: p.tok.pos, Message: "unexpected end of expression"}
	}
	return &SyntaxError{Position: p.tok.pos, Message: fmt.Sprintf("unexpected %q", p.tok.text)}
}

func (p *parser) parseOr() (expr.Node, error) {
	terms, err := p.operands((*parser).parseAnd, tokOr)
	if err != nil {
		return nil, err
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return expr.Nest(expr.OpOr, terms...), nil
}

func (p *parser) parseAnd() (expr.Node, error) {
	terms, err := p.operands((*parser).parseNot, tokAnd)
	if err != nil {
		return nil, err
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return expr.Nest(expr.OpAnd, terms...), nil
}

// operands collects sub-expressions chained by the keyword sep
func (p *parser) operands(sub func(*parser) (expr.Node, error), sep tokKind) ([]expr.Node, error) {
	first, err := sub(p)
	if err != nil {
		return nil, err
	}
	terms := []expr.Node{first}
	for p.tok.kind == sep {
		p.next()
		n, err := sub(p)
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
	}
	return terms, nil
}

func (p *parser) parseNot() (expr.Node, error) {
	if p.tok.kind == tokNot {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &expr.Call{Func: expr.OpNot, Args: []expr.Node{operand}}, nil
	}
	return p.parseComparison()
}

var comparisons = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *parser) parseComparison() (expr.Node, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	switch {
	case p.tok.kind == tokOp && comparisons[p.tok.text]:
		op := p.tok.text
		p.next()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		if err := p.checkChain(); err != nil {
			return nil, err
		}
		return &expr.Call{Func: op, Args: []expr.Node{left, right}}, nil
	case p.tok.kind == tokIn:
		p.next()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		if err := p.checkChain(); err != nil {
			return nil, err
		}
		return &expr.Call{Func: expr.OpIn, Args: []expr.Node{left, right}}, nil
	case p.tok.kind == tokNot && p.peek().kind == tokIn:
		// x not in y normalizes to not (x in y)
		p.next()
		p.next()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		if err := p.checkChain(); err != nil {
			return nil, err
		}
		in := &expr.Call{Func: expr.OpIn, Args: []expr.Node{left, right}}
		return &expr.Call{Func: expr.OpNot, Args: []expr.Node{in}}, nil
	}
	return left, nil
}

// checkChain rejects a == 1 == 2 style chains
func (p *parser) checkChain() error {
	if p.tok.kind == tokIn || (p.tok.kind == tokOp && comparisons[p.tok.text]) {
		return expr.Valuef("only one logical operator at a time")
	}
	return nil
}

func (p *parser) parseBitOr() (expr.Node, error) {
	return p.binary((*parser).parseBitAnd, "|")
}

func (p *parser) parseBitAnd() (expr.Node, error) {
	return p.binary((*parser).parseAdditive, "&")
}

func (p *parser) parseAdditive() (expr.Node, error) {
	return p.binary((*parser).parseTerm, "+", "-")
}

func (p *parser) parseTerm() (expr.Node, error) {
	return p.binary((*parser).parseUnary, "*", "/", "//", "%")
}

// binary parses a left-associative chain of the given operators
func (p *parser) binary(sub func(*parser) (expr.Node, error), ops ...string) (expr.Node, error) {
	left, err := sub(p)
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp {
		op := p.tok.text
		found := false
		for _, o := range ops {
			if op == o {
				found = true
				break
			}
		}
		if !found {
			break
		}
		p.next()
		right, err := sub(p)
		if err != nil {
			return nil, err
		}
		left = &expr.Call{Func: op, Args: []expr.Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr.Node, error) {
	if p.is("~") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &expr.Call{Func: expr.OpInvert, Args: []expr.Node{operand}}, nil
	}
	if p.is("-") {
		pos := p.tok.pos
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		switch v := operand.(type) {
		case expr.Int:
			return -v, nil
		case expr.Float:
			return -v, nil
		}
		return nil, &SyntaxError{Position: pos, Message: "unary '-' requires a numeric literal"}
	}
	return p.parsePower()
}

func (p *parser) parsePower() (expr.Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.is("^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &expr.Call{Func: expr.OpPow, Args: []expr.Node{base, exp}}, nil
	}
	return base, nil
}

func (p *parser) parsePostfix() (expr.Node, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is("["):
			v, ok := prim.(expr.Variable)
			if !ok {
				return nil, &SyntaxError{
					Position: p.tok.pos,
					Message:  fmt.Sprintf("cannot subscript a %s, variable name expected", expr.Kind(prim)),
				}
			}
			p.next()
			if p.tok.kind != tokIdent {
				return nil, p.bad()
			}
			sub := p.tok.text
			p.next()
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			if p.platonic {
				prim = &expr.Axis{Var: string(v), Axes: []string{sub}}
			} else {
				prim = &expr.Subvar{Array: string(v), Sub: sub}
			}
		case p.is("."):
			p.next()
			if p.tok.kind != tokIdent {
				return nil, p.bad()
			}
			method := p.tok.text
			p.next()
			if err := p.expect("("); err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			prim, err = buildMethod(prim, method, args)
			if err != nil {
				return nil, err
			}
		default:
			return prim, nil
		}
	}
}

func (p *parser) parsePrimary() (expr.Node, error) {
	switch p.tok.kind {
	case tokInt:
		n := expr.Int(p.tok.i)
		p.next()
		return n, nil
	case tokFloat:
		n := expr.Float(p.tok.f)
		p.next()
		return n, nil
	case tokString:
		n := expr.String(p.tok.text)
		p.next()
		return n, nil
	case tokIdent:
		name := p.tok.text
		if p.peekOp("(") {
			p.next()
			p.next()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return buildFunction(name, args)
		}
		p.next()
		return expr.Variable(name), nil
	case tokOp:
		switch p.tok.text {
		case "(":
			p.next()
			return p.parseParen()
		case "[":
			p.next()
			elems, err := p.listBody("]", nil)
			if err != nil {
				return nil, err
			}
			return classifyList(elems)
		}
	}
	return nil, p.bad()
}

// parseParen disambiguates a parenthesized expression from a
// tuple literal: a ',' after the first element makes it a tuple.
func (p *parser) parseParen() (expr.Node, error) {
	if p.isRange() {
		elems, err := p.listBody(")", nil)
		if err != nil {
			return nil, err
		}
		return classifyList(elems)
	}
	first, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.is(")") {
		p.next()
		return first, nil
	}
	if !p.is(",") {
		return nil, p.bad()
	}
	p.next()
	elems, err := p.listBody(")", []expr.Node{first})
	if err != nil {
		return nil, err
	}
	return classifyList(elems)
}

func (p *parser) isRange() bool {
	return p.tok.kind == tokIdent && p.tok.text == "r" && p.peekOp("(")
}

// listBody parses comma-separated list elements up to and including
// the closing bracket, splicing r(a, b) ranges inline.
func (p *parser) listBody(end string, elems []expr.Node) ([]expr.Node, error) {
	if p.is(end) {
		p.next()
		return elems, nil
	}
	for {
		if p.isRange() {
			vals, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				elems = append(elems, expr.Int(v))
			}
		} else {
			e, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		if p.is(",") {
			p.next()
			continue
		}
		if err := p.expect(end); err != nil {
			return nil, err
		}
		return elems, nil
	}
}

// parseRange parses the r(a, b) helper into the inclusive integer
// range [a..b]. Anything but two integer arguments is ErrRange.
func (p *parser) parseRange() ([]int64, error) {
	p.next() // r
	p.next() // (
	lo, err := p.parseOr()
	if err != nil {
		return nil, ErrRange
	}
	if !p.is(",") {
		return nil, ErrRange
	}
	p.next()
	hi, err := p.parseOr()
	if err != nil {
		return nil, ErrRange
	}
	if !p.is(")") {
		return nil, ErrRange
	}
	p.next()
	low, ok := lo.(expr.Int)
	if !ok {
		return nil, ErrRange
	}
	high, ok := hi.(expr.Int)
	if !ok {
		return nil, ErrRange
	}
	var out []int64
	for v := int64(low); v <= int64(high); v++ {
		out = append(out, v)
	}
	return out, nil
}

// parseArgs parses a call argument list; the opening '(' is already
// consumed. Keyword arguments are not part of the language.
func (p *parser) parseArgs() ([]expr.Node, error) {
	var args []expr.Node
	if p.is(")") {
		p.next()
		return args, nil
	}
	for {
		if p.tok.kind == tokIdent && p.peekOp("=") {
			return nil, expr.Valuef("unsupported call with argument %q", p.tok.text)
		}
		a, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.is(",") {
			p.next()
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// classifyList decides the node shape of a list literal: a list of
// bare names is a Column (subvariable-addressed), a homogeneous list
// of numbers or of strings is a List, and anything else is rejected.
func classifyList(elems []expr.Node) (expr.Node, error) {
	names, nums, strs := true, true, true
	for i := range elems {
		switch elems[i].(type) {
		case expr.Variable:
			nums, strs = false, false
		case expr.Int, expr.Float:
			names, strs = false, false
		case expr.String:
			names, nums = false, false
		default:
			names, nums, strs = false, false, false
		}
	}
	switch {
	case names:
		col := make(expr.Column, len(elems))
		for i := range elems {
			col[i] = string(elems[i].(expr.Variable))
		}
		return col, nil
	case nums, strs:
		return expr.List(elems), nil
	}
	return nil, expr.Valuef("Only list-of-int or list-of-str are currently supported")
}

func buildMethod(receiver expr.Node, method string, args []expr.Node) (expr.Node, error) {
	switch receiver.(type) {
	case expr.Variable, *expr.Subvar, *expr.Axis:
	default:
		return nil, &SyntaxError{
			Message: fmt.Sprintf("calling methods of a %s not allowed, variable name expected", expr.Kind(receiver)),
		}
	}
	fn, ok := expr.Methods[method]
	if !ok {
		return nil, expr.Valuef("unknown method %q, valid methods are: [%s]", method, keys(expr.Methods))
	}
	switch fn {
	case expr.FuncDuplicates, expr.FuncBin, expr.FuncSelected, expr.FuncNotSelected:
		if len(args) != 0 {
			return nil, expr.Valuef("No parameters allowed for %q", method)
		}
		return &expr.Call{Func: fn, Args: []expr.Node{receiver}}, nil
	}
	if len(args) != 1 {
		return nil, expr.Valuef("1 argument expected, got %d", len(args))
	}
	arg := args[0]
	switch fn {
	case expr.FuncAny, expr.FuncAll:
		switch arg.(type) {
		case expr.List, expr.Column:
		default:
			return nil, expr.Valuef("expected list, got %s", expr.Kind(arg))
		}
	case expr.FuncHasCount:
		if _, ok := arg.(expr.Int); !ok {
			return nil, expr.Valuef("expected integer, got %s", expr.Kind(arg))
		}
	}
	return &expr.Call{Func: fn, Args: []expr.Node{receiver, arg}}, nil
}

func buildFunction(name string, args []expr.Node) (expr.Node, error) {
	fn, ok := expr.Functions[name]
	if !ok {
		return nil, expr.Valuef("unknown function %q, valid functions are: [%s]", name, keys(expr.Functions))
	}
	if len(args) == 0 {
		return nil, expr.Valuef("%s expects at least 1 argument", name)
	}
	if fn != expr.FuncIsValid && fn != expr.FuncIsMissing {
		if len(args) != 1 {
			return nil, expr.Valuef("1 argument expected, got %d", len(args))
		}
		return &expr.Call{Func: fn, Args: args}, nil
	}
	// valid(a, b, ...) combines per-argument calls with or
	wrapped := make([]expr.Node, len(args))
	for i := range args {
		wrapped[i] = &expr.Call{Func: fn, Args: []expr.Node{args[i]}}
	}
	if len(wrapped) == 1 {
		return wrapped[0], nil
	}
	return expr.Nest(expr.OpOr, wrapped...), nil
}

func keys(m map[string]string) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
