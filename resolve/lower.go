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

// Package resolve lowers alias-addressed expression trees against a
// dataset catalog, producing the identifier-addressed form the
// analytics service consumes, and inverts lowered trees back to
// readable text.
package resolve

import (
	"strconv"

	"github.com/quantpoll/filterql/catalog"
	"github.com/quantpoll/filterql/expr"
)

// Lower replaces every variable reference in n with its entity URL
// and applies array expansion where a whole array variable is the
// receiver of any, all, is_valid, or is_missing. The input tree is
// not modified. Unknown aliases fail with an error wrapping
// expr.ErrValue that names the offending alias.
func Lower(n expr.Node, cat *catalog.Catalog) (expr.Node, error) {
	return lower(n, cat)
}

func lower(n expr.Node, cat *catalog.Catalog) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Call:
		return lowerCall(n, cat)
	case expr.Variable:
		e, ok := cat.Lookup(string(n))
		if !ok {
			return nil, expr.Valuef("Invalid variable alias '%s'", string(n))
		}
		return expr.Variable(e.URL(cat.Base())), nil
	case *expr.Subvar:
		u, err := subvarURL(n, cat)
		if err != nil {
			return nil, err
		}
		return expr.Variable(u), nil
	case *expr.Axis:
		// platonic references stay alias-addressed
		return n, nil
	}
	return n, nil
}

func subvarURL(sv *expr.Subvar, cat *catalog.Catalog) (string, error) {
	e, ok := cat.Lookup(sv.Array + "[" + sv.Sub + "]")
	if !ok {
		if _, ok := cat.Lookup(sv.Array); !ok {
			return "", expr.Valuef("Invalid variable alias '%s'", sv.Array)
		}
		return "", expr.Valuef("Invalid variable alias '%s'", sv.Sub)
	}
	return e.URL(cat.Base()), nil
}

func lowerCall(call *expr.Call, cat *catalog.Catalog) (expr.Node, error) {
	switch call.Func {
	case expr.FuncAny, expr.FuncAll, expr.FuncIsValid, expr.FuncIsMissing:
		if len(call.Args) == 0 {
			return nil, expr.Valuef("%s needs a receiver", call.Func)
		}
		if v, ok := wholeArray(call.Args[0], cat); ok {
			return expand(call, v, cat)
		}
		return lowerDirect(call, cat)
	}
	args := make([]expr.Node, len(call.Args))
	for i := range call.Args {
		a, err := lower(call.Args[i], cat)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	out := &expr.Call{Func: call.Func, Args: args}
	if expr.Comparison(call.Func) {
		if err := translateCategories(out, call, cat); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// wholeArray reports whether the receiver names an array variable as
// a whole. A bracketed subvariable reference never triggers
// expansion, even on array types.
func wholeArray(receiver expr.Node, cat *catalog.Catalog) (*catalog.Variable, bool) {
	v, ok := receiver.(expr.Variable)
	if !ok {
		return nil, false
	}
	e, ok := cat.Lookup(string(v))
	if !ok || e.Sub != nil || !e.Variable.IsArray() {
		return nil, false
	}
	return e.Variable, true
}

// lowerDirect lowers any/all/is_valid/is_missing with a non-array
// receiver: the membership forms become plain in/== comparisons and
// the validity forms keep their name.
func lowerDirect(call *expr.Call, cat *catalog.Catalog) (expr.Node, error) {
	recv, err := lower(call.Args[0], cat)
	if err != nil {
		return nil, err
	}
	switch call.Func {
	case expr.FuncIsValid, expr.FuncIsMissing:
		return &expr.Call{Func: call.Func, Args: []expr.Node{recv}}, nil
	}
	if len(call.Args) != 2 {
		return nil, expr.Valuef("1 argument expected, got %d", len(call.Args)-1)
	}
	switch call.Func {
	case expr.FuncAny:
		values, err := categoryValues(call.Args[0], call.Args[1], cat)
		if err != nil {
			return nil, err
		}
		return &expr.Call{Func: expr.OpIn, Args: []expr.Node{recv, expr.List(values)}}, nil
	}
	// all compares for equality against its single value
	values, err := categoryValues(call.Args[0], call.Args[1], cat)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, expr.Valuef("'all' requires exactly one value, got %d", len(values))
	}
	return &expr.Call{Func: expr.OpEq, Args: []expr.Node{recv, values[0]}}, nil
}

// expand rewrites a whole-array any/all/is_valid/is_missing call
// into its per-subvariable form.
func expand(call *expr.Call, v *catalog.Variable, cat *catalog.Catalog) (expr.Node, error) {
	switch call.Func {
	case expr.FuncIsValid, expr.FuncIsMissing:
		if len(call.Args) != 1 {
			return nil, expr.Valuef("no value allowed for %s on an array", call.Func)
		}
		// array-native: is_valid becomes all_valid, is_missing
		// keeps its name, neither expands per subvariable
		fn := expr.FuncIsMissing
		if call.Func == expr.FuncIsValid {
			fn = expr.FuncAllValid
		}
		recv := expr.Variable(cat.Base() + "variables/" + v.ID + "/")
		return &expr.Call{Func: fn, Args: []expr.Node{recv}}, nil
	}
	if len(call.Args) != 2 {
		return nil, expr.Valuef("1 argument expected, got %d", len(call.Args)-1)
	}
	// an empty list is classifiable as neither subvariables nor
	// category codes
	switch value := call.Args[1].(type) {
	case expr.List:
		if len(value) == 0 {
			return nil, expr.Valuef("%s needs at least one value", call.Func)
		}
	case expr.Column:
		if len(value) == 0 {
			return nil, expr.Valuef("%s needs at least one value", call.Func)
		}
	}
	if subs, ok := addressedSubvars(v, call.Args[1]); ok {
		return expandSubvars(call.Func, v, subs, cat)
	}
	return expandCategories(call.Func, v, call.Args[1], cat)
}

// addressedSubvars classifies the value list: when every element
// names a subvariable of v (matching ids before aliases), the call
// is subvariable-addressed. Category codes that collide with
// subvariable ids therefore classify as subvariable-addressed; the
// tie-break is deliberate and long-standing.
func addressedSubvars(v *catalog.Variable, value expr.Node) ([]string, bool) {
	var names []string
	switch value := value.(type) {
	case expr.Column:
		return []string(value), true
	case expr.List:
		for i := range value {
			switch e := value[i].(type) {
			case expr.Int:
				names = append(names, strconv.FormatInt(int64(e), 10))
			case expr.String:
				names = append(names, string(e))
			default:
				return nil, false
			}
		}
	default:
		return nil, false
	}
	for _, name := range names {
		if _, ok := v.Subvar(name); !ok {
			return nil, false
		}
	}
	return names, true
}

// expandSubvars lowers a subvariable-addressed any/all: one
// comparison per addressed subvariable against the selected
// category ids of the array, in declared subvariable order.
func expandSubvars(fn string, v *catalog.Variable, names []string, cat *catalog.Catalog) (expr.Node, error) {
	selected := v.SelectedIDs()
	var payload expr.Node
	real := expr.OpIn
	combine := expr.OpOr
	if fn == expr.FuncAll {
		if len(selected) != 1 {
			return nil, expr.Valuef("'all' requires exactly one selected category, got %d", len(selected))
		}
		payload = expr.Int(selected[0])
		real, combine = expr.OpEq, expr.OpAnd
	} else {
		ids := make(expr.List, len(selected))
		for i := range selected {
			ids[i] = expr.Int(selected[i])
		}
		payload = ids
	}
	named := make(map[string]bool, len(names))
	for _, n := range names {
		named[n] = true
	}
	var comps []expr.Node
	for i := range v.Subvariables {
		s := &v.Subvariables[i]
		if !named[s.ID] && !named[s.Alias] {
			continue
		}
		u := cat.Base() + "variables/" + v.ID + "/subvariables/" + s.ID + "/"
		comps = append(comps, &expr.Call{
			Func: real,
			Args: []expr.Node{expr.Variable(u), payload},
		})
	}
	if len(comps) == 0 {
		return nil, expr.Valuef("Invalid variable alias '%s'", names[0])
	}
	if len(comps) == 1 {
		return comps[0], nil
	}
	return expr.Nest(combine, comps...), nil
}

// expandCategories lowers a category-addressed any/all: the same
// value payload tested on every subvariable of the array, combined
// with or (any) or and (all). A single-subvariable array produces
// the bare comparison with no wrapper.
func expandCategories(fn string, v *catalog.Variable, value expr.Node, cat *catalog.Catalog) (expr.Node, error) {
	values, err := listValues(v, value)
	if err != nil {
		return nil, err
	}
	var payload expr.Node
	real := expr.OpIn
	combine := expr.OpOr
	if fn == expr.FuncAll {
		if len(values) != 1 {
			return nil, expr.Valuef("'all' requires exactly one value, got %d", len(values))
		}
		payload = values[0]
		real, combine = expr.OpEq, expr.OpAnd
	} else {
		payload = expr.List(values)
	}
	comps := make([]expr.Node, len(v.Subvariables))
	for i := range v.Subvariables {
		u := cat.Base() + "variables/" + v.ID + "/subvariables/" + v.Subvariables[i].ID + "/"
		comps[i] = &expr.Call{
			Func: real,
			Args: []expr.Node{expr.Variable(u), payload},
		}
	}
	if len(comps) == 1 {
		return comps[0], nil
	}
	return expr.Nest(combine, comps...), nil
}

// categoryValues returns the value list of a membership call with
// category names translated to ids against the receiver.
func categoryValues(receiver, value expr.Node, cat *catalog.Catalog) ([]expr.Node, error) {
	v := receiverVariable(receiver, cat)
	switch value := value.(type) {
	case expr.List:
		return listValues(v, value)
	case expr.Column:
		return nil, expr.Valuef("expected a value list, got a list of names")
	}
	out, err := translateValue(v, value)
	if err != nil {
		return nil, err
	}
	return []expr.Node{out}, nil
}

func listValues(v *catalog.Variable, value expr.Node) ([]expr.Node, error) {
	list, ok := value.(expr.List)
	if !ok {
		one, err := translateValue(v, value)
		if err != nil {
			return nil, err
		}
		return []expr.Node{one}, nil
	}
	out := make([]expr.Node, len(list))
	for i := range list {
		e, err := translateValue(v, list[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func receiverVariable(receiver expr.Node, cat *catalog.Catalog) *catalog.Variable {
	a, ok := receiver.(expr.Variable)
	if !ok {
		return nil
	}
	e, ok := cat.Lookup(string(a))
	if !ok {
		return nil
	}
	return e.Variable
}

// translateValue maps a textual category name to its numeric id
// against the receiver's category table. Datetime receivers keep
// their string values as-is.
func translateValue(v *catalog.Variable, value expr.Node) (expr.Node, error) {
	s, ok := value.(expr.String)
	if !ok || v == nil || v.Type == catalog.TypeDatetime || len(v.Categories) == 0 {
		return value, nil
	}
	id, ok := v.CategoryID(string(s))
	if !ok {
		return nil, expr.Valuef(
			"Couldn't find a category id for category %s in filter for variable %s",
			string(s), v.Alias)
	}
	return expr.Int(id), nil
}

// translateCategories rewrites textual category names on the value
// side of an already-lowered comparison, using the alias-addressed
// original call to find the receiver.
func translateCategories(lowered, orig *expr.Call, cat *catalog.Catalog) error {
	if len(orig.Args) != 2 {
		return nil
	}
	v := receiverVariable(orig.Args[0], cat)
	if v == nil {
		return nil
	}
	for i := 1; i < len(lowered.Args); i++ {
		switch a := lowered.Args[i].(type) {
		case expr.String:
			out, err := translateValue(v, a)
			if err != nil {
				return err
			}
			lowered.Args[i] = out
		case expr.List:
			vals, err := listValues(v, a)
			if err != nil {
				return err
			}
			lowered.Args[i] = expr.List(vals)
		}
	}
	return nil
}
