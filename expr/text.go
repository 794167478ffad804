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

package expr

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// ToString renders an alias-addressed tree back to filter syntax.
// Whole-number floats render as integers (25.0 becomes 25); string
// literals are single-quoted. An error is returned for a Call whose
// function has no surface form.
//
// Parenthesization is driven by the set of child call functions:
// an "or" child nested under anything but a top-level "or" is
// parenthesized, as is a boolean child under a parent "or" when the
// parent has more than one call-typed child.
func ToString(n Node) (string, error) {
	return render(n, "")
}

func render(n Node, parent string) (string, error) {
	switch n := n.(type) {
	case *Call:
		args := make([]string, len(n.Args))
		for i := range n.Args {
			s, err := render(n.Args[i], n.Func)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		var childFuncs []string
		for i := range n.Args {
			if c, ok := n.Args[i].(*Call); ok {
				childFuncs = append(childFuncs, c.Func)
			}
		}
		body, err := surface(n.Func, args)
		if err != nil {
			return "", err
		}
		nest := parent != "" && (slices.Contains(childFuncs, OpOr) ||
			(parent == OpOr && len(childFuncs) > 1) ||
			n.Func == OpOr)
		if nest {
			body = "(" + body + ")"
		}
		return body, nil
	case Variable:
		return string(n), nil
	case *Subvar:
		return n.Array + "[" + n.Sub + "]", nil
	case *Axis:
		return n.Var + "[" + strings.Join(n.Axes, ", ") + "]", nil
	case Int:
		return strconv.FormatInt(int64(n), 10), nil
	case Float:
		return formatFloat(float64(n)), nil
	case String:
		return Quote(string(n)), nil
	case List:
		elems := make([]string, len(n))
		for i := range n {
			s, err := render(n[i], "")
			if err != nil {
				return "", err
			}
			elems[i] = s
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	case Column:
		return "[" + strings.Join(n, ", ") + "]", nil
	}
	return "", Valuef("cannot render %s node", kind(n))
}

// surface produces the source form of one call with
// already-rendered arguments.
func surface(fn string, args []string) (string, error) {
	switch {
	case operators[fn]:
		if len(args) == 1 {
			return fn + " " + args[0], nil
		}
		return strings.Join(args, " "+fn+" "), nil
	case methodName[fn] != "":
		return args[0] + "." + methodName[fn] + "(" + strings.Join(args[1:], ", ") + ")", nil
	case functionName[fn] != "":
		return functionName[fn] + "(" + args[0] + ")", nil
	}
	return "", Valuef("unknown function %q", fn)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
