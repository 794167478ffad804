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

package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/quantpoll/filterql/expr"
)

func wire(t *testing.T, n expr.Node) string {
	t.Helper()
	buf, err := expr.Encode(n)
	if err != nil {
		t.Fatalf("encoding: %s", err)
	}
	return string(buf)
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{
			`age == 1`,
			`{"function":"==","args":[{"variable":"age"},{"value":1}]}`,
		},
		{
			`age != 25.5`,
			`{"function":"!=","args":[{"variable":"age"},{"value":25.5}]}`,
		},
		{
			`name == 'john'`,
			`{"function":"==","args":[{"variable":"name"},{"value":"john"}]}`,
		},
		{
			`age == -1`,
			`{"function":"==","args":[{"variable":"age"},{"value":-1}]}`,
		},
		{
			`not (age == 1)`,
			`{"function":"not","args":[{"function":"==","args":[{"variable":"age"},{"value":1}]}]}`,
		},
		{
			`age == 1 and gender == 1`,
			`{"function":"and","args":[` +
				`{"function":"==","args":[{"variable":"age"},{"value":1}]},` +
				`{"function":"==","args":[{"variable":"gender"},{"value":1}]}]}`,
		},
		{
			// three or more operands nest pairwise to the right
			`a == 1 and b == 2 and c == 3`,
			`{"function":"and","args":[` +
				`{"function":"==","args":[{"variable":"a"},{"value":1}]},` +
				`{"function":"and","args":[` +
				`{"function":"==","args":[{"variable":"b"},{"value":2}]},` +
				`{"function":"==","args":[{"variable":"c"},{"value":3}]}]}]}`,
		},
		{
			// and binds tighter than or
			`a == 1 or b == 2 and c == 3`,
			`{"function":"or","args":[` +
				`{"function":"==","args":[{"variable":"a"},{"value":1}]},` +
				`{"function":"and","args":[` +
				`{"function":"==","args":[{"variable":"b"},{"value":2}]},` +
				`{"function":"==","args":[{"variable":"c"},{"value":3}]}]}]}`,
		},
		{
			`x in [1, 2, 3]`,
			`{"function":"in","args":[{"variable":"x"},{"value":[1,2,3]}]}`,
		},
		{
			`x not in [1, 2]`,
			`{"function":"not","args":[{"function":"in","args":[{"variable":"x"},{"value":[1,2]}]}]}`,
		},
		{
			// r(a, b) splices the inclusive range into the list
			`x in [r(1, 3), 5]`,
			`{"function":"in","args":[{"variable":"x"},{"value":[1,2,3,5]}]}`,
		},
		{
			`x in (4, 5)`,
			`{"function":"in","args":[{"variable":"x"},{"value":[4,5]}]}`,
		},
		{
			`q1.has_any([1, 2])`,
			`{"function":"any","args":[{"variable":"q1"},{"value":[1,2]}]}`,
		},
		{
			// a list of names is subvariable-addressed
			`q1.has_any([subvar1, subvar2])`,
			`{"function":"any","args":[{"variable":"q1"},{"column":["subvar1","subvar2"]}]}`,
		},
		{
			`q1.has_all([5])`,
			`{"function":"all","args":[{"variable":"q1"},{"value":[5]}]}`,
		},
		{
			// the short method spellings parse to the same calls
			`sector.any([2, 3])`,
			`{"function":"any","args":[{"variable":"sector"},{"value":[2,3]}]}`,
		},
		{
			`sector.all([2])`,
			`{"function":"all","args":[{"variable":"sector"},{"value":[2]}]}`,
		},
		{
			`identity.duplicates()`,
			`{"function":"duplicates","args":[{"variable":"identity"}]}`,
		},
		{
			`a.has_count(2)`,
			`{"function":"has_count","args":[{"variable":"a"},{"value":2}]}`,
		},
		{
			`valid(birthyr)`,
			`{"function":"is_valid","args":[{"variable":"birthyr"}]}`,
		},
		{
			`missing(birthyr)`,
			`{"function":"is_missing","args":[{"variable":"birthyr"}]}`,
		},
		{
			// each argument individually wrapped, combined with or
			`valid(birthyear, birthmonth)`,
			`{"function":"or","args":[` +
				`{"function":"is_valid","args":[{"variable":"birthyear"}]},` +
				`{"function":"is_valid","args":[{"variable":"birthmonth"}]}]}`,
		},
		{
			`selected(x)`,
			`{"function":"selected","args":[{"variable":"x"}]}`,
		},
		{
			`not_selected(x)`,
			`{"function":"not_selected","args":[{"variable":"x"}]}`,
		},
		{
			`x.bin()`,
			`{"function":"bin","args":[{"variable":"x"}]}`,
		},
		{
			// method spelling of selected; renders function-style
			`x.selected()`,
			`{"function":"selected","args":[{"variable":"x"}]}`,
		},
		{
			`arr[sub] == 1`,
			`{"function":"==","args":[{"var":"arr","axes":["sub"]},{"value":1}]}`,
		},
		{
			`age + 1 == 2`,
			`{"function":"==","args":[` +
				`{"function":"+","args":[{"variable":"age"},{"value":1}]},{"value":2}]}`,
		},
		{
			`weight * 2 < height - 1`,
			`{"function":"<","args":[` +
				`{"function":"*","args":[{"variable":"weight"},{"value":2}]},` +
				`{"function":"-","args":[{"variable":"height"},{"value":1}]}]}`,
		},
		{
			`total // 10 >= 3`,
			`{"function":">=","args":[` +
				`{"function":"//","args":[{"variable":"total"},{"value":10}]},{"value":3}]}`,
		},
		{
			`flags & 1 == 1`,
			`{"function":"==","args":[` +
				`{"function":"&","args":[{"variable":"flags"},{"value":1}]},{"value":1}]}`,
		},
		{
			`not valid(age)`,
			`{"function":"not","args":[{"function":"is_valid","args":[{"variable":"age"}]}]}`,
		},
	}
	for i := range tests {
		got, err := Parse(tests[i].text)
		if err != nil {
			t.Errorf("case %d: %q: %s", i, tests[i].text, err)
			continue
		}
		if w := wire(t, got); w != tests[i].want {
			t.Errorf("case %d: %q:\ngot  %s\nwant %s", i, tests[i].text, w, tests[i].want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text string
		is   error  // sentinel to match with errors.Is, or nil
		want string // substring of the message
	}{
		{`identity.duplicates(1)`, expr.ErrValue, `No parameters allowed for "duplicates"`},
		{`identity.duplicates([1])`, expr.ErrValue, `No parameters allowed for "duplicates"`},
		{`identity.duplicates('x')`, expr.ErrValue, `No parameters allowed for "duplicates"`},
		{`a == 1 == 2`, expr.ErrValue, `only one logical operator at a time`},
		{`a == 1 in [1]`, expr.ErrValue, `only one logical operator at a time`},
		{`a < 1 <= 2`, expr.ErrValue, `only one logical operator at a time`},
		{`x in [1, 'a']`, expr.ErrValue, `Only list-of-int or list-of-str`},
		{`x.frobnicate(1)`, expr.ErrValue, `unknown method "frobnicate"`},
		{`frobnicate(x)`, expr.ErrValue, `unknown function "frobnicate"`},
		{`valid(x=1)`, expr.ErrValue, `unsupported call with argument "x"`},
		{`a.has_any(1)`, expr.ErrValue, `expected list`},
		{`a.has_count([2])`, expr.ErrValue, `expected integer`},
		{`a.has_any([1], [2])`, expr.ErrValue, `1 argument expected, got 2`},
		{`x.selected(1)`, expr.ErrValue, `No parameters allowed for "selected"`},
		{`x in [r(1)]`, ErrRange, `function 'r' needs 2 integer arguments`},
		{`x in [r(1, 'a')]`, ErrRange, `function 'r' needs 2 integer arguments`},
		{`x in [r(1, 2, 3)]`, ErrRange, `function 'r' needs 2 integer arguments`},
		{``, nil, `empty expression`},
		{`age ==`, nil, `unexpected end of expression`},
		{`(age == 1`, nil, `unexpected end of expression`},
		{`age == 1)`, nil, `unexpected ")"`},
		{`1.5.has_any([1])`, nil, `variable name expected`},
	}
	for i := range tests {
		_, err := Parse(tests[i].text)
		if err == nil {
			t.Errorf("case %d: %q: no error", i, tests[i].text)
			continue
		}
		if tests[i].is != nil && !errors.Is(err, tests[i].is) {
			t.Errorf("case %d: %q: error %q does not match sentinel", i, tests[i].text, err)
		}
		if tests[i].is == nil {
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("case %d: %q: error %q is not a syntax error", i, tests[i].text, err)
			}
		}
		if !strings.Contains(err.Error(), tests[i].want) {
			t.Errorf("case %d: %q:\ngot  %s\nwant substring %q", i, tests[i].text, err, tests[i].want)
		}
	}
}

// Boolean chains of any length must parse right-nested pairwise.
func TestParseRightNesting(t *testing.T) {
	for _, op := range []string{"and", "or"} {
		for n := 3; n <= 6; n++ {
			terms := make([]string, n)
			for i := range terms {
				terms[i] = fmt.Sprintf("v%d == %d", i, i)
			}
			text := strings.Join(terms, " "+op+" ")
			got, err := Parse(text)
			if err != nil {
				t.Fatalf("%q: %s", text, err)
			}
			// walk the spine: each level holds exactly two args,
			// the left one a comparison
			depth := 0
			for {
				call, ok := got.(*expr.Call)
				if !ok || call.Func != op {
					break
				}
				if len(call.Args) != 2 {
					t.Fatalf("%q: %d-ary %s node", text, len(call.Args), op)
				}
				if left, ok := call.Args[0].(*expr.Call); !ok || left.Func != "==" {
					t.Fatalf("%q: left arg of level %d is not a comparison", text, depth)
				}
				depth++
				got = call.Args[1]
			}
			if depth != n-1 {
				t.Errorf("%q: spine depth %d, want %d", text, depth, n-1)
			}
		}
	}
}

func TestParsePlatonic(t *testing.T) {
	tree, err := Parse(`arr[sub] == 1`)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tree.(*expr.Call).Args[0].(*expr.Subvar); !ok {
		t.Errorf("Parse: receiver is %T, want *expr.Subvar", tree.(*expr.Call).Args[0])
	}
	tree, err = ParsePlatonic(`arr[sub] == 1`)
	if err != nil {
		t.Fatal(err)
	}
	ax, ok := tree.(*expr.Call).Args[0].(*expr.Axis)
	if !ok {
		t.Fatalf("ParsePlatonic: receiver is %T, want *expr.Axis", tree.(*expr.Call).Args[0])
	}
	if ax.Var != "arr" || len(ax.Axes) != 1 || ax.Axes[0] != "sub" {
		t.Errorf("ParsePlatonic: got %+v", ax)
	}
}

// Parsing and rendering an expression reproduces it, modulo literal
// normalization and the x not in y form collapsing to not x in y.
func TestRoundtrip(t *testing.T) {
	tests := []struct {
		text string
		want string // "" means identical to text
	}{
		{`age == 1`, ``},
		{`a == 1 and b == 2`, ``},
		{`a == 1 and b == 2 and c == 3`, ``},
		{`(a == 1 or b == 2) and c == 3`, ``},
		{`not a in [1, 2]`, ``},
		{`x not in [1, 2]`, `not x in [1, 2]`},
		{`q.has_any([1, 2])`, ``},
		{`q.has_all([5])`, ``},
		{`valid(a)`, ``},
		{`missing(a)`, ``},
		{`identity.duplicates()`, ``},
		{`a.has_count(2)`, ``},
		{`arr[sub] == 5`, ``},
		{`age == 25.0`, `age == 25`},
		{`q.any([1, 2])`, `q.has_any([1, 2])`},
		{`x.selected()`, `selected(x)`},
		{`name == 'it\'s'`, ``},
		{`age + 1 < 30`, ``},
		{`selected(x)`, ``},
	}
	for i := range tests {
		tree, err := Parse(tests[i].text)
		if err != nil {
			t.Errorf("case %d: %q: %s", i, tests[i].text, err)
			continue
		}
		got, err := expr.ToString(tree)
		if err != nil {
			t.Errorf("case %d: %q: %s", i, tests[i].text, err)
			continue
		}
		want := tests[i].want
		if want == "" {
			want = tests[i].text
		}
		if got != want {
			t.Errorf("case %d: %q:\ngot  %s\nwant %s", i, tests[i].text, got, want)
		}
	}
}
