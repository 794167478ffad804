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

import "testing"

func TestEncodeShapes(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Variable("age"), `{"variable":"age"}`},
		{Int(1), `{"value":1}`},
		{Float(25.5), `{"value":25.5}`},
		{String("john"), `{"value":"john"}`},
		{List{Int(1), Int(2)}, `{"value":[1,2]}`},
		{Column{"s1", "s2"}, `{"column":["s1","s2"]}`},
		{&Subvar{Array: "arr", Sub: "sub"}, `{"var":"arr","axes":["sub"]}`},
		{&Axis{Var: "arr", Axes: []string{"a", "b"}}, `{"var":"arr","axes":["a","b"]}`},
		{
			&Call{Func: OpEq, Args: []Node{Variable("age"), Int(1)}},
			`{"function":"==","args":[{"variable":"age"},{"value":1}]}`,
		},
	}
	for i := range tests {
		buf, err := Encode(tests[i].node)
		if err != nil {
			t.Errorf("case %d: %s", i, err)
			continue
		}
		if string(buf) != tests[i].want {
			t.Errorf("case %d: got %s, want %s", i, buf, tests[i].want)
		}
	}
}

func TestEncodeNestedList(t *testing.T) {
	// list elements must be scalars
	_, err := Encode(List{Int(1), List{Int(2)}})
	if err == nil {
		t.Error("no error for a nested list")
	}
}

func TestDecode(t *testing.T) {
	tree, err := Decode([]byte(
		`{"function":"and","args":[` +
			`{"function":"==","args":[{"variable":"age"},{"value":25}]},` +
			`{"function":"in","args":[{"var":"arr","axes":["sub"]},{"value":[1,2.5,"x"]}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	call, ok := tree.(*Call)
	if !ok || call.Func != OpAnd || len(call.Args) != 2 {
		t.Fatalf("got %#v", tree)
	}
	left := call.Args[0].(*Call)
	if v, ok := left.Args[0].(Variable); !ok || v != "age" {
		t.Errorf("left receiver: got %#v", left.Args[0])
	}
	if n, ok := left.Args[1].(Int); !ok || n != 25 {
		t.Errorf("whole numbers decode as Int: got %#v", left.Args[1])
	}
	right := call.Args[1].(*Call)
	ax, ok := right.Args[0].(*Axis)
	if !ok || ax.Var != "arr" || len(ax.Axes) != 1 || ax.Axes[0] != "sub" {
		t.Errorf("axes node: got %#v", right.Args[0])
	}
	list, ok := right.Args[1].(List)
	if !ok || len(list) != 3 {
		t.Fatalf("value list: got %#v", right.Args[1])
	}
	if _, ok := list[0].(Int); !ok {
		t.Errorf("list[0]: got %#v", list[0])
	}
	if f, ok := list[1].(Float); !ok || f != 2.5 {
		t.Errorf("list[1]: got %#v", list[1])
	}
	if s, ok := list[2].(String); !ok || s != "x" {
		t.Errorf("list[2]: got %#v", list[2])
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, payload := range []string{
		`{"unknown":1}`,
		`[1,2]`,
		`{"value":true}`,
	} {
		if _, err := Decode([]byte(payload)); err == nil {
			t.Errorf("%s: no error", payload)
		}
	}
}

func TestDecodeEncodeStable(t *testing.T) {
	// one pass through decode and encode is byte-identical
	payload := `{"function":"or","args":[` +
		`{"function":"==","args":[{"variable":"a"},{"value":1}]},` +
		`{"function":"==","args":[{"variable":"b"},{"value":"x"}]}]}`
	tree, err := Decode([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	buf, err := Encode(tree)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != payload {
		t.Errorf("got  %s\nwant %s", buf, payload)
	}
}
