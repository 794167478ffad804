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
	"bytes"
	"encoding/json"
	"fmt"
)

// The wire format is a JSON tree of five node shapes:
//
//	{"function": <name>, "args": [<node>, ...]}
//	{"variable": <identifier-or-alias>}
//	{"value": <scalar | [scalar, ...]>}
//	{"column": [<name>, ...]}
//	{"var": <alias>, "axes": [<alias>, ...]}
//
// Field order within each node is fixed; the downstream service
// compares payloads byte-for-byte.

type wireCall struct {
	Function string `json:"function"`
	Args     []any  `json:"args"`
}

type wireVariable struct {
	Variable string `json:"variable"`
}

type wireValue struct {
	Value any `json:"value"`
}

type wireColumn struct {
	Column []string `json:"column"`
}

type wireAxes struct {
	Var  string   `json:"var"`
	Axes []string `json:"axes"`
}

// Encode serializes n to wire-format JSON.
func Encode(n Node) ([]byte, error) {
	v, err := wirev(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func wirev(n Node) (any, error) {
	switch n := n.(type) {
	case *Call:
		args := make([]any, len(n.Args))
		for i := range n.Args {
			a, err := wirev(n.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return wireCall{Function: n.Func, Args: args}, nil
	case Variable:
		return wireVariable{Variable: string(n)}, nil
	case *Subvar:
		return wireAxes{Var: n.Array, Axes: []string{n.Sub}}, nil
	case *Axis:
		return wireAxes{Var: n.Var, Axes: n.Axes}, nil
	case Int:
		return wireValue{Value: int64(n)}, nil
	case Float:
		return wireValue{Value: float64(n)}, nil
	case String:
		return wireValue{Value: string(n)}, nil
	case List:
		vals := make([]any, len(n))
		for i := range n {
			switch e := n[i].(type) {
			case Int:
				vals[i] = int64(e)
			case Float:
				vals[i] = float64(e)
			case String:
				vals[i] = string(e)
			default:
				return nil, fmt.Errorf("non-scalar %s element in list literal", kind(n[i]))
			}
		}
		return wireValue{Value: vals}, nil
	case Column:
		return wireColumn{Column: n}, nil
	}
	return nil, fmt.Errorf("cannot encode %s node", kind(n))
}

// Decode parses wire-format JSON into a tree.
// A {"var", "axes"} node decodes as *Axis; the single-axis Subvar
// form is indistinguishable on the wire.
func Decode(data []byte) (Node, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decode(raw)
}

type wireNode struct {
	Function string            `json:"function"`
	Args     []json.RawMessage `json:"args"`
	Variable *string           `json:"variable"`
	Value    *json.RawMessage  `json:"value"`
	Column   []string          `json:"column"`
	Var      *string           `json:"var"`
	Axes     []string          `json:"axes"`
}

func decode(raw json.RawMessage) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	switch {
	case w.Function != "":
		args := make([]Node, len(w.Args))
		for i := range w.Args {
			a, err := decode(w.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &Call{Func: w.Function, Args: args}, nil
	case w.Variable != nil:
		return Variable(*w.Variable), nil
	case w.Value != nil:
		return decodeValue(*w.Value)
	case w.Column != nil:
		return Column(w.Column), nil
	case w.Var != nil:
		return &Axis{Var: *w.Var, Axes: w.Axes}, nil
	}
	return nil, fmt.Errorf("unrecognized expression node %s", raw)
}

func decodeValue(raw json.RawMessage) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []any:
		out := make(List, len(v))
		for i := range v {
			e, err := scalar(v[i])
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	default:
		return scalar(v)
	}
}

func scalar(v any) (Node, error) {
	switch v := v.(type) {
	case string:
		return String(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
}
