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

// Wire function names.
const (
	OpOr  = "or"
	OpAnd = "and"
	OpNot = "not"

	OpEq = "=="
	OpNe = "!="
	OpLt = "<"
	OpLe = "<="
	OpGt = ">"
	OpGe = ">="
	OpIn = "in"

	OpAdd      = "+"
	OpSub      = "-"
	OpMul      = "*"
	OpDiv      = "/"
	OpFloorDiv = "//"
	OpPow      = "^"
	OpMod      = "%"
	OpBitAnd   = "&"
	OpBitOr    = "|"
	OpInvert   = "~"

	FuncAny         = "any"
	FuncAll         = "all"
	FuncDuplicates  = "duplicates"
	FuncHasCount    = "has_count"
	FuncIsValid     = "is_valid"
	FuncIsMissing   = "is_missing"
	FuncAllValid    = "all_valid"
	FuncAllMissing  = "all_missing"
	FuncBin         = "bin"
	FuncSelected    = "selected"
	FuncNotSelected = "not_selected"
)

// Methods maps surface method names (receiver.method(args))
// to wire function names. any/all have a long and a short
// spelling; the renderer emits the long one.
var Methods = map[string]string{
	"any":          FuncAny,
	"all":          FuncAll,
	"has_any":      FuncAny,
	"has_all":      FuncAll,
	"duplicates":   FuncDuplicates,
	"has_count":    FuncHasCount,
	"bin":          FuncBin,
	"selected":     FuncSelected,
	"not_selected": FuncNotSelected,
}

// Functions maps bare surface function names to wire function names.
var Functions = map[string]string{
	"valid":        FuncIsValid,
	"missing":      FuncIsMissing,
	"selected":     FuncSelected,
	"not_selected": FuncNotSelected,
}

// operators is the set of functions rendered infix (or, for a single
// argument, prefix) by the renderer.
var operators = map[string]bool{
	OpOr: true, OpAnd: true, OpNot: true,
	OpEq: true, OpNe: true, OpLt: true, OpLe: true,
	OpGt: true, OpGe: true, OpIn: true,
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true,
	OpFloorDiv: true, OpPow: true, OpMod: true,
	OpBitAnd: true, OpBitOr: true, OpInvert: true,
}

// methodName and functionName are the reverse of Methods and
// Functions, used when rendering trees back to source text.
// The array-native forms emitted by lowering (all_valid,
// all_missing) render through the same surface functions.
var methodName = map[string]string{
	FuncAny:        "has_any",
	FuncAll:        "has_all",
	FuncDuplicates: "duplicates",
	FuncHasCount:   "has_count",
	FuncBin:        "bin",
}

var functionName = map[string]string{
	FuncIsValid:     "valid",
	FuncIsMissing:   "missing",
	FuncAllValid:    "valid",
	FuncAllMissing:  "missing",
	FuncSelected:    "selected",
	FuncNotSelected: "not_selected",
}

// Comparison reports whether fn is a comparison operator.
func Comparison(fn string) bool {
	switch fn {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn:
		return true
	}
	return false
}
