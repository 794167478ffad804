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

// Nest combines args with fn as a right-nested pairwise tree:
//
//	Nest("and", a, b, c) => and(a, and(b, c))
//
// The wire format has no n-ary boolean nodes, so chains of three or
// more operands always nest this way. Two or fewer operands produce
// a single call.
func Nest(fn string, args ...Node) *Call {
	if fn != OpOr && fn != OpAnd || len(args) < 3 {
		return &Call{Func: fn, Args: args}
	}
	return &Call{Func: fn, Args: []Node{args[0], Nest(fn, args[1:]...)}}
}
