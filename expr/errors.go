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
	"errors"
	"fmt"
)

// ErrValue tags errors caused by input that is syntactically valid
// but semantically rejected: heterogeneous lists, wrong arity,
// unknown methods, unresolvable aliases, and so on.
// Use errors.Is(err, expr.ErrValue) to test for the class.
var ErrValue = errors.New("invalid value")

// Valuef produces an error wrapping ErrValue.
func Valuef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValue, fmt.Sprintf(format, args...))
}
