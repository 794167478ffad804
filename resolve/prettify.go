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

package resolve

import (
	"errors"

	"github.com/quantpoll/filterql/catalog"
	"github.com/quantpoll/filterql/expr"
)

// ErrNoCatalog is returned by Prettify when the tree carries entity
// URLs but no catalog was supplied to resolve them.
var ErrNoCatalog = errors.New("Valid Dataset instance is required to resolve variable urls in the expression")

// Prettify renders a tree back to filter expression text. Trees
// that carry entity URLs need a catalog to map them back to
// aliases; alias-addressed trees render with cat == nil.
func Prettify(n expr.Node, cat *catalog.Catalog) (string, error) {
	un, err := unlower(n, cat)
	if err != nil {
		return "", err
	}
	return expr.ToString(un)
}

func unlower(n expr.Node, cat *catalog.Catalog) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Call:
		args := make([]expr.Node, len(n.Args))
		for i := range n.Args {
			a, err := unlower(n.Args[i], cat)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &expr.Call{Func: n.Func, Args: args}, nil
	case expr.Variable:
		if _, _, err := catalog.SplitURL(string(n)); err != nil {
			// a plain alias, not an entity url
			return n, nil
		}
		if cat == nil {
			return nil, ErrNoCatalog
		}
		e, ok := cat.ByURL(string(n))
		if !ok {
			return nil, expr.Valuef("Invalid variable url '%s'", string(n))
		}
		if e.Sub != nil {
			return &expr.Subvar{Array: e.Variable.Alias, Sub: e.Sub.Alias}, nil
		}
		return expr.Variable(e.Variable.Alias), nil
	}
	return n, nil
}
