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

// Package catalog models the variable metadata of a dataset: the
// aliases, categories, and subvariables that filter expressions
// address, plus the entity URLs they lower to.
package catalog

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/exp/maps"
)

// Variable type names as they appear in dataset metadata.
const (
	TypeCategorical      = "categorical"
	TypeMultipleResponse = "multiple_response"
	TypeCategoricalArray = "categorical_array"
	TypeNumeric          = "numeric"
	TypeText             = "text"
	TypeDatetime         = "datetime"
)

// Category is one category of a categorical variable.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Missing  bool   `json:"missing,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// Subvariable is one element of an array variable.
type Subvariable struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
	Name  string `json:"name,omitempty"`
}

// Variable is one dataset variable. Array variables
// (multiple_response, categorical_array) carry subvariables;
// categorical variables carry categories.
type Variable struct {
	ID           string        `json:"id"`
	Alias        string        `json:"alias"`
	Name         string        `json:"name,omitempty"`
	Type         string        `json:"type"`
	Categories   []Category    `json:"categories,omitempty"`
	Subvariables []Subvariable `json:"subvariables,omitempty"`
}

// IsArray reports whether the variable is subvariable-bearing.
func (v *Variable) IsArray() bool {
	return v.Type == TypeMultipleResponse || v.Type == TypeCategoricalArray
}

// CategoryID returns the id of the category with the given name.
func (v *Variable) CategoryID(name string) (int64, bool) {
	for i := range v.Categories {
		if v.Categories[i].Name == name {
			return v.Categories[i].ID, true
		}
	}
	return 0, false
}

// SelectedIDs returns the ids of the selected categories, in
// metadata order.
func (v *Variable) SelectedIDs() []int64 {
	var ids []int64
	for i := range v.Categories {
		if v.Categories[i].Selected {
			ids = append(ids, v.Categories[i].ID)
		}
	}
	return ids
}

// Subvar returns the subvariable with the given id or alias.
func (v *Variable) Subvar(key string) (*Subvariable, bool) {
	for i := range v.Subvariables {
		if v.Subvariables[i].ID == key || v.Subvariables[i].Alias == key {
			return &v.Subvariables[i], true
		}
	}
	return nil, false
}

// Entry is one addressable name in a catalog: either a whole
// variable, or one subvariable of an array variable.
type Entry struct {
	Variable *Variable
	Sub      *Subvariable // nil for whole-variable entries
}

// URL returns the entity URL of the entry under the given base.
func (e *Entry) URL(base string) string {
	if e.Sub != nil {
		return base + "variables/" + e.Variable.ID + "/subvariables/" + e.Sub.ID + "/"
	}
	return base + "variables/" + e.Variable.ID + "/"
}

// A Catalog indexes the variables of one dataset by alias and by
// entity URL. Subvariables of array variables are addressable both
// by their bare alias and by the array[subvar] form.
type Catalog struct {
	base    string
	vars    []Variable
	byAlias map[string]*Entry
	byURL   map[string]*Entry
}

// New builds a catalog over vars, lowering aliases to URLs under
// base. base must end in a slash.
func New(base string, vars []Variable) *Catalog {
	c := &Catalog{
		base:    base,
		vars:    vars,
		byAlias: make(map[string]*Entry),
		byURL:   make(map[string]*Entry),
	}
	for i := range c.vars {
		v := &c.vars[i]
		e := &Entry{Variable: v}
		c.byAlias[v.Alias] = e
		c.byURL[e.URL(base)] = e
		for j := range v.Subvariables {
			s := &Entry{Variable: v, Sub: &v.Subvariables[j]}
			c.byAlias[v.Subvariables[j].Alias] = s
			c.byAlias[v.Alias+"["+v.Subvariables[j].Alias+"]"] = s
			c.byURL[s.URL(base)] = s
		}
	}
	return c
}

// Base returns the dataset base URL the catalog lowers against.
func (c *Catalog) Base() string { return c.base }

// Variables returns the catalog's variables in declared order.
func (c *Catalog) Variables() []Variable { return c.vars }

// Lookup resolves an alias, a subvariable alias, or the
// array[subvar] compound form.
func (c *Catalog) Lookup(alias string) (*Entry, bool) {
	e, ok := c.byAlias[alias]
	return e, ok
}

// ByURL resolves an entity URL previously produced by lowering.
func (c *Catalog) ByURL(url string) (*Entry, bool) {
	e, ok := c.byURL[url]
	return e, ok
}

// Aliases returns every addressable alias, sorted.
func (c *Catalog) Aliases() []string {
	names := maps.Keys(c.byAlias)
	sort.Strings(names)
	return names
}

var urlRE = regexp.MustCompile(`variables/([^/]+)/(?:subvariables/([^/]+)/)?$`)

// SplitURL extracts the variable id, and subvariable id if present,
// from an entity URL.
func SplitURL(url string) (varID, subID string, err error) {
	m := urlRE.FindStringSubmatch(url)
	if m == nil {
		return "", "", fmt.Errorf("malformed variable url %q", url)
	}
	return m[1], m[2], nil
}
