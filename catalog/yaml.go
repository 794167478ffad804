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

package catalog

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Schema is the on-disk description of a dataset, suitable for
// building a catalog without talking to the dataset service.
type Schema struct {
	Name      string     `json:"name,omitempty"`
	Base      string     `json:"base"`
	Variables []Variable `json:"variables"`
}

// LoadSchema reads a YAML (or JSON) schema file and builds a
// catalog from it.
func LoadSchema(path string) (*Catalog, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Schema
	if err := yaml.UnmarshalStrict(buf, &s); err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	if s.Base == "" {
		return nil, fmt.Errorf("schema %s: missing dataset base url", path)
	}
	return New(s.Base, s.Variables), nil
}
