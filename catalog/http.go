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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/maps"
)

// Client fetches dataset metadata from the dataset service.
// The zero value uses http.DefaultClient.
type Client struct {
	HTTP  *http.Client
	Token string // bearer token, optional
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// table/?limit=0 returns variable metadata without any rows
type tablePayload struct {
	Metadata map[string]metaVariable `json:"metadata"`
}

type metaVariable struct {
	Alias         string                 `json:"alias"`
	Name          string                 `json:"name"`
	Type          string                 `json:"type"`
	Categories    []Category             `json:"categories"`
	Subvariables  []string               `json:"subvariables"`
	Subreferences map[string]Subvariable `json:"subreferences"`
}

// Fetch retrieves the variable metadata of the dataset at base and
// builds a catalog over it. base must end in a slash.
func (c *Client) Fetch(ctx context.Context, base string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"table/?limit=0", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "zstd, gzip")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	res, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", base, res.Status)
	}
	body, err := decompressed(res)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	var payload tablePayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", base, err)
	}
	return New(base, variables(payload.Metadata)), nil
}

// decompressed unwraps the response body per its Content-Encoding
func decompressed(res *http.Response) (io.ReadCloser, error) {
	switch enc := res.Header.Get("Content-Encoding"); enc {
	case "", "identity":
		return res.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(res.Body)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", enc)
	}
}

func variables(meta map[string]metaVariable) []Variable {
	ids := maps.Keys(meta)
	sort.Strings(ids)
	out := make([]Variable, 0, len(meta))
	for _, id := range ids {
		m := meta[id]
		v := Variable{
			ID:         id,
			Alias:      m.Alias,
			Name:       m.Name,
			Type:       m.Type,
			Categories: m.Categories,
		}
		// subvariables lists ids in order; subreferences carries
		// the alias and name of each
		for _, sid := range m.Subvariables {
			ref := m.Subreferences[sid]
			v.Subvariables = append(v.Subvariables, Subvariable{
				ID:    sid,
				Alias: ref.Alias,
				Name:  ref.Name,
			})
		}
		out = append(out, v)
	}
	return out
}
