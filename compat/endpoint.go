// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compat

import (
	"encoding/json"
	"net/http"

	"rivaas.dev/apicompat/validation"
)

// HandlerFunc serves one version of an endpoint. A returned error is counted
// in the endpoint metrics and written by the manager's error formatter.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Route is one version of an endpoint.
type Route struct {
	Handler HandlerFunc `json:"-"`

	// Deprecated marks this version of the endpoint as deprecated even when
	// the API version itself is active.
	Deprecated bool `json:"deprecated,omitempty"`

	// Schema is an optional JSON Schema enforced on JSON request bodies
	// before Handler runs.
	Schema string `json:"schema,omitempty"`

	// Documentation is a free form description or URL.
	Documentation string `json:"documentation,omitempty" validate:"omitempty,max=2048"`
}

// Endpoint maps versions of one (method, path) to routes. Path uses chi
// patterns, e.g. "/users/{id}".
type Endpoint struct {
	Path     string           `json:"path" validate:"required,startswith=/"`
	Method   string           `json:"method" validate:"required,httpmethod"`
	Versions map[string]Route `json:"versions" validate:"required,min=1,dive,keys,apiversion,endkeys"`
}

// EndpointInfo describes a registered endpoint.
type EndpointInfo struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	Versions   []string `json:"versions"`
	Deprecated []string `json:"deprecated,omitempty"`
}

type route struct {
	Route
	schema *validation.Schema
}

// endpoint is immutable once registered.
type endpoint struct {
	method   string
	path     string
	routes   map[string]*route
	versions []string
}

func (e *endpoint) name() string {
	return e.method + " " + e.path
}

// JSON writes v as a JSON response. An existing Content-Type, such as a
// vendor media type set by the Accept strategy, is kept.
func JSON(w http.ResponseWriter, status int, v any) error {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
