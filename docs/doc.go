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

// Package docs renders the version changelog served by the /changelog meta
// endpoint.
//
// A [Changelog] is built from registry records with [FromRecords] and written
// by a [Renderer]. Three formats are available:
//
//   - Markdown (default): a human readable document
//   - YAML: via github.com/goccy/go-yaml
//   - JSON: indented
//
// Select one by name with [RendererFor]:
//
//	r, err := docs.RendererFor(req.URL.Query().Get("format"))
//	if err != nil {
//	    return err
//	}
//	w.Header().Set("Content-Type", r.ContentType())
//	return r.Render(w, docs.FromRecords(reg.List()))
package docs
