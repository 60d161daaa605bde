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

// Package compat serves several generations of an API from one set of
// routes.
//
// A [Manager] holds the registered API versions, the endpoints with one
// handler per version and the transformers between versions. Every request
// passes through the versioning middleware, then the manager negotiates
// which registered version of the endpoint serves it:
//
//   - an exact match is used as is
//   - otherwise the highest registered version with the same major is used,
//     through a transformer when one is registered for that exact pair
//   - with no same-major version the request fails with 400 and the
//     endpoint's versions
//
// # Basic Usage
//
//	m := compat.MustNew(compat.WithVersioning(
//	    versioning.WithDefault("2.0.0"),
//	    versioning.WithSupportedVersions("1.0.0", "2.0.0"),
//	))
//	_, _ = m.AddVersion(version.Spec{Version: "1.0.0", ReleaseDate: v1Date})
//	_, _ = m.AddVersion(version.Spec{Version: "2.0.0", ReleaseDate: v2Date})
//
//	err := m.RegisterEndpoint(compat.Endpoint{
//	    Method: http.MethodGet,
//	    Path:   "/users/{id}",
//	    Versions: map[string]compat.Route{
//	        "1.0.0": {Handler: getUserV1},
//	        "2.0.0": {Handler: getUserV2},
//	    },
//	})
//	http.ListenAndServe(":8080", m)
//
// # Meta Endpoints
//
// The manager also serves, under an optional prefix:
//
//	GET /versions                 default, supported and deprecated versions
//	GET /changelog?format=        markdown (default), yaml or json
//	GET /migration/{from}/{to}    migration guide, 404 for unknown versions
//	GET /metrics                  per version and endpoint statistics
//
// /metrics only exists when an [Authenticator] is configured.
package compat
