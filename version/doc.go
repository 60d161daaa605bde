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

// Package version holds the version primitives shared by the compatibility
// layer: ordinal normalization, endpoint-scoped negotiation, the in-memory
// version registry and its deprecation lifecycle.
//
// # Ordinals
//
// Every version handled by apicompat is a three-part ordinal
// (major.minor.patch). Client tokens are normalized before use:
//
//	version.Normalize("v2")    // "2.0.0"
//	version.Normalize("2.1")   // "2.1.0"
//	version.Normalize("2.1.3") // "2.1.3"
//
// Normalization is idempotent; pre-release and build metadata are rejected
// with [ErrInvalidFormat].
//
// # Negotiation
//
// [Negotiate] maps a requested version onto the versions an endpoint
// actually registered: an exact match wins, otherwise the highest version
// sharing the requested major is selected. No same-major candidate yields an
// [*IncompatibleError] listing what the endpoint does support.
//
// # Lifecycle
//
// Versions move from active to deprecated and never back:
//
//	reg := version.NewRegistry()
//	reg.Add(version.Spec{Version: "1.0.0", ReleaseDate: released})
//	reg.Deprecate("1.0.0",
//	    version.Sunset(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
//	    version.SuccessorVersion("2.0.0"),
//	)
package version
