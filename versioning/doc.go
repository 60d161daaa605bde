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

// Package versioning provides net/http middleware that resolves the API
// version of every request.
//
// For each request the middleware:
//
//  1. extracts a version token with the configured [strategy.Strategy],
//     falling back to the default version
//  2. normalizes it to a three-part ordinal ("v1" becomes "1.0.0")
//  3. rejects malformed tokens with 400, and in strict mode rejects versions
//     that share no major with the supported set
//  4. stores a [State] in the request context and sets the API-Version and
//     Supported-Versions response headers
//  5. adds Deprecation, Sunset, Link and Warning: 299 headers when the
//     resolved version is deprecated in the registry
//  6. wraps successful JSON responses as {version, timestamp, data}
//
// # Basic Usage
//
//	reg := version.NewRegistry()
//	mw, err := versioning.New(reg,
//	    versioning.WithMethod(strategy.KindHeader),
//	    versioning.WithDefault("2.0.0"),
//	    versioning.WithSupportedVersions("1.0.0", "2.0.0"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", mw.Handler(mux))
//
// Handlers read the resolved version with [VersionFromContext].
//
// # Response Rewriting
//
// Responses are buffered. Handlers and wrappers register [BodyFunc]s on the
// [State]; they run in order over the buffered body, followed by the
// envelope, before anything is written to the client.
//
// # Sunset
//
// Sunset dates are advertised only. [WithSunsetEnforcement] turns requests
// for versions past their sunset date into 410 Gone.
package versioning
